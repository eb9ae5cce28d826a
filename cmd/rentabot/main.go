// Command rentabot runs the resource locking and reservation service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rentabot/rentabot/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
