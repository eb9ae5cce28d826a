// Package cli defines the command-line entrypoint, grounded on the
// teacher's cobra root command + config-bootstrap pattern (cli/root.go,
// no longer retained in this tree past the point its shape was learned
// from, see DESIGN.md).
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rentabot/rentabot/internal/applog"
	"github.com/rentabot/rentabot/internal/config"
)

var debug bool

// NewRootCmd builds the root cobra command with the serve subcommand
// attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rentabot",
		Short: "A resource locking and reservation service",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applog.SetLevel(debug)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.AddCommand(newServeCmd())
	return root
}

// setupGlobalConfig loads configuration and threads it onto ctx, mirroring
// the teacher's SetupGlobalConfig/config.FromContext idiom.
func setupGlobalConfig(ctx context.Context) (context.Context, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config.WithContext(ctx, cfg), cfg, nil
}
