package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rentabot/rentabot/internal/applog"
	"github.com/rentabot/rentabot/internal/descriptor"
	"github.com/rentabot/rentabot/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, err := setupGlobalConfig(cmd.Context())
			if err != nil {
				return err
			}
			ctx = applog.WithContext(ctx, applog.New("server"))

			resources, err := descriptor.Load(cfg.ResourceDescriptorPath)
			if err != nil {
				return fmt.Errorf("failed to load resource descriptor: %w", err)
			}

			srv := server.New(ctx, cfg)
			srv.Store().Seed(resources)

			applog.FromContext(ctx).Info("loaded resource catalog", "count", len(resources))
			return srv.Run()
		},
	}
}
