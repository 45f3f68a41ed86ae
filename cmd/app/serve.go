package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"MarketTiming/internal/di"
	"MarketTiming/pkg/config"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled refresher",
		Long: `Starts the HTTP API, the websocket push endpoint and the refresher that
recomputes the snapshot on the configured cron schedule.

Examples:
  app serve
  app serve --config /etc/market-timing/config.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()

			return app.Run(cmd.Context())
		},
	}
}
