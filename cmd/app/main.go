package main

import (
	"os"

	"github.com/spf13/cobra"

	"MarketTiming/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "app",
		Short: "Market timing signal service",
		Long: `Loads market series, aligns them on the trading calendar, computes
valuation, volatility and trend indicators and derives a composite
buy/sell recommendation with a market regime.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	load := func() (*config.Config, error) {
		return config.LoadWithEnv(configPath)
	}
	root.AddCommand(newServeCmd(load), newRunCmd(load))
	return root
}
