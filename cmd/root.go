package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caseatlas/caseatlas/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "caseatlas",
	Short: "Explore US COVID-19 case and death time series",
	Long:  "Fetches the NYT county/state/national case data, serves an interactive choropleth and trend dashboard, and exports filtered slices.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
