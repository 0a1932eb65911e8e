package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flatcheck/flatcheck/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "flatcheck",
	Short: "Consistency checker for Czech real-estate listings",
	Long:  "Scrapes Bezrealitky listings, converts them to structured records via Claude, then cross-checks the description against the data and stores the verdict.",
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
