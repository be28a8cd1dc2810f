package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/creditsim/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "creditsim",
	Short: "A weekly roll-forward simulator for revolving credit portfolios",
	Long: `Creditsim rolls a revolving private-credit book forward one week at a time
against a historical index-rate calendar.

It provides tools for:
  - Deploying an initial book from a pool of loan templates
  - Simulating interest, defaults, maturities and reinvestment each week
  - Rebuilding per-loan weekly P&L from the transaction ledger
  - Computing drawdowns and yearly/overall risk statistics
  - Journaling runs to CSV files or a SQLite database`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(logLevel)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		cmd.SetContext(logger.WithContext(cmd.Context(), l))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.FromContext(cmd.Context()).Sync()
	},
}

var logLevel string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
