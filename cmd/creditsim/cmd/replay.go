package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/creditsim/config"
	"github.com/rustyeddy/creditsim/report"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Rebuild P&L and statistics from a stored ledger",
	Long: `Re-run the P&L reconstruction and the risk aggregation against a stored
transaction ledger and a rate calendar, without the engine. The ledger comes
from a transactions CSV or from a run in a SQLite journal.

Examples:
  creditsim replay --rates effr.csv --ledger out/portfolio_transactions.csv --out ./replay
  creditsim replay --rates effr.csv --db runs.sqlite --run-id 01J...`,
	Args: cobra.NoArgs,
	RunE: runReplay,
}

var (
	replayRates        string
	replayLedger       string
	replayDB           string
	replayRunID        string
	replayOut          string
	replayOrg          string
	replayYearDays     int
	replayWeeksPerYear int
)

func init() {
	rootCmd.AddCommand(replayCmd)

	d := config.Default().Simulation
	replayCmd.Flags().StringVar(&replayRates, "rates", "", "rate calendar CSV (required)")
	replayCmd.Flags().StringVar(&replayLedger, "ledger", "", "transactions CSV to replay")
	replayCmd.Flags().StringVarP(&replayDB, "db", "d", "", "SQLite journal holding the run")
	replayCmd.Flags().StringVar(&replayRunID, "run-id", "", "run to replay from the SQLite journal")
	replayCmd.Flags().StringVar(&replayOut, "out", "./replay", "CSV output directory")
	replayCmd.Flags().StringVar(&replayOrg, "org", "", "write an Org-mode report to this file")
	replayCmd.Flags().IntVar(&replayYearDays, "year-days", d.YearDayCount, "day count for maturity dates")
	replayCmd.Flags().IntVar(&replayWeeksPerYear, "weeks-per-year", d.WeeksPerYear, "weeks per year for weekly interest")
	replayCmd.MarkFlagRequired("rates")
	replayCmd.MarkFlagsMutuallyExclusive("ledger", "db")
	replayCmd.MarkFlagsRequiredTogether("db", "run-id")
}

func runReplay(cmd *cobra.Command, args []string) error {
	src := replaySource{DBPath: replayDB, RunID: replayRunID, LedgerPath: replayLedger}
	out, err := replay(cmd.Context(), src, replayRates, replayOut, replayYearDays, replayWeeksPerYear)
	if err != nil {
		return err
	}

	if replayOrg != "" {
		org := &report.OrgReport{
			Run:     out.Run,
			Yearly:  out.Results.Yearly,
			Overall: out.Results.Overall,
			OutDir:  replayOut,
			Notes:   []string{"replayed from stored ledger"},
		}
		if err := org.WriteOrg(replayOrg); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}

	w := cmd.OutOrStdout()
	report.PrintRun(w, out.Run, out.Results.Yearly)
	fmt.Fprintf(w, "Replay saved to: %s\n", replayOut)
	return nil
}
