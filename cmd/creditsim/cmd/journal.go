package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/creditsim/internal/id"
	"github.com/rustyeddy/creditsim/journal"
	"github.com/rustyeddy/creditsim/report"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query stored runs",
	Long: `Query and display run records from a SQLite journal.

Subcommands:
  runs  - List stored runs, newest first
  show  - Show one run with its open positions

Examples:
  creditsim journal runs
  creditsim journal show <run-id>`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./creditsim.sqlite", "path to SQLite journal DB")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	return printRuns(cmd.OutOrStdout(), runs)
}

func printRuns(w io.Writer, runs []journal.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSTART\tEND\tSEED\tFUNDED\tDEFAULTED\tTOTAL P&L\tRETURN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.RunID,
			r.Created.Format("2006-01-02 15:04"),
			r.Start.Format("2006-01-02"),
			r.End.Format("2006-01-02"),
			r.Seed,
			r.LoansFunded,
			r.LoansDefaulted,
			report.Money(r.TotalPnL),
			report.Pct(r.ReturnPct),
		)
	}
	return tw.Flush()
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	if _, err := id.Started(args[0]); err != nil {
		return err
	}
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	run, err := j.GetRun(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	positions, err := j.ListPositions(ctx, run.RunID)
	if err != nil {
		return fmt.Errorf("query positions: %w", err)
	}

	w := cmd.OutOrStdout()
	report.PrintRun(w, run, nil)

	if len(positions) == 0 {
		return nil
	}
	fmt.Fprintln(w, "Open Positions")
	fmt.Fprintln(w, "--------------------------------------------------")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOAN\tFUNDED\tMATURES\tFACILITY\tRATE")
	for _, p := range positions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.4f\n",
			p.LoanID,
			p.DateFunded.Format("2006-01-02"),
			p.MaturityDate.Format("2006-01-02"),
			report.Money(p.FacilitySize),
			p.TotalRate,
		)
	}
	return tw.Flush()
}
