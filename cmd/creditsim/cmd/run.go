package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/creditsim/config"
	"github.com/rustyeddy/creditsim/internal/logger"
	"github.com/rustyeddy/creditsim/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a portfolio over a rate calendar",
	Long: `Deploy an initial book from the loan template pool and roll it forward one
week at a time over the rate calendar, then rebuild weekly P&L and write every
output table.

Settings come from the config file when one is given; flags override it.

Examples:
  creditsim run --rates effr.csv --loans loans.csv --out ./out
  creditsim run -f simulation.yaml --seed 11`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runConfigPath string
	runRates      string
	runLoans      string
	runOut        string
	runDB         string
	runSeed       int64
	runTarget     float64
	runMetrics    string
	runOrg        string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().StringVar(&runRates, "rates", "", "rate calendar CSV")
	runCmd.Flags().StringVar(&runLoans, "loans", "", "loan template CSV")
	runCmd.Flags().StringVar(&runOut, "out", "", "CSV output directory")
	runCmd.Flags().StringVar(&runDB, "db", "", "write to this SQLite journal instead of CSV")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "random seed")
	runCmd.Flags().Float64Var(&runTarget, "target", 0, "initial deployment target")
	runCmd.Flags().StringVar(&runMetrics, "metrics", "", "write Prometheus metrics to this textfile")
	runCmd.Flags().StringVar(&runOrg, "org", "", "write an Org-mode run report to this file")
}

// applyRunFlags overrides cfg with every flag set on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("rates") {
		cfg.Inputs.RatesPath = runRates
	}
	if f.Changed("loans") {
		cfg.Inputs.LoansPath = runLoans
	}
	if f.Changed("out") {
		cfg.Journal.Type = "csv"
		cfg.Journal.OutDir = runOut
	}
	if f.Changed("db") {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = runDB
	}
	if f.Changed("seed") {
		cfg.Simulation.Seed = runSeed
	}
	if f.Changed("target") {
		cfg.Simulation.InitialTarget = runTarget
	}
	if f.Changed("metrics") {
		cfg.Metrics.TextfilePath = runMetrics
	}
	if f.Changed("org") {
		cfg.Report.OrgPath = runOrg
	}
	if f.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		var err error
		cfg, err = config.LoadFromFile(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := useLogLevel(cmd, cfg.Log.Level); err != nil {
		return err
	}

	out, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := out.Metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			return err
		}
	}
	if cfg.Report.OrgPath != "" {
		org := &report.OrgReport{
			Run:     out.Run,
			Yearly:  out.Results.Yearly,
			Overall: out.Results.Overall,
		}
		if cfg.Journal.Type == "csv" {
			org.OutDir = cfg.Journal.OutDir
		}
		if err := org.WriteOrg(cfg.Report.OrgPath); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}

	w := cmd.OutOrStdout()
	report.PrintRun(w, out.Run, out.Results.Yearly)
	if cfg.Journal.Type == "csv" {
		fmt.Fprintf(w, "Results saved to: %s\n", cfg.Journal.OutDir)
	} else {
		fmt.Fprintf(w, "Results saved to: %s (run %s)\n", cfg.Journal.DBPath, out.Run.RunID)
	}
	return nil
}

// useLogLevel swaps the command's logger when the config asks for a level
// other than the --log-level one. The replacement lives on cmd's context so
// the root PersistentPostRun syncs it.
func useLogLevel(cmd *cobra.Command, level string) error {
	if level == logLevel {
		return nil
	}
	l, err := logger.New(level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	_ = logger.FromContext(cmd.Context()).Sync()
	cmd.SetContext(logger.WithContext(cmd.Context(), l))
	return nil
}
