package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/creditsim/config"
	"github.com/rustyeddy/creditsim/inputs"
	"github.com/rustyeddy/creditsim/internal/id"
	"github.com/rustyeddy/creditsim/internal/logger"
	"github.com/rustyeddy/creditsim/journal"
	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/metrics"
	"github.com/rustyeddy/creditsim/pnl"
	"github.com/rustyeddy/creditsim/rates"
	"github.com/rustyeddy/creditsim/report"
	"github.com/rustyeddy/creditsim/risk"
	"github.com/rustyeddy/creditsim/sim"
)

// outcome is everything a finished run produced.
type outcome struct {
	Run     journal.Run
	Results journal.Results
	Metrics *metrics.Recorder
}

// openSink picks the output journal named by the config. A SQLite journal
// comes back with the run already begun.
func openSink(cfg *config.Config, runID string) (journal.Sink, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.OutDir, cfg.Journal.Files)
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, err
		}
		if err := j.BeginRun(runID); err != nil {
			j.Close()
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}

// discardSink drops a failed run. CSV tables are only written on Close, so
// skipping Close leaves nothing behind; SQLite rolls back.
func discardSink(s journal.Sink) {
	if a, ok := s.(interface{ Abort() error }); ok {
		a.Abort()
		s.Close()
	}
}

// derive runs the P&L reconstruction and the aggregator over a ledger.
func derive(ctx context.Context, cal *rates.Calendar, ledger loan.Ledger, positions []loan.Position, weeksPerYear int) (journal.Results, error) {
	rows, err := pnl.Reconstruct(ctx, cal, ledger, weeksPerYear)
	if err != nil {
		return journal.Results{}, fmt.Errorf("reconstruct pnl: %w", err)
	}
	totals := risk.WeeklyTotals(rows)
	return journal.Results{
		Positions: positions,
		Rows:      rows,
		Totals:    totals,
		Yearly:    risk.Yearly(totals, ledger),
		Overall:   risk.OverallStats(totals, ledger),
	}, nil
}

// simulate loads the inputs named by cfg, runs the engine over the whole
// calendar and writes every output table through the configured journal.
func simulate(ctx context.Context, cfg *config.Config) (*outcome, error) {
	log := logger.FromContext(ctx)

	cal, err := inputs.LoadRates(cfg.Inputs.RatesPath)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	templates, err := inputs.LoadTemplates(cfg.Inputs.LoansPath)
	if err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}

	created := time.Now().UTC()
	runID := id.NewRun(created)
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	log.Infow("run starting",
		"run_id", runID,
		"weeks", cal.Len(),
		"templates", len(templates),
		"initial_target", cfg.Simulation.InitialTarget,
		"seed", cfg.Simulation.Seed,
		"journal", cfg.Journal.Type,
	)

	sink, err := openSink(cfg, runID)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}

	engine, err := sim.NewEngine(cfg.Simulation.Engine(), templates, cal, sink)
	if err != nil {
		discardSink(sink)
		return nil, fmt.Errorf("create engine: %w", err)
	}
	engine.SetLogger(log)
	rec := metrics.New()
	engine.SetObserver(rec)

	res, err := engine.Run(ctx)
	if err != nil {
		discardSink(sink)
		return nil, fmt.Errorf("simulate: %w", err)
	}
	if err := sim.CheckConsistency(res.Positions, res.Ledger); err != nil {
		discardSink(sink)
		return nil, err
	}

	results, err := derive(ctx, cal, res.Ledger, res.Positions, cfg.Simulation.WeeksPerYear)
	if err != nil {
		discardSink(sink)
		return nil, err
	}

	run := journal.Run{
		RunID:         runID,
		Created:       created,
		RatesPath:     cfg.Inputs.RatesPath,
		LoansPath:     cfg.Inputs.LoansPath,
		Seed:          cfg.Simulation.Seed,
		Config:        raw,
		InitialTarget: cfg.Simulation.InitialTarget,
		InitialFunded: res.InitialFunded,
		Start:         res.Start,
		End:           res.End,
		Weeks:         res.Weeks,
		FinalCash:     res.Cash,
	}
	report.Fill(&run, res.Ledger, res.Positions, results.Overall)

	if err := sink.WriteResults(run, results); err != nil {
		discardSink(sink)
		return nil, fmt.Errorf("write results: %w", err)
	}
	if err := sink.Close(); err != nil {
		return nil, fmt.Errorf("close journal: %w", err)
	}

	log.Infow("run complete",
		"run_id", runID,
		"loans_funded", run.LoansFunded,
		"loans_defaulted", run.LoansDefaulted,
		"total_pnl", run.TotalPnL,
	)
	return &outcome{Run: run, Results: results, Metrics: rec}, nil
}

// replaySource names where a stored ledger comes from: a run in a SQLite
// journal, or a transactions CSV.
type replaySource struct {
	DBPath     string
	RunID      string
	LedgerPath string
}

var (
	errNoSource    = errors.New("replay needs either --ledger or --db with --run-id")
	errOffCalendar = errors.New("ledger date is not a calendar week")
)

// checkOnCalendar rejects a ledger recorded against a different rate
// calendar; every row must fall on one of its weeks.
func checkOnCalendar(cal *rates.Calendar, ledger loan.Ledger) error {
	for _, tx := range ledger {
		if cal.Index(tx.Date) < 0 {
			return fmt.Errorf("loan %d %s on %s: %w", tx.LoanID, tx.Type, tx.Date.Format("2006-01-02"), errOffCalendar)
		}
	}
	return nil
}

// loadLedger reads the stored ledger, and the stored run record when the
// source is a SQLite journal.
func loadLedger(ctx context.Context, src replaySource) (loan.Ledger, *journal.Run, []journal.CashSnapshot, error) {
	switch {
	case src.LedgerPath != "":
		ledger, err := journal.ReadLedgerCSV(src.LedgerPath)
		return ledger, nil, nil, err
	case src.DBPath != "" && src.RunID != "":
		if _, err := id.Started(src.RunID); err != nil {
			return nil, nil, nil, err
		}
		j, err := journal.NewSQLite(src.DBPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open db: %w", err)
		}
		defer j.Close()
		run, err := j.GetRun(ctx, src.RunID)
		if err != nil {
			return nil, nil, nil, err
		}
		ledger, err := j.ListTransactions(ctx, src.RunID)
		if err != nil {
			return nil, nil, nil, err
		}
		cash, err := j.ListCash(ctx, src.RunID)
		if err != nil {
			return nil, nil, nil, err
		}
		return ledger, &run, cash, nil
	default:
		return nil, nil, nil, errNoSource
	}
}

// replay rebuilds every derived table from a stored ledger and the rate
// calendar alone and writes them as CSV under outDir.
func replay(ctx context.Context, src replaySource, ratesPath, outDir string, yearDays, weeksPerYear int) (*outcome, error) {
	log := logger.FromContext(ctx)

	cal, err := inputs.LoadRates(ratesPath)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	ledger, stored, cash, err := loadLedger(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if len(ledger) == 0 {
		return nil, fmt.Errorf("load ledger: %w", inputs.ErrEmptyDataset)
	}

	if err := checkOnCalendar(cal, ledger); err != nil {
		return nil, err
	}
	positions := ledger.OpenPositions(yearDays)
	if err := sim.CheckConsistency(positions, ledger); err != nil {
		return nil, err
	}
	results, err := derive(ctx, cal, ledger, positions, weeksPerYear)
	if err != nil {
		return nil, err
	}

	run := journal.Run{
		RunID:     src.RunID,
		Created:   time.Now().UTC(),
		RatesPath: ratesPath,
		Start:     cal.First().Date,
		End:       cal.Last().Date,
		Weeks:     cal.Len(),
	}
	if stored != nil {
		run.LoansPath = stored.LoansPath
		run.Seed = stored.Seed
		run.Config = stored.Config
		run.InitialTarget = stored.InitialTarget
		run.InitialFunded = stored.InitialFunded
		run.FinalCash = stored.FinalCash
	}
	if run.RunID == "" {
		run.RunID = id.NewRun(run.Created)
	}
	report.Fill(&run, ledger, positions, results.Overall)

	if stored != nil && !sameMoney(stored.TotalPnL, run.TotalPnL) {
		log.Warnw("replayed P&L differs from stored run",
			"run_id", stored.RunID,
			"stored_total_pnl", stored.TotalPnL,
			"replayed_total_pnl", run.TotalPnL,
		)
	}

	out, err := journal.NewCSV(outDir, journal.DefaultFiles())
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	for _, tx := range ledger {
		if err := out.RecordTransaction(tx); err != nil {
			return nil, err
		}
	}
	for _, s := range cash {
		if err := out.RecordCash(s); err != nil {
			return nil, err
		}
	}
	if err := out.WriteResults(run, results); err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close journal: %w", err)
	}

	log.Infow("replay complete",
		"run_id", run.RunID,
		"ledger_rows", len(ledger),
		"out_dir", outDir,
	)
	return &outcome{Run: run, Results: results}, nil
}

func sameMoney(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(a))
}
