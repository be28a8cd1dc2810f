package journal

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/risk"
)

// ErrNoRun is returned when rows are recorded before BeginRun.
var ErrNoRun = errors.New("journal: no run in progress")

// SQLiteJournal stores runs side by side in one database, keyed by run_id.
// Everything recorded between BeginRun and Close is one transaction.
type SQLiteJournal struct {
	db *sql.DB

	tx         *sql.Tx
	runID      string
	seq        int
	insertTx   *sql.Stmt
	insertCash *sql.Stmt
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

// BeginRun starts recording rows for runID.
func (j *SQLiteJournal) BeginRun(runID string) error {
	if j.tx != nil {
		return fmt.Errorf("journal: run %s already in progress", j.runID)
	}
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	insTx, err := tx.Prepare(`
		INSERT INTO transactions
		(run_id, seq, loan_id, date, type, facility_size, pd, lgd, term_years, spread_bps, total_rate, recovery, loss)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	insCash, err := tx.Prepare(`
		INSERT INTO cash_snapshots
		(run_id, week_index, date, index_rate, cash, outstanding, open_positions, interest, recoveries, principal_returned, loss, funded_amount, funded, defaulted, matured)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}

	j.tx = tx
	j.runID = runID
	j.seq = 0
	j.insertTx = insTx
	j.insertCash = insCash
	return nil
}

func (j *SQLiteJournal) RecordTransaction(t loan.Transaction) error {
	if j.tx == nil {
		return ErrNoRun
	}
	j.seq++
	_, err := j.insertTx.Exec(
		j.runID, j.seq, t.LoanID, t.Date.Format(loan.DateLayout), string(t.Type),
		t.FacilitySize, t.PD, t.LGD, t.TermYears, t.SpreadBps, t.TotalRate, t.Recovery, t.Loss,
	)
	return err
}

func (j *SQLiteJournal) RecordCash(s CashSnapshot) error {
	if j.tx == nil {
		return ErrNoRun
	}
	_, err := j.insertCash.Exec(
		j.runID, s.Week, s.Date.Format(loan.DateLayout), s.IndexRate, s.Cash, s.Outstanding,
		s.OpenPositions, s.Interest, s.Recoveries, s.Principal, s.Loss, s.FundedAmount, s.Funded, s.Defaulted, s.Matured,
	)
	return err
}

// WriteResults stores the run row, final positions and weekly totals.
// Per-loan-week rows are not stored; they are rebuilt from the ledger.
func (j *SQLiteJournal) WriteResults(run Run, res Results) error {
	if j.tx == nil {
		return ErrNoRun
	}
	if run.RunID != j.runID {
		return fmt.Errorf("journal: results for run %s, recording %s", run.RunID, j.runID)
	}

	_, err := j.tx.Exec(`
		INSERT INTO runs
		(run_id, created, rates_path, loans_path, seed, config, initial_target, initial_funded,
		 start_date, end_date, weeks, loans_funded, loans_defaulted, loans_matured, open_positions,
		 final_cash, outstanding, total_pnl, return_pct, max_drawdown_amt, max_drawdown_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Created, run.RatesPath, run.LoansPath, run.Seed, run.Config,
		run.InitialTarget, run.InitialFunded,
		run.Start.Format(loan.DateLayout), run.End.Format(loan.DateLayout), run.Weeks,
		run.LoansFunded, run.LoansDefaulted, run.LoansMatured, run.OpenPositions,
		run.FinalCash, run.Outstanding, run.TotalPnL, nullable(run.ReturnPct),
		run.MaxDrawdownAmt, nullable(run.MaxDrawdownPct),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, p := range res.Positions {
		_, err := j.tx.Exec(`
			INSERT INTO positions
			(run_id, loan_id, date_funded, maturity_date, facility_size, pd, lgd, term_years, spread_bps, total_rate)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			j.runID, p.LoanID, p.DateFunded.Format(loan.DateLayout), p.MaturityDate.Format(loan.DateLayout),
			p.FacilitySize, p.PD, p.LGD, p.TermYears, p.SpreadBps, p.TotalRate,
		)
		if err != nil {
			return fmt.Errorf("insert position %d: %w", p.LoanID, err)
		}
	}

	for _, t := range res.Totals {
		_, err := j.tx.Exec(`
			INSERT INTO weekly_totals
			(run_id, week, interest, default_loss, pnl, exposure, cum_pnl, roll_max, drawdown_amt, drawdown_pct)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			j.runID, t.Week.Format(loan.DateLayout), t.Interest, t.DefaultLoss, t.PnL, t.Exposure,
			t.CumPnL, t.RollMax, t.DrawdownAmt, nullable(t.DrawdownPct),
		)
		if err != nil {
			return fmt.Errorf("insert weekly total: %w", err)
		}
	}
	return nil
}

// Abort discards everything recorded since BeginRun.
func (j *SQLiteJournal) Abort() error {
	if j.tx == nil {
		return nil
	}
	err := j.tx.Rollback()
	j.endRun()
	return err
}

// Close commits the run in progress, if any, and closes the database.
func (j *SQLiteJournal) Close() error {
	if j.tx != nil {
		err := j.tx.Commit()
		j.endRun()
		if err != nil {
			j.db.Close()
			return fmt.Errorf("commit run: %w", err)
		}
	}
	return j.db.Close()
}

func (j *SQLiteJournal) endRun() {
	j.insertTx.Close()
	j.insertCash.Close()
	j.tx, j.insertTx, j.insertCash = nil, nil, nil
	j.runID = ""
}

func nullable(n risk.NullFloat) sql.NullFloat64 {
	return sql.NullFloat64{Float64: n.Float64, Valid: n.Valid}
}
