package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/risk"
)

const runColumns = `run_id, created, rates_path, loans_path, seed, config, initial_target, initial_funded,
	start_date, end_date, weeks, loans_funded, loans_defaulted, loans_matured, open_positions,
	final_cash, outstanding, total_pnl, return_pct, max_drawdown_amt, max_drawdown_pct`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run        Run
		start, end string
		ret, mdd   sql.NullFloat64
	)
	err := s.Scan(
		&run.RunID, &run.Created, &run.RatesPath, &run.LoansPath, &run.Seed, &run.Config,
		&run.InitialTarget, &run.InitialFunded, &start, &end, &run.Weeks,
		&run.LoansFunded, &run.LoansDefaulted, &run.LoansMatured, &run.OpenPositions,
		&run.FinalCash, &run.Outstanding, &run.TotalPnL, &ret, &run.MaxDrawdownAmt, &mdd,
	)
	if err != nil {
		return Run{}, err
	}
	if run.Start, err = parseDay(start); err != nil {
		return Run{}, err
	}
	if run.End, err = parseDay(end); err != nil {
		return Run{}, err
	}
	run.ReturnPct = fromNullable(ret)
	run.MaxDrawdownPct = fromNullable(mdd)
	return run, nil
}

// GetRun returns a single run by ID.
func (j *SQLiteJournal) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns all stored runs, newest first.
func (j *SQLiteJournal) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTransactions returns the ledger of a run in emission order.
func (j *SQLiteJournal) ListTransactions(ctx context.Context, runID string) (loan.Ledger, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT loan_id, date, type, facility_size, pd, lgd, term_years, spread_bps, total_rate, recovery, loss
		FROM transactions
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out loan.Ledger
	for rows.Next() {
		var (
			tx        loan.Transaction
			date, typ string
		)
		if err := rows.Scan(
			&tx.LoanID, &date, &typ, &tx.FacilitySize, &tx.PD, &tx.LGD,
			&tx.TermYears, &tx.SpreadBps, &tx.TotalRate, &tx.Recovery, &tx.Loss,
		); err != nil {
			return nil, err
		}
		if tx.Date, err = parseDay(date); err != nil {
			return nil, err
		}
		if tx.Type, err = loan.ParseTxType(typ); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCash returns the cash books of a run by week index.
func (j *SQLiteJournal) ListCash(ctx context.Context, runID string) ([]CashSnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT week_index, date, index_rate, cash, outstanding, open_positions, interest,
		       recoveries, principal_returned, loss, funded_amount, funded, defaulted, matured
		FROM cash_snapshots
		WHERE run_id = ?
		ORDER BY week_index ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CashSnapshot
	for rows.Next() {
		var (
			s    CashSnapshot
			date string
		)
		if err := rows.Scan(
			&s.Week, &date, &s.IndexRate, &s.Cash, &s.Outstanding, &s.OpenPositions, &s.Interest,
			&s.Recoveries, &s.Principal, &s.Loss, &s.FundedAmount, &s.Funded, &s.Defaulted, &s.Matured,
		); err != nil {
			return nil, err
		}
		if s.Date, err = parseDay(date); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPositions returns the open positions stored at the end of a run.
func (j *SQLiteJournal) ListPositions(ctx context.Context, runID string) ([]loan.Position, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT loan_id, date_funded, maturity_date, facility_size, pd, lgd, term_years, spread_bps, total_rate
		FROM positions
		WHERE run_id = ?
		ORDER BY loan_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []loan.Position
	for rows.Next() {
		var (
			p                loan.Position
			funded, maturity string
		)
		if err := rows.Scan(
			&p.LoanID, &funded, &maturity, &p.FacilitySize, &p.PD, &p.LGD,
			&p.TermYears, &p.SpreadBps, &p.TotalRate,
		); err != nil {
			return nil, err
		}
		if p.DateFunded, err = parseDay(funded); err != nil {
			return nil, err
		}
		if p.MaturityDate, err = parseDay(maturity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(loan.DateLayout, s)
}

func fromNullable(n sql.NullFloat64) risk.NullFloat {
	if !n.Valid {
		return risk.NullFloat{}
	}
	return risk.Some(n.Float64)
}
