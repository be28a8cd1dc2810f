// Package pnl rebuilds per-loan, per-week cashflows from the transaction
// ledger and the rate calendar alone. It never looks at engine state, so a
// stored ledger can be replayed and checked independently of the run that
// produced it.
package pnl

import (
	"context"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/rates"
)

// Row is one loan's cashflow for one calendar week.
type Row struct {
	Week          time.Time
	LoanID        int64
	Exposure      float64
	Interest      float64
	DefaultLoss   float64
	PnL           float64
	EndedThisWeek bool
	EndType       loan.TxType
}

// Reconstruct emits a row for every calendar week a loan is live, from its
// funding week through its terminal week (or the last calendar week if it
// is still open). The full facility counts as exposure in every live week;
// default loss is booked only in the default week. Loans are processed
// concurrently; the result is ordered by (week, loan_id).
func Reconstruct(ctx context.Context, cal *rates.Calendar, ledger loan.Ledger, weeksPerYear int) ([]Row, error) {
	if cal == nil || cal.Len() == 0 || len(ledger) == 0 {
		return nil, nil
	}
	if weeksPerYear <= 0 {
		weeksPerYear = 52
	}

	weeks := cal.Dates()
	lcs := ledger.Lifecycles()
	perLoan := make([][]Row, len(lcs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range lcs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perLoan[i] = loanRows(weeks, lcs[i], weeksPerYear)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := 0
	for _, rows := range perLoan {
		n += len(rows)
	}
	out := make([]Row, 0, n)
	for _, rows := range perLoan {
		out = append(out, rows...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Week.Equal(out[j].Week) {
			return out[i].Week.Before(out[j].Week)
		}
		return out[i].LoanID < out[j].LoanID
	})
	return out, nil
}

func loanRows(weeks []time.Time, lc loan.Lifecycle, weeksPerYear int) []Row {
	fund := lc.Fund
	last := weeks[len(weeks)-1]
	var endType loan.TxType
	if lc.End != nil {
		last = lc.End.Date
		endType = lc.End.Type
	}

	start := sort.Search(len(weeks), func(i int) bool {
		return !weeks[i].Before(fund.Date)
	})

	var rows []Row
	for _, w := range weeks[start:] {
		if w.After(last) {
			break
		}
		r := Row{
			Week:     w,
			LoanID:   fund.LoanID,
			Exposure: fund.FacilitySize,
		}
		r.Interest = r.Exposure * fund.TotalRate / float64(weeksPerYear)
		if lc.End != nil && w.Equal(lc.End.Date) {
			r.EndedThisWeek = true
			r.EndType = endType
			if endType == loan.Default {
				r.DefaultLoss = fund.LGD * r.Exposure
			}
		}
		r.PnL = r.Interest - r.DefaultLoss
		rows = append(rows, r)
	}
	return rows
}
