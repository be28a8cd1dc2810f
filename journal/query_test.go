package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/pnl"
	"github.com/rustyeddy/creditsim/risk"
)

func TestSQLiteRunRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, path := newTestSQLite(t)
	require.NoError(t, j.BeginRun("01RUN"))

	p := samplePosition()
	ledger := loan.Ledger{
		p.Transaction(loan.Fund, d0, 0, 0),
		{LoanID: 2, Date: d0, Type: loan.Fund, FacilitySize: 5, LGD: 1, TermYears: 1, TotalRate: 0.05},
		{LoanID: 2, Date: d1, Type: loan.Default, FacilitySize: 5, LGD: 1, TermYears: 1, TotalRate: 0.05, Loss: 5},
	}
	for _, tx := range ledger {
		require.NoError(t, j.RecordTransaction(tx))
	}
	snaps := []CashSnapshot{
		{Week: 0, Date: d0, IndexRate: 0.0533, Outstanding: 10_000_005, OpenPositions: 2, Funded: 2, FundedAmount: 10_000_005},
		{Week: 1, Date: d1, IndexRate: 0.0533, Cash: 15_057.69, Outstanding: 10_000_000, OpenPositions: 1, Interest: 15_057.69, Loss: 5, Defaulted: 1},
	}
	for _, s := range snaps {
		require.NoError(t, j.RecordCash(s))
	}

	rows := []pnl.Row{{Week: d0, LoanID: 1, Exposure: 10, Interest: 1, PnL: 1}}
	totals := risk.WeeklyTotals(rows)
	run := Run{
		RunID:          "01RUN",
		Created:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		RatesPath:      "rates.csv",
		LoansPath:      "loans.csv",
		Seed:           7,
		Config:         []byte("seed: 7\n"),
		InitialTarget:  100_000_000,
		InitialFunded:  10_000_005,
		Start:          d0,
		End:            d1,
		Weeks:          2,
		LoansFunded:    2,
		LoansDefaulted: 1,
		OpenPositions:  1,
		FinalCash:      15_057.69,
		Outstanding:    10_000_000,
		TotalPnL:       1,
		ReturnPct:      risk.Some(0.1),
	}
	require.NoError(t, j.WriteResults(run, Results{Positions: []loan.Position{p}, Totals: totals}))
	require.NoError(t, j.Close())

	r, err := NewSQLite(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.GetRun(ctx, "01RUN")
	require.NoError(t, err)
	assert.Equal(t, "rates.csv", got.RatesPath)
	assert.Equal(t, int64(7), got.Seed)
	assert.Equal(t, []byte("seed: 7\n"), got.Config)
	assert.True(t, got.Start.Equal(d0))
	assert.True(t, got.End.Equal(d1))
	assert.True(t, got.Created.Equal(run.Created))
	assert.Equal(t, risk.Some(0.1), got.ReturnPct)
	assert.False(t, got.MaxDrawdownPct.Valid)

	runs, err := r.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "01RUN", runs[0].RunID)

	gotLedger, err := r.ListTransactions(ctx, "01RUN")
	require.NoError(t, err)
	assert.Equal(t, ledger, gotLedger)

	gotCash, err := r.ListCash(ctx, "01RUN")
	require.NoError(t, err)
	require.Len(t, gotCash, 2)
	assert.Equal(t, 1, gotCash[1].Defaulted)
	assert.InDelta(t, 15_057.69, gotCash[1].Cash, 1e-9)

	pos, err := r.ListPositions(ctx, "01RUN")
	require.NoError(t, err)
	require.Len(t, pos, 1)
	assert.Equal(t, p, pos[0])
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetRun(context.Background(), "missing")
	assert.ErrorContains(t, err, `run "missing" not found`)
}
