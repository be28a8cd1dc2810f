package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/pnl"
)

func TestDrawdown(t *testing.T) {
	t.Parallel()

	pts := Drawdown([]float64{100, 90, 120, 80})
	require.Len(t, pts, 4)

	wantMax := []float64{100, 100, 120, 120}
	wantAmt := []float64{0, 10, 0, 40}
	wantPct := []float64{0, 0.10, 0, 0.3333}
	for i, p := range pts {
		assert.Equal(t, wantMax[i], p.RollMax, "roll max %d", i)
		assert.Equal(t, wantAmt[i], p.DrawdownAmt, "amt %d", i)
		require.True(t, p.DrawdownPct.Valid, "pct %d", i)
		assert.InDelta(t, wantPct[i], p.DrawdownPct.Float64, 1e-4, "pct %d", i)
	}
}

func TestDrawdownUndefinedBeforePeak(t *testing.T) {
	t.Parallel()

	pts := Drawdown([]float64{-5, -10, 0, 3})
	assert.False(t, pts[0].DrawdownPct.Valid)
	assert.False(t, pts[1].DrawdownPct.Valid)
	assert.Equal(t, 5.0, pts[1].DrawdownAmt)
	assert.False(t, pts[2].DrawdownPct.Valid, "zero peak is undefined, not 0%")
	assert.True(t, pts[3].DrawdownPct.Valid)
	assert.Equal(t, 0.0, pts[3].DrawdownPct.Float64)
}

func week(i int) time.Time {
	return time.Date(2021, 12, 20, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i)
}

func sampleRows() []pnl.Row {
	return []pnl.Row{
		{Week: week(0), LoanID: 1, Exposure: 100, Interest: 10, PnL: 10},
		{Week: week(0), LoanID: 2, Exposure: 50, Interest: 5, PnL: 5},
		{Week: week(1), LoanID: 1, Exposure: 100, Interest: 10, PnL: 10},
		{Week: week(1), LoanID: 2, Exposure: 50, Interest: 5, DefaultLoss: 30, PnL: -25, EndedThisWeek: true, EndType: loan.Default},
		{Week: week(2), LoanID: 1, Exposure: 100, Interest: 10, PnL: 10},
		{Week: week(3), LoanID: 1, Exposure: 100, Interest: 10, PnL: 10},
	}
}

func TestWeeklyTotals(t *testing.T) {
	t.Parallel()

	totals := WeeklyTotals(sampleRows())
	require.Len(t, totals, 4)

	assert.Equal(t, week(0), totals[0].Week)
	assert.Equal(t, 15.0, totals[0].PnL)
	assert.Equal(t, 150.0, totals[0].Exposure)
	assert.Equal(t, 15.0, totals[0].CumPnL)

	assert.Equal(t, -15.0, totals[1].PnL)
	assert.Equal(t, 30.0, totals[1].DefaultLoss)
	assert.Equal(t, 0.0, totals[1].CumPnL)
	assert.Equal(t, 15.0, totals[1].RollMax)
	assert.Equal(t, 15.0, totals[1].DrawdownAmt)
	assert.InDelta(t, 1.0, totals[1].DrawdownPct.Float64, 1e-12)

	assert.Equal(t, 20.0, totals[3].CumPnL)
	assert.Equal(t, 20.0, totals[3].RollMax)

	amt, pct := MaxDrawdown(totals)
	assert.Equal(t, 15.0, amt)
	assert.InDelta(t, 1.0, pct.Float64, 1e-12)
}

func TestYearlyAndOverall(t *testing.T) {
	t.Parallel()

	totals := WeeklyTotals(sampleRows())

	a := loan.Position{LoanID: 1, FacilitySize: 100, PD: 0.01, LGD: 0.5, TermYears: 1, SpreadBps: 100, TotalRate: 0.06}
	b := loan.Position{LoanID: 2, FacilitySize: 50, PD: 0.04, LGD: 0.6, TermYears: 4, SpreadBps: 400, TotalRate: 0.09}
	ledger := loan.Ledger{
		a.Transaction(loan.Fund, week(0), 0, 0),
		b.Transaction(loan.Fund, week(0), 0, 0),
		b.Transaction(loan.Default, week(1), 20, 30),
	}

	years := Yearly(totals, ledger)
	require.Len(t, years, 2)

	y21 := years[0]
	assert.Equal(t, 2021, y21.Year)
	assert.Equal(t, 2, y21.Weeks)
	assert.Equal(t, 0.0, y21.TotalPnL)
	assert.Equal(t, 150.0, y21.AvgExposure)
	assert.Equal(t, Some(0), y21.ReturnPct)
	assert.Equal(t, 2, y21.LoansFunded)
	assert.Equal(t, 150.0, y21.FundedAmount)
	assert.InDelta(t, (0.06*100+0.09*50)/150, y21.WATotalRate.Float64, 1e-12)
	assert.InDelta(t, 200.0, y21.WASpreadBps.Float64, 1e-9)
	assert.InDelta(t, 0.02, y21.WAPD.Float64, 1e-12)
	assert.InDelta(t, 2.0, y21.WATermYears.Float64, 1e-12)
	assert.Equal(t, 1, y21.LoansDefaulted)
	assert.InDelta(t, 0.6, y21.AvgLGDOnDefaults.Float64, 1e-12)
	assert.Equal(t, 50.0, y21.DefaultedAmount)
	assert.InDelta(t, 0.5, y21.DefaultRateByCount.Float64, 1e-12)
	assert.InDelta(t, math.Sqrt(450), y21.WeeklyVolatilityPnL.Float64, 1e-9)

	y22 := years[1]
	assert.Equal(t, 2022, y22.Year)
	assert.Equal(t, 20.0, y22.TotalPnL)
	assert.Equal(t, 0, y22.LoansFunded)
	assert.False(t, y22.WATotalRate.Valid)
	assert.False(t, y22.DefaultRateByCount.Valid)
	assert.InDelta(t, 0.2, y22.ReturnPct.Float64, 1e-12)

	overall := OverallStats(totals, ledger)
	assert.Equal(t, 4, overall.Weeks)
	assert.Equal(t, 20.0, overall.TotalPnL)
	assert.Equal(t, 125.0, overall.AvgExposure)
	assert.InDelta(t, 0.16, overall.ReturnPct.Float64, 1e-12)
	assert.Equal(t, 15.0, overall.MaxDrawdownAmt)
	assert.Equal(t, 2, overall.LoansFunded)
}

func TestZeroExposureReturnUndefined(t *testing.T) {
	t.Parallel()

	s := OverallStats(nil, nil)
	assert.False(t, s.ReturnPct.Valid)
	assert.False(t, s.WeeklyVolatilityPnL.Valid)
	assert.False(t, s.MaxDrawdownPct.Valid)
	assert.Equal(t, 0, s.Weeks)
}

func TestNullFloatCSV(t *testing.T) {
	t.Parallel()

	s, err := NullFloat{}.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = Some(0.25).MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "0.25", s)

	var n NullFloat
	require.NoError(t, n.UnmarshalCSV("1.5"))
	assert.Equal(t, Some(1.5), n)
	require.NoError(t, n.UnmarshalCSV(""))
	assert.False(t, n.Valid)
	assert.False(t, Some(math.NaN()).Valid)
}
