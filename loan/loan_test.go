package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition(t *testing.T) {
	t.Parallel()

	funded := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)
	tmpl := Template{FacilitySize: 40e6, PD: 0.01, LGD: 0.3, TermYears: 1.5, SpreadBps: 200}

	p := NewPosition(7, tmpl, funded, 0.05, 365)

	assert.Equal(t, int64(7), p.LoanID)
	assert.InDelta(t, 0.07, p.TotalRate, 1e-12)
	// 1.5 * 365 = 547.5, rounds to 548
	assert.Equal(t, funded.AddDate(0, 0, 548), p.MaturityDate)
	assert.False(t, p.Matured(funded.AddDate(0, 0, 547)))
	assert.True(t, p.Matured(funded.AddDate(0, 0, 548)))
}

func TestWeeklyInterest(t *testing.T) {
	t.Parallel()

	p := Position{FacilitySize: 10_000_000, TotalRate: 0.06}
	assert.InDelta(t, 11538.461538461539, p.WeeklyInterest(52), 1e-6)
}

func TestMaturityDateRounding(t *testing.T) {
	t.Parallel()

	d := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, d.AddDate(0, 0, 365), MaturityDate(d, 1, 365))
	assert.Equal(t, d.AddDate(0, 0, 91), MaturityDate(d, 0.25, 365)) // 91.25
	assert.Equal(t, d.AddDate(0, 0, 182), MaturityDate(d, 0.5, 365)) // 182.5 rounds to even
}

func TestLedgerAppendFilter(t *testing.T) {
	t.Parallel()

	var l Ledger
	p := Position{LoanID: 1, FacilitySize: 5}
	d := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Append(p.Transaction(Fund, d, 0, 0))
	l.Append(p.Transaction(Default, d.AddDate(0, 0, 7), 3, 2))

	require.Len(t, l, 2)
	assert.Len(t, l.Filter(Fund), 1)
	def := l.Filter(Default)
	require.Len(t, def, 1)
	assert.Equal(t, 2.0, def[0].Loss)
	assert.True(t, def[0].Type.Terminal())
	assert.False(t, Fund.Terminal())
}

func TestParseTxType(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"FUND", "DEFAULT", "MATURE"} {
		typ, err := ParseTxType(s)
		assert.NoError(t, err)
		assert.Equal(t, TxType(s), typ)
	}
	_, err := ParseTxType("fund")
	assert.Error(t, err)
}

func TestLedgerLifecycles(t *testing.T) {
	t.Parallel()

	d0 := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	d1 := d0.AddDate(0, 0, 7)
	d2 := d0.AddDate(0, 0, 14)

	a := Position{LoanID: 2, FacilitySize: 10}
	b := Position{LoanID: 1, FacilitySize: 20}
	orphan := Position{LoanID: 3, FacilitySize: 30}

	l := Ledger{
		a.Transaction(Fund, d0, 0, 0),
		b.Transaction(Fund, d0, 0, 0),
		a.Transaction(Mature, d2, 10, 0),
		a.Transaction(Default, d1, 7, 3),
		orphan.Transaction(Default, d1, 21, 9),
	}

	lcs := l.Lifecycles()
	require.Len(t, lcs, 2)

	assert.Equal(t, int64(1), lcs[0].Fund.LoanID)
	assert.True(t, lcs[0].Open())

	assert.Equal(t, int64(2), lcs[1].Fund.LoanID)
	require.NotNil(t, lcs[1].End)
	assert.Equal(t, Default, lcs[1].End.Type)
	assert.Equal(t, d1, lcs[1].End.Date)
	assert.Equal(t, 2, lcs[1].Ends)
	assert.Equal(t, 1, lcs[1].Funds)
}

func TestLedgerOpenPositions(t *testing.T) {
	t.Parallel()

	d0 := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	tpl := Template{FacilitySize: 5e6, PD: 0.02, LGD: 0.4, TermYears: 0.5, SpreadBps: 300}
	live := NewPosition(4, tpl, d0, 0.01, 365)
	gone := NewPosition(2, tpl, d0, 0.01, 365)

	l := Ledger{
		live.Transaction(Fund, d0, 0, 0),
		gone.Transaction(Fund, d0, 0, 0),
		gone.Transaction(Mature, gone.MaturityDate, gone.FacilitySize, 0),
	}

	got := l.OpenPositions(365)
	require.Len(t, got, 1)
	assert.Equal(t, live, got[0])
	assert.Empty(t, Ledger{}.OpenPositions(365))
}
