package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/creditsim/journal"
	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/rates"
	"github.com/rustyeddy/creditsim/sim"
)

func TestOnWeek(t *testing.T) {
	t.Parallel()

	r := New()
	r.OnWeek(sim.WeekReport{
		Week:          0,
		Funded:        []loan.Position{{LoanID: 1}, {LoanID: 2}},
		Cash:          0,
		Outstanding:   30,
		OpenPositions: 2,
	})
	r.OnWeek(sim.WeekReport{
		Week:          1,
		Interest:      1.5,
		Defaults:      []loan.Transaction{{LoanID: 1, Type: loan.Default}},
		Loss:          4,
		Funded:        []loan.Position{{LoanID: 3}},
		Cash:          0.5,
		Outstanding:   27,
		OpenPositions: 2,
	})

	assert.Equal(t, 3.0, testutil.ToFloat64(r.LoansFunded))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.LoansDefaulted))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.LoansMatured))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.InterestCollected))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.DefaultLoss))
	assert.Equal(t, 0.5, testutil.ToFloat64(r.Cash))
	assert.Equal(t, 27.0, testutil.ToFloat64(r.Outstanding))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.OpenPositions))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.WeeksSimulated))
}

func TestRecordersDoNotShareState(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.OnWeek(sim.WeekReport{Funded: []loan.Position{{LoanID: 1}}})
	assert.Equal(t, 1.0, testutil.ToFloat64(a.LoansFunded))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LoansFunded))
}

func TestWriteTextfileFromEngine(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	obs := make([]rates.Observation, 60)
	for i := range obs {
		obs[i] = rates.Observation{Date: t0.AddDate(0, 0, 7*i), Rate: 0.02}
	}
	cal, err := rates.New(obs)
	require.NoError(t, err)

	tpls := []loan.Template{
		{FacilitySize: 10e6, PD: 0.3, LGD: 0.5, TermYears: 0.5, SpreadBps: 400},
		{FacilitySize: 15e6, PD: 0.05, LGD: 0.4, TermYears: 1, SpreadBps: 250},
	}
	cfg := sim.DefaultConfig()
	e, err := sim.NewEngine(cfg, tpls, cal, journal.Discard)
	require.NoError(t, err)

	r := New()
	e.SetObserver(r)
	res, err := e.Run(context.Background())
	require.NoError(t, err)

	funds := len(res.Ledger.Filter(loan.Fund))
	assert.Equal(t, float64(funds), testutil.ToFloat64(r.LoansFunded))
	assert.Equal(t, float64(len(res.Ledger.Filter(loan.Default))), testutil.ToFloat64(r.LoansDefaulted))
	assert.Equal(t, float64(len(res.Ledger.Filter(loan.Mature))), testutil.ToFloat64(r.LoansMatured))
	assert.InDelta(t, res.CumInterest, testutil.ToFloat64(r.InterestCollected), 1e-6)
	assert.InDelta(t, res.CumLoss, testutil.ToFloat64(r.DefaultLoss), 1e-6)
	assert.Equal(t, 60.0, testutil.ToFloat64(r.WeeksSimulated))
	assert.Equal(t, float64(len(res.Positions)), testutil.ToFloat64(r.OpenPositions))

	path := filepath.Join(t.TempDir(), "creditsim.prom")
	require.NoError(t, r.WriteTextfile(path))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "creditsim_loans_funded_total")
	assert.Contains(t, string(body), "# TYPE creditsim_outstanding_facility gauge")
}
