package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/creditsim/journal"
	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/risk"
)

func TestMoney(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		0:               "0.00",
		12.345:          "12.35",
		999.9:           "999.90",
		1000:            "1,000.00",
		100_000_000:     "100,000,000.00",
		-1_234_567.891:  "-1,234,567.89",
		-36:             "-36.00",
		123_456.0000001: "123,456.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, Money(in), "%v", in)
	}
}

func TestPct(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "n/a", Pct(risk.NullFloat{}))
	assert.Equal(t, "16.00%", Pct(risk.Some(0.16)))
	assert.Equal(t, "-2.50%", Pct(risk.Some(-0.025)))
}

func sampleRun() journal.Run {
	d := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	return journal.Run{
		RunID:         "01HZZZ",
		RatesPath:     "effr.csv",
		LoansPath:     "loans.csv",
		Seed:          7,
		InitialTarget: 100e6,
		InitialFunded: 95e6,
		Start:         d,
		End:           d.AddDate(0, 0, 7*52),
		Weeks:         53,
	}
}

func TestFill(t *testing.T) {
	t.Parallel()

	d := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	a := loan.Position{LoanID: 1, FacilitySize: 10, DateFunded: d}
	b := loan.Position{LoanID: 2, FacilitySize: 20, DateFunded: d}
	c := loan.Position{LoanID: 3, FacilitySize: 5, DateFunded: d}
	ledger := loan.Ledger{
		a.Transaction(loan.Fund, d, 0, 0),
		b.Transaction(loan.Fund, d, 0, 0),
		c.Transaction(loan.Fund, d, 0, 0),
		a.Transaction(loan.Default, d.AddDate(0, 0, 7), 6, 4),
		c.Transaction(loan.Mature, d.AddDate(0, 0, 14), 5, 0),
	}
	overall := risk.Overall{MaxDrawdownAmt: 4, MaxDrawdownPct: risk.Some(0.5)}
	overall.TotalPnL = 12
	overall.ReturnPct = risk.Some(0.1)

	run := sampleRun()
	Fill(&run, ledger, []loan.Position{b}, overall)

	assert.Equal(t, 3, run.LoansFunded)
	assert.Equal(t, 1, run.LoansDefaulted)
	assert.Equal(t, 1, run.LoansMatured)
	assert.Equal(t, 1, run.OpenPositions)
	assert.Equal(t, 20.0, run.Outstanding)
	assert.Equal(t, 12.0, run.TotalPnL)
	assert.Equal(t, risk.Some(0.1), run.ReturnPct)
	assert.Equal(t, risk.Some(0.5), run.MaxDrawdownPct)
	assert.Equal(t, "01HZZZ", run.RunID, "identity fields untouched")
}

func TestPrintRun(t *testing.T) {
	t.Parallel()

	run := sampleRun()
	run.TotalPnL = 1_500_000
	run.ReturnPct = risk.Some(0.0312)

	yearly := []risk.YearStats{{Year: 2022}}
	yearly[0].TotalPnL = 1_500_000

	var buf bytes.Buffer
	PrintRun(&buf, run, yearly)
	out := buf.String()

	assert.Contains(t, out, "Run ID:        01HZZZ")
	assert.Contains(t, out, "Start:         2022-01-03")
	assert.Contains(t, out, "Target:        100,000,000.00")
	assert.Contains(t, out, "Total P&L:     1,500,000.00")
	assert.Contains(t, out, "Return:        3.12%")
	assert.Contains(t, out, "Max Drawdown:  0.00 (n/a)")
	assert.Contains(t, out, "2022  P&L 1,500,000.00  return n/a  defaults 0")
}

func TestWriteOrg(t *testing.T) {
	t.Parallel()

	run := sampleRun()
	run.Config = []byte("simulation:\n  seed: 7")
	o := &OrgReport{
		Run:    run,
		Yearly: []risk.YearStats{{Year: 2022}, {Year: 2023}},
		OutDir: "out",
		Notes:  []string{"flat rates"},
	}
	o.Overall.TotalInterest = 2500

	path := filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, o.WriteOrg(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)

	assert.Contains(t, out, "* RUN: revolving book 2022-01-03 to 2023-01-02")
	assert.Contains(t, out, ":RUN_ID:      01HZZZ")
	assert.Contains(t, out, "| Initial target | 100,000,000.00 |")
	assert.Contains(t, out, "seed: 7")
	assert.Contains(t, out, "- Total interest:   *2,500.00*")
	assert.Contains(t, out, "| 2023 | 0.00 | n/a | 0 | 0 |")
	assert.Contains(t, out, "[[file:out]]")
	assert.Contains(t, out, "- flat rates")
}
