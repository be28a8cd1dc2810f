// Package journal persists a simulation run: the transaction ledger and cash
// books as the engine produces them, then the derived P&L and risk tables.
package journal

import (
	"time"

	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/pnl"
	"github.com/rustyeddy/creditsim/risk"
)

// CashSnapshot is the engine's books at the end of one simulated week.
// Week 0 is the initial deployment.
type CashSnapshot struct {
	Week          int
	Date          time.Time
	IndexRate     float64
	Cash          float64
	Outstanding   float64
	OpenPositions int
	Interest      float64
	Recoveries    float64
	Principal     float64
	Loss          float64
	FundedAmount  float64
	Funded        int
	Defaulted     int
	Matured       int
}

// Run describes one simulation run.
type Run struct {
	RunID     string
	Created   time.Time
	RatesPath string
	LoansPath string
	Seed      int64
	Config    []byte

	InitialTarget float64
	InitialFunded float64
	Start         time.Time
	End           time.Time
	Weeks         int

	LoansFunded    int
	LoansDefaulted int
	LoansMatured   int
	OpenPositions  int

	FinalCash      float64
	Outstanding    float64
	TotalPnL       float64
	ReturnPct      risk.NullFloat
	MaxDrawdownAmt float64
	MaxDrawdownPct risk.NullFloat
}

// Results is everything derived after the engine finishes.
type Results struct {
	Positions []loan.Position
	Rows      []pnl.Row
	Totals    []risk.WeekTotal
	Yearly    []risk.YearStats
	Overall   risk.Overall
}

// Journal receives ledger rows and cash books while the engine runs.
type Journal interface {
	RecordTransaction(loan.Transaction) error
	RecordCash(CashSnapshot) error
	Close() error
}

// Sink is a Journal that also stores the derived results of a run.
type Sink interface {
	Journal
	WriteResults(Run, Results) error
}

// Discard is a Journal that drops everything.
var Discard Journal = discard{}

type discard struct{}

func (discard) RecordTransaction(loan.Transaction) error { return nil }
func (discard) RecordCash(CashSnapshot) error            { return nil }
func (discard) Close() error                             { return nil }
