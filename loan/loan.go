// Package loan holds the value types shared by the simulator: the fundable
// loan templates, open positions and the append-only transaction ledger.
package loan

import (
	"math"
	"time"
)

// DateLayout is the calendar-date layout used in every tabular output.
const DateLayout = "2006-01-02"

// Template is an immutable archetype of a fundable loan. The same template
// may fund any number of positions.
type Template struct {
	FacilitySize float64
	PD           float64
	LGD          float64
	TermYears    float64
	SpreadBps    float64
}

// TotalRate is the fixed coupon of a loan funded at the given index rate
// (decimal, 0.05 = 5%).
func (t Template) TotalRate(indexRate float64) float64 {
	return indexRate + t.SpreadBps/10_000.0
}

// Position is an open loan.
type Position struct {
	LoanID       int64
	FacilitySize float64
	PD           float64
	LGD          float64
	TermYears    float64
	SpreadBps    float64
	TotalRate    float64
	DateFunded   time.Time
	MaturityDate time.Time
}

// NewPosition funds template t on date at the given index rate.
func NewPosition(id int64, t Template, date time.Time, indexRate float64, yearDays int) Position {
	return Position{
		LoanID:       id,
		FacilitySize: t.FacilitySize,
		PD:           t.PD,
		LGD:          t.LGD,
		TermYears:    t.TermYears,
		SpreadBps:    t.SpreadBps,
		TotalRate:    t.TotalRate(indexRate),
		DateFunded:   date,
		MaturityDate: MaturityDate(date, t.TermYears, yearDays),
	}
}

// MaturityDate is date plus termYears*yearDays calendar days, rounded half
// to even.
func MaturityDate(date time.Time, termYears float64, yearDays int) time.Time {
	days := int(math.RoundToEven(termYears * float64(yearDays)))
	return date.AddDate(0, 0, days)
}

// WeeklyInterest is one week of coupon on the full facility.
func (p Position) WeeklyInterest(weeksPerYear int) float64 {
	return p.FacilitySize * p.TotalRate / float64(weeksPerYear)
}

// Matured reports whether p has reached maturity on date.
func (p Position) Matured(date time.Time) bool {
	return !p.MaturityDate.After(date)
}

// Transaction builds a ledger row for p.
func (p Position) Transaction(typ TxType, date time.Time, recovery, loss float64) Transaction {
	return Transaction{
		LoanID:       p.LoanID,
		Date:         date,
		Type:         typ,
		FacilitySize: p.FacilitySize,
		PD:           p.PD,
		LGD:          p.LGD,
		TermYears:    p.TermYears,
		SpreadBps:    p.SpreadBps,
		TotalRate:    p.TotalRate,
		Recovery:     recovery,
		Loss:         loss,
	}
}

// TotalFacility sums facility sizes.
func TotalFacility(ps []Position) float64 {
	var sum float64
	for _, p := range ps {
		sum += p.FacilitySize
	}
	return sum
}
