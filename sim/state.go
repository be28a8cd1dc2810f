package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/rustyeddy/creditsim/loan"
)

// MaxPD caps annual default probability so the weekly hazard stays finite.
const MaxPD = 0.999999

// State is the simulation context threaded through each weekly step. The
// engine owns it; steps mutate Cash, Positions and Ledger in place.
type State struct {
	Week      int
	Date      time.Time
	IndexRate float64

	Cash      float64
	Positions []loan.Position
	Ledger    loan.Ledger

	InitialFunded float64
	CumInterest   float64
	CumLoss       float64

	nextID int64
}

func newState() *State {
	return &State{nextID: 1}
}

// Outstanding is the facility sum of the open positions.
func (s *State) Outstanding() float64 {
	return loan.TotalFacility(s.Positions)
}

// Imbalance is how far the books are from conservation:
// outstanding + cash = initial funded + cumulative interest - cumulative loss.
func (s *State) Imbalance() float64 {
	return s.Outstanding() + s.Cash - (s.InitialFunded + s.CumInterest - s.CumLoss)
}

// NextLoanID is the ID the next funded position will receive.
func (s *State) NextLoanID() int64 { return s.nextID }

// WeeklyHazard converts an annual default probability to a per-week one.
func WeeklyHazard(pd float64, weeksPerYear int) float64 {
	pd = clamp(pd, 0, MaxPD)
	return 1 - math.Pow(1-pd, 1/float64(weeksPerYear))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// accrueInterest books one week of coupon on every open position.
func accrueInterest(s *State, weeksPerYear int) float64 {
	var interest float64
	for _, p := range s.Positions {
		interest += p.WeeklyInterest(weeksPerYear)
	}
	s.Cash += interest
	s.CumInterest += interest
	return interest
}

// drawDefaults draws one uniform per open position, in position order, and
// removes the ones that default. Recoveries go to cash; losses do not.
func drawDefaults(s *State, rng *rand.Rand, weeksPerYear int) (defaulted []loan.Transaction, recoveries, loss float64) {
	if len(s.Positions) == 0 {
		return nil, 0, 0
	}

	kept := s.Positions[:0]
	for _, p := range s.Positions {
		if rng.Float64() >= WeeklyHazard(p.PD, weeksPerYear) {
			kept = append(kept, p)
			continue
		}
		lgd := clamp(p.LGD, 0, 1)
		rec := (1 - lgd) * p.FacilitySize
		lost := lgd * p.FacilitySize
		tx := p.Transaction(loan.Default, s.Date, rec, lost)
		defaulted = append(defaulted, tx)
		recoveries += rec
		loss += lost
	}
	s.Positions = kept

	s.Cash += recoveries
	s.CumLoss += loss
	s.Ledger.Append(defaulted...)
	return defaulted, recoveries, loss
}

// retireMatured returns principal for every position at or past maturity.
func retireMatured(s *State) (matured []loan.Transaction, returned float64) {
	kept := s.Positions[:0]
	for _, p := range s.Positions {
		if !p.Matured(s.Date) {
			kept = append(kept, p)
			continue
		}
		matured = append(matured, p.Transaction(loan.Mature, s.Date, p.FacilitySize, 0))
		returned += p.FacilitySize
	}
	s.Positions = kept

	s.Cash += returned
	s.Ledger.Append(matured...)
	return matured, returned
}

// fund turns selected templates into positions dated s.Date at the
// current index rate.
func fund(s *State, picked []loan.Template, yearDays int) (funded []loan.Position, spent float64) {
	for _, t := range picked {
		p := loan.NewPosition(s.nextID, t, s.Date, s.IndexRate, yearDays)
		s.nextID++
		funded = append(funded, p)
		spent += p.FacilitySize
		s.Ledger.Append(p.Transaction(loan.Fund, s.Date, 0, 0))
	}
	s.Positions = append(s.Positions, funded...)
	return funded, spent
}

// reinvest packs the available cash into new positions.
func reinvest(s *State, packer *Packer, rng *rand.Rand, yearDays int) ([]loan.Position, float64) {
	if s.Cash <= 0 {
		return nil, 0
	}
	funded, spent := fund(s, packer.Pack(s.Cash, rng), yearDays)
	s.Cash -= spent
	return funded, spent
}
