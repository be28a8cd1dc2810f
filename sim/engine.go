// Package sim runs the weekly roll-forward of a revolving-credit portfolio:
// initial deployment, interest, stochastic defaults, maturities and
// reinvestment of freed cash.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/creditsim/journal"
	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/rates"
)

// ErrEmptyCalendar is returned when there is no week to deploy on.
var ErrEmptyCalendar = errors.New("rate calendar is empty")

// Config holds the knobs of one run.
type Config struct {
	InitialTarget      float64
	Seed               int64
	ReinvestSeedOffset int64
	YearDays           int
	WeeksPerYear       int
	MaxPackIterations  int

	// MaxWeeksToLog bounds the weeks that produce Info log lines.
	// 0 logs every week, negative logs none.
	MaxWeeksToLog int
}

func DefaultConfig() Config {
	return Config{
		InitialTarget:      100_000_000,
		Seed:               7,
		ReinvestSeedOffset: 10,
		YearDays:           365,
		WeeksPerYear:       52,
		MaxPackIterations:  DefaultMaxPackIterations,
	}
}

// WeekReport is what happened in one week. Week 0 is the initial
// deployment.
type WeekReport struct {
	Week      int
	Date      time.Time
	IndexRate float64

	Interest   float64
	Defaults   []loan.Transaction
	Recoveries float64
	Loss       float64
	Maturities []loan.Transaction
	Returned   float64
	Funded     []loan.Position
	Spent      float64

	Cash          float64
	Outstanding   float64
	OpenPositions int
}

// Snapshot is the cash-book view of the report.
func (r WeekReport) Snapshot() journal.CashSnapshot {
	return journal.CashSnapshot{
		Week:          r.Week,
		Date:          r.Date,
		IndexRate:     r.IndexRate,
		Cash:          r.Cash,
		Outstanding:   r.Outstanding,
		OpenPositions: r.OpenPositions,
		Interest:      r.Interest,
		Recoveries:    r.Recoveries,
		Principal:     r.Returned,
		Loss:          r.Loss,
		FundedAmount:  r.Spent,
		Funded:        len(r.Funded),
		Defaulted:     len(r.Defaults),
		Matured:       len(r.Maturities),
	}
}

// Observer is notified after every simulated week.
type Observer interface {
	OnWeek(WeekReport)
}

// Engine advances a State one calendar week at a time. It is not safe for
// concurrent use; weeks run strictly in order.
type Engine struct {
	cfg      Config
	cal      *rates.Calendar
	packer   *Packer
	journal  journal.Journal
	observer Observer
	log      *zap.SugaredLogger

	state    *State
	defaults *rand.Rand
	logged   int
}

func NewEngine(cfg Config, templates []loan.Template, cal *rates.Calendar, j journal.Journal) (*Engine, error) {
	if cal == nil || cal.Len() == 0 {
		return nil, ErrEmptyCalendar
	}
	packer, err := NewPacker(templates, cfg.MaxPackIterations)
	if err != nil {
		return nil, err
	}
	if cfg.WeeksPerYear <= 0 {
		cfg.WeeksPerYear = 52
	}
	if cfg.YearDays <= 0 {
		cfg.YearDays = 365
	}
	if j == nil {
		j = journal.Discard
	}
	return &Engine{
		cfg:      cfg,
		cal:      cal,
		packer:   packer,
		journal:  j,
		log:      zap.NewNop().Sugar(),
		state:    newState(),
		defaults: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (e *Engine) SetObserver(o Observer) { e.observer = o }

func (e *Engine) SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		e.log = l
	}
}

// State exposes the live simulation context.
func (e *Engine) State() *State { return e.state }

// Weeks is the number of calendar entries the run covers.
func (e *Engine) Weeks() int { return e.cal.Len() }

// Deploy funds the initial portfolio on the first calendar date. The
// default-draw stream seeds the initial pack. Cash not deployed is not
// carried: the books start with zero cash.
func (e *Engine) Deploy() (WeekReport, error) {
	s := e.state
	obs := e.cal.First()
	s.Week, s.Date, s.IndexRate = 0, obs.Date, obs.Rate

	before := len(s.Ledger)
	funded, spent := fund(s, e.packer.Pack(e.cfg.InitialTarget, e.defaults), e.cfg.YearDays)
	s.InitialFunded = spent
	s.Cash = 0

	rep := WeekReport{
		Week:      0,
		Date:      s.Date,
		IndexRate: s.IndexRate,
		Funded:    funded,
		Spent:     spent,
	}
	e.log.Infow("initial deployment",
		"date", s.Date.Format(loan.DateLayout),
		"index_rate", s.IndexRate,
		"loans", len(funded),
		"funded", spent,
		"target", e.cfg.InitialTarget,
	)
	return rep, e.finishWeek(&rep, before)
}

// Step runs calendar week i (i >= 1): interest, defaults, maturities,
// reinvestment, in that order.
func (e *Engine) Step(i int) (WeekReport, error) {
	if i < 1 || i >= e.cal.Len() {
		return WeekReport{}, fmt.Errorf("week %d outside calendar [1, %d)", i, e.cal.Len())
	}
	s := e.state
	obs := e.cal.At(i)
	s.Week, s.Date, s.IndexRate = i, obs.Date, obs.Rate
	before := len(s.Ledger)

	rep := WeekReport{Week: i, Date: s.Date, IndexRate: s.IndexRate}
	rep.Interest = accrueInterest(s, e.cfg.WeeksPerYear)
	rep.Defaults, rep.Recoveries, rep.Loss = drawDefaults(s, e.defaults, e.cfg.WeeksPerYear)
	rep.Maturities, rep.Returned = retireMatured(s)
	rep.Funded, rep.Spent = reinvest(s, e.packer, e.reinvestRand(i), e.cfg.YearDays)

	e.logWeek(rep)
	return rep, e.finishWeek(&rep, before)
}

// reinvestRand is the per-week reinvestment stream. It never shares state
// with the default draws.
func (e *Engine) reinvestRand(week int) *rand.Rand {
	return rand.New(rand.NewSource(e.cfg.Seed + e.cfg.ReinvestSeedOffset + int64(week)))
}

func (e *Engine) finishWeek(rep *WeekReport, ledgerStart int) error {
	s := e.state
	rep.Cash = s.Cash
	rep.Outstanding = s.Outstanding()
	rep.OpenPositions = len(s.Positions)

	for _, tx := range s.Ledger[ledgerStart:] {
		if err := e.journal.RecordTransaction(tx); err != nil {
			return fmt.Errorf("week %d: record transaction: %w", rep.Week, err)
		}
	}
	if err := e.journal.RecordCash(rep.Snapshot()); err != nil {
		return fmt.Errorf("week %d: record cash: %w", rep.Week, err)
	}
	if e.observer != nil {
		e.observer.OnWeek(*rep)
	}
	return nil
}

func (e *Engine) logWeek(rep WeekReport) {
	if e.cfg.MaxWeeksToLog < 0 || (e.cfg.MaxWeeksToLog > 0 && e.logged >= e.cfg.MaxWeeksToLog) {
		return
	}
	if rep.Interest == 0 && len(rep.Defaults) == 0 && len(rep.Maturities) == 0 &&
		len(rep.Funded) == 0 && e.state.Cash == 0 {
		return
	}
	e.logged++

	e.log.Infow("week",
		"week", rep.Week,
		"date", rep.Date.Format(loan.DateLayout),
		"index_rate", rep.IndexRate,
		"interest", rep.Interest,
		"defaults", len(rep.Defaults),
		"recoveries", rep.Recoveries,
		"loss", rep.Loss,
		"matured", len(rep.Maturities),
		"returned", rep.Returned,
		"funded", len(rep.Funded),
		"spent", rep.Spent,
		"cash", e.state.Cash,
	)
	for _, tx := range rep.Defaults {
		e.log.Debugw("default", "loan_id", tx.LoanID, "facility", tx.FacilitySize, "recovery", tx.Recovery, "loss", tx.Loss)
	}
	for _, tx := range rep.Maturities {
		e.log.Debugw("matured", "loan_id", tx.LoanID, "facility", tx.FacilitySize)
	}
	for _, p := range rep.Funded {
		e.log.Debugw("funded", "loan_id", p.LoanID, "facility", p.FacilitySize, "total_rate", p.TotalRate)
	}
	if len(rep.Funded) == 0 && e.state.Cash > 0 {
		e.log.Infow("cash too small to fund any loan", "cash", e.state.Cash, "min_facility", e.packer.MinFacility())
	}
}

// Result is the final state of a run.
type Result struct {
	Start         time.Time
	End           time.Time
	Weeks         int
	Cash          float64
	Positions     []loan.Position
	Ledger        loan.Ledger
	InitialFunded float64
	CumInterest   float64
	CumLoss       float64
}

// Run deploys the initial portfolio and steps through every remaining
// calendar week. Positions open at the end stay open.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if _, err := e.Deploy(); err != nil {
		return nil, err
	}
	for i := 1; i < e.cal.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := e.Step(i); err != nil {
			return nil, err
		}
	}

	s := e.state
	e.log.Infow("simulation complete",
		"weeks", e.cal.Len(),
		"open_positions", len(s.Positions),
		"outstanding", s.Outstanding(),
		"cash", s.Cash,
		"ledger_rows", len(s.Ledger),
	)
	return &Result{
		Start:         e.cal.First().Date,
		End:           e.cal.Last().Date,
		Weeks:         e.cal.Len(),
		Cash:          s.Cash,
		Positions:     append([]loan.Position(nil), s.Positions...),
		Ledger:        append(loan.Ledger(nil), s.Ledger...),
		InitialFunded: s.InitialFunded,
		CumInterest:   s.CumInterest,
		CumLoss:       s.CumLoss,
	}, nil
}
