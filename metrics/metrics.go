// Package metrics provides Prometheus instrumentation for simulation runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rustyeddy/creditsim/sim"
)

const namespace = "creditsim"

// Recorder holds the run metrics on a private registry so several runs in
// one process never collide. It satisfies sim.Observer.
type Recorder struct {
	reg *prometheus.Registry

	// LoansFunded counts facilities funded, including the initial deployment.
	LoansFunded prometheus.Counter
	// LoansDefaulted counts facilities closed by default.
	LoansDefaulted prometheus.Counter
	// LoansMatured counts facilities closed at maturity.
	LoansMatured prometheus.Counter
	// InterestCollected is the cumulative interest booked to cash.
	InterestCollected prometheus.Counter
	// DefaultLoss is the cumulative facility lost to defaults.
	DefaultLoss prometheus.Counter

	Cash           prometheus.Gauge
	Outstanding    prometheus.Gauge
	OpenPositions  prometheus.Gauge
	WeeksSimulated prometheus.Gauge
}

var _ sim.Observer = (*Recorder)(nil)

// New registers the run metrics on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		LoansFunded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loans_funded_total",
			Help:      "Total number of facilities funded",
		}),
		LoansDefaulted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loans_defaulted_total",
			Help:      "Total number of facilities closed by default",
		}),
		LoansMatured: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loans_matured_total",
			Help:      "Total number of facilities closed at maturity",
		}),
		InterestCollected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interest_collected_total",
			Help:      "Cumulative interest collected in currency units",
		}),
		DefaultLoss: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "default_loss_total",
			Help:      "Cumulative default loss in currency units",
		}),
		Cash: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cash",
			Help:      "Cash balance after the latest simulated week",
		}),
		Outstanding: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outstanding_facility",
			Help:      "Sum of live facility sizes after the latest simulated week",
		}),
		OpenPositions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_positions",
			Help:      "Number of live positions after the latest simulated week",
		}),
		WeeksSimulated: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weeks_simulated",
			Help:      "Number of calendar weeks processed, week 0 included",
		}),
	}
}

// OnWeek folds one engine week into the metrics.
func (r *Recorder) OnWeek(rep sim.WeekReport) {
	r.LoansFunded.Add(float64(len(rep.Funded)))
	r.LoansDefaulted.Add(float64(len(rep.Defaults)))
	r.LoansMatured.Add(float64(len(rep.Maturities)))
	// counters cannot go down; negative index rates are not booked here
	if rep.Interest > 0 {
		r.InterestCollected.Add(rep.Interest)
	}
	if rep.Loss > 0 {
		r.DefaultLoss.Add(rep.Loss)
	}

	r.Cash.Set(rep.Cash)
	r.Outstanding.Set(rep.Outstanding)
	r.OpenPositions.Set(float64(rep.OpenPositions))
	r.WeeksSimulated.Set(float64(rep.Week + 1))
}

// Registry exposes the private registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// WriteTextfile writes the current values in the text exposition format,
// for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
