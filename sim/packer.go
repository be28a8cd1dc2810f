package sim

import (
	"errors"
	"math"
	"math/rand"

	"github.com/rustyeddy/creditsim/loan"
)

const (
	// DefaultMaxPackIterations bounds the draws of a single Pack call.
	DefaultMaxPackIterations = 1_000_000

	// PackTolerance is the relative slack allowed over the cap when a
	// candidate fills it exactly.
	PackTolerance = 1e-9
)

// ErrEmptyPool is returned when a packer is built without templates.
var ErrEmptyPool = errors.New("template pool is empty")

// Packer fills a cash budget by sampling templates uniformly with
// replacement. It is a randomized greedy fill, not an optimal packing.
type Packer struct {
	templates     []loan.Template
	minSize       float64
	maxIterations int
}

// NewPacker returns a packer over templates. maxIterations <= 0 selects
// DefaultMaxPackIterations.
func NewPacker(templates []loan.Template, maxIterations int) (*Packer, error) {
	if len(templates) == 0 {
		return nil, ErrEmptyPool
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxPackIterations
	}
	min := templates[0].FacilitySize
	for _, t := range templates[1:] {
		if t.FacilitySize < min {
			min = t.FacilitySize
		}
	}
	return &Packer{
		templates:     templates,
		minSize:       min,
		maxIterations: maxIterations,
	}, nil
}

// MinFacility is the smallest facility size in the pool.
func (p *Packer) MinFacility() float64 { return p.minSize }

// Slack is the floating-point allowance over cap, scaled to its magnitude.
func Slack(cap float64) float64 {
	return PackTolerance * math.Max(1, math.Abs(cap))
}

// Exhausted reports whether no template can fit in the remaining headroom.
func (p *Packer) Exhausted(cap, total float64) bool {
	return cap+Slack(cap)-total < p.minSize
}

// Pack draws templates until the headroom under cap is smaller than the
// smallest template or the iteration ceiling is reached. A draw is kept
// when it fits within cap. cap <= 0 returns nil without touching rng.
func (p *Packer) Pack(cap float64, rng *rand.Rand) []loan.Template {
	if cap <= 0 {
		return nil
	}

	var (
		picked []loan.Template
		total  float64
		limit  = cap + Slack(cap)
	)
	for i := 0; i < p.maxIterations && !p.Exhausted(cap, total); i++ {
		t := p.templates[rng.Intn(len(p.templates))]
		if total+t.FacilitySize <= limit {
			picked = append(picked, t)
			total += t.FacilitySize
		}
	}
	return picked
}

// Pack is a one-shot convenience over NewPacker.
func Pack(templates []loan.Template, cap float64, rng *rand.Rand) []loan.Template {
	p, err := NewPacker(templates, 0)
	if err != nil {
		return nil
	}
	return p.Pack(cap, rng)
}
