// Package rates holds the weekly index-rate calendar that drives the
// simulation clock.
package rates

import (
	"fmt"
	"sort"
	"time"
)

// Observation is one calendar point. Rate is a decimal (0.0533 = 5.33%).
type Observation struct {
	Date time.Time
	Rate float64
}

// Calendar is an ordered sequence of observations. One entry is one
// simulated week.
type Calendar struct {
	obs []Observation
}

// New builds a calendar from observations, sorting them by date. Duplicate
// dates are rejected since the reconstructor keys weeks by date.
func New(obs []Observation) (*Calendar, error) {
	out := make([]Observation, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	for i := 1; i < len(out); i++ {
		if out[i].Date.Equal(out[i-1].Date) {
			return nil, fmt.Errorf("duplicate calendar date %s", out[i].Date.Format("2006-01-02"))
		}
	}
	return &Calendar{obs: out}, nil
}

// Len returns the number of weeks in the calendar.
func (c *Calendar) Len() int { return len(c.obs) }

// At returns the i-th observation.
func (c *Calendar) At(i int) Observation { return c.obs[i] }

// First and Last return the calendar bounds. They panic on an empty calendar.
func (c *Calendar) First() Observation { return c.obs[0] }
func (c *Calendar) Last() Observation  { return c.obs[len(c.obs)-1] }

// Dates returns the calendar dates in order.
func (c *Calendar) Dates() []time.Time {
	out := make([]time.Time, len(c.obs))
	for i, o := range c.obs {
		out[i] = o.Date
	}
	return out
}

// Index returns the position of date in the calendar, or -1.
func (c *Calendar) Index(date time.Time) int {
	i := sort.Search(len(c.obs), func(i int) bool {
		return !c.obs[i].Date.Before(date)
	})
	if i < len(c.obs) && c.obs[i].Date.Equal(date) {
		return i
	}
	return -1
}
