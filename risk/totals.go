// Package risk rolls per-loan weekly P&L into portfolio totals, the
// drawdown curve and yearly / overall return statistics.
package risk

import (
	"sort"
	"time"

	"github.com/rustyeddy/creditsim/pnl"
)

// WeekTotal is the portfolio-level P&L of one calendar week.
type WeekTotal struct {
	Week        time.Time
	Interest    float64
	DefaultLoss float64
	PnL         float64
	Exposure    float64
	CumPnL      float64
	RollMax     float64
	DrawdownAmt float64
	DrawdownPct NullFloat
}

// DrawdownPoint is one step of the drawdown curve.
type DrawdownPoint struct {
	CumPnL      float64
	RollMax     float64
	DrawdownAmt float64
	DrawdownPct NullFloat
}

// Drawdown derives the running maximum and drawdown of a cumulative P&L
// series. The percentage is undefined until the running maximum is
// positive.
func Drawdown(cum []float64) []DrawdownPoint {
	out := make([]DrawdownPoint, len(cum))
	for i, c := range cum {
		peak := c
		if i > 0 && out[i-1].RollMax > peak {
			peak = out[i-1].RollMax
		}
		amt := peak - c
		if amt < 0 {
			amt = 0
		}
		out[i] = DrawdownPoint{
			CumPnL:      c,
			RollMax:     peak,
			DrawdownAmt: amt,
			DrawdownPct: Ratio(amt, peak),
		}
	}
	return out
}

// WeeklyTotals groups rows by week, in calendar order, and fills the
// cumulative P&L and drawdown columns. Weeks without live loans have no row.
func WeeklyTotals(rows []pnl.Row) []WeekTotal {
	byWeek := make(map[time.Time]*WeekTotal)
	var weeks []time.Time
	for _, r := range rows {
		key := r.Week.UTC()
		wt, ok := byWeek[key]
		if !ok {
			wt = &WeekTotal{Week: r.Week}
			byWeek[key] = wt
			weeks = append(weeks, key)
		}
		wt.Interest += r.Interest
		wt.DefaultLoss += r.DefaultLoss
		wt.PnL += r.PnL
		wt.Exposure += r.Exposure
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	out := make([]WeekTotal, len(weeks))
	cum := make([]float64, len(weeks))
	var running float64
	for i, w := range weeks {
		out[i] = *byWeek[w]
		running += out[i].PnL
		cum[i] = running
	}
	for i, p := range Drawdown(cum) {
		out[i].CumPnL = p.CumPnL
		out[i].RollMax = p.RollMax
		out[i].DrawdownAmt = p.DrawdownAmt
		out[i].DrawdownPct = p.DrawdownPct
	}
	return out
}

// MaxDrawdown returns the largest drawdown amount and the percentage
// recorded in the week it first occurred.
func MaxDrawdown(totals []WeekTotal) (float64, NullFloat) {
	if len(totals) == 0 {
		return 0, NullFloat{}
	}
	best := 0
	for i, wt := range totals {
		if wt.DrawdownAmt > totals[best].DrawdownAmt {
			best = i
		}
	}
	return totals[best].DrawdownAmt, totals[best].DrawdownPct
}
