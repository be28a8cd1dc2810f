package risk

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/rustyeddy/creditsim/loan"
)

// Summary holds the reductions shared by the yearly and overall views.
type Summary struct {
	TotalInterest       float64
	TotalDefaultLoss    float64
	TotalPnL            float64
	AvgExposure         float64
	Weeks               int
	WeeklyVolatilityPnL NullFloat
	ReturnPct           NullFloat

	LoansFunded  int
	FundedAmount float64
	WATotalRate  NullFloat
	WASpreadBps  NullFloat
	WAPD         NullFloat
	WATermYears  NullFloat

	LoansDefaulted     int
	AvgLGDOnDefaults   NullFloat
	DefaultedAmount    float64
	DefaultRateByCount NullFloat
}

// YearStats is the Summary of one calendar year.
type YearStats struct {
	Year int
	Summary
}

// Overall is the Summary of the whole horizon plus the worst drawdown.
type Overall struct {
	Summary
	MaxDrawdownAmt float64
	MaxDrawdownPct NullFloat
}

// Yearly groups weekly totals and ledger rows by calendar year. Only years
// that have weekly totals are reported.
func Yearly(totals []WeekTotal, ledger loan.Ledger) []YearStats {
	weeksByYear := make(map[int][]WeekTotal)
	for _, wt := range totals {
		y := wt.Week.Year()
		weeksByYear[y] = append(weeksByYear[y], wt)
	}
	txByYear := make(map[int][]loan.Transaction)
	for _, tx := range ledger {
		y := tx.Date.Year()
		txByYear[y] = append(txByYear[y], tx)
	}

	years := make([]int, 0, len(weeksByYear))
	for y := range weeksByYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]YearStats, 0, len(years))
	for _, y := range years {
		out = append(out, YearStats{
			Year:    y,
			Summary: summarize(weeksByYear[y], txByYear[y]),
		})
	}
	return out
}

// OverallStats applies the yearly reductions to the full horizon.
func OverallStats(totals []WeekTotal, ledger loan.Ledger) Overall {
	amt, pct := MaxDrawdown(totals)
	return Overall{
		Summary:        summarize(totals, ledger),
		MaxDrawdownAmt: amt,
		MaxDrawdownPct: pct,
	}
}

func summarize(totals []WeekTotal, txs []loan.Transaction) Summary {
	var s Summary

	pnls := make(stats.Float64Data, len(totals))
	exposures := make(stats.Float64Data, len(totals))
	for i, wt := range totals {
		s.TotalInterest += wt.Interest
		s.TotalDefaultLoss += wt.DefaultLoss
		s.TotalPnL += wt.PnL
		pnls[i] = wt.PnL
		exposures[i] = wt.Exposure
	}
	s.Weeks = len(totals)

	if mean, err := stats.Mean(exposures); err == nil {
		s.AvgExposure = mean
	}
	if len(pnls) > 1 {
		if sd, err := stats.StandardDeviationSample(pnls); err == nil {
			s.WeeklyVolatilityPnL = Some(sd)
		}
	}
	s.ReturnPct = Ratio(s.TotalPnL, s.AvgExposure)

	var (
		wRate, wSpread, wPD, wTerm float64
		lgdSum                     float64
	)
	for _, tx := range txs {
		switch tx.Type {
		case loan.Fund:
			s.LoansFunded++
			s.FundedAmount += tx.FacilitySize
			wRate += tx.TotalRate * tx.FacilitySize
			wSpread += tx.SpreadBps * tx.FacilitySize
			wPD += tx.PD * tx.FacilitySize
			wTerm += tx.TermYears * tx.FacilitySize
		case loan.Default:
			s.LoansDefaulted++
			s.DefaultedAmount += tx.FacilitySize
			lgdSum += tx.LGD
		}
	}

	s.WATotalRate = Ratio(wRate, s.FundedAmount)
	s.WASpreadBps = Ratio(wSpread, s.FundedAmount)
	s.WAPD = Ratio(wPD, s.FundedAmount)
	s.WATermYears = Ratio(wTerm, s.FundedAmount)
	s.AvgLGDOnDefaults = Ratio(lgdSum, float64(s.LoansDefaulted))
	s.DefaultRateByCount = Ratio(float64(s.LoansDefaulted), float64(s.LoansFunded))
	return s
}
