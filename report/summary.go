// Package report renders finished runs for people: a console summary and an
// Org-mode entry for the research journal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/creditsim/journal"
	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/risk"
)

// Fill sets the outcome fields of run from the final ledger, the live
// positions and the aggregated statistics. Identity and period fields are
// left to the caller.
func Fill(run *journal.Run, ledger loan.Ledger, positions []loan.Position, overall risk.Overall) {
	run.LoansFunded = len(ledger.Filter(loan.Fund))
	run.LoansDefaulted = len(ledger.Filter(loan.Default))
	run.LoansMatured = len(ledger.Filter(loan.Mature))
	run.OpenPositions = len(positions)
	run.Outstanding = loan.TotalFacility(positions)
	run.TotalPnL = overall.TotalPnL
	run.ReturnPct = overall.ReturnPct
	run.MaxDrawdownAmt = overall.MaxDrawdownAmt
	run.MaxDrawdownPct = overall.MaxDrawdownPct
}

// Money renders a currency amount with two decimals and thousands separators.
func Money(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "." + frac
}

// Pct renders a ratio as a percentage, or "n/a" when undefined.
func Pct(n risk.NullFloat) string {
	if !n.Valid {
		return "n/a"
	}
	return decimal.NewFromFloat(n.Float64).Shift(2).StringFixed(2) + "%"
}

// PrintRun writes the console summary of a finished run.
func PrintRun(w io.Writer, r journal.Run, yearly []risk.YearStats) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Portfolio Run")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	if !r.Created.IsZero() {
		fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Rates:         %s\n", r.RatesPath)
	if r.LoansPath != "" {
		fmt.Fprintf(w, "Loans:         %s\n", r.LoansPath)
		fmt.Fprintf(w, "Seed:          %d\n", r.Seed)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format("2006-01-02"))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format("2006-01-02"))
	fmt.Fprintf(w, "Weeks:         %d\n", r.Weeks)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Book")
	fmt.Fprintln(w, "--------------------------------------------------")
	if r.InitialTarget > 0 {
		fmt.Fprintf(w, "Target:        %s\n", Money(r.InitialTarget))
	}
	if r.InitialFunded > 0 {
		fmt.Fprintf(w, "Deployed:      %s\n", Money(r.InitialFunded))
	}
	fmt.Fprintf(w, "Funded:        %d\n", r.LoansFunded)
	fmt.Fprintf(w, "Defaulted:     %d\n", r.LoansDefaulted)
	fmt.Fprintf(w, "Matured:       %d\n", r.LoansMatured)
	fmt.Fprintf(w, "Open:          %d\n", r.OpenPositions)
	fmt.Fprintf(w, "Outstanding:   %s\n", Money(r.Outstanding))
	fmt.Fprintf(w, "Cash:          %s\n", Money(r.FinalCash))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Total P&L:     %s\n", Money(r.TotalPnL))
	fmt.Fprintf(w, "Return:        %s\n", Pct(r.ReturnPct))
	fmt.Fprintf(w, "Max Drawdown:  %s (%s)\n", Money(r.MaxDrawdownAmt), Pct(r.MaxDrawdownPct))

	if len(yearly) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "By Year")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, y := range yearly {
			fmt.Fprintf(w, "%d  P&L %s  return %s  defaults %d\n",
				y.Year, Money(y.TotalPnL), Pct(y.ReturnPct), y.LoansDefaulted)
		}
	}

	fmt.Fprintln(w)
}
