package sim

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/creditsim/loan"
)

// ErrInconsistent is returned when the live positions disagree with the
// ledger they were recorded in.
var ErrInconsistent = errors.New("engine state and ledger disagree")

// CheckConsistency cross-checks the final positions against the ledger:
// every loan has exactly one FUND row and at most one terminal row, the
// loans left open by the ledger are exactly the live positions, and each
// live position matches its FUND row.
func CheckConsistency(positions []loan.Position, ledger loan.Ledger) error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	live := make(map[int64]loan.Position, len(positions))
	for _, p := range positions {
		if _, dup := live[p.LoanID]; dup {
			addf("loan %d: duplicate live position", p.LoanID)
		}
		live[p.LoanID] = p
	}

	seen := make(map[int64]bool)
	for _, tx := range ledger {
		seen[tx.LoanID] = true
	}

	open := make(map[int64]bool)
	for _, lc := range ledger.Lifecycles() {
		id := lc.Fund.LoanID
		delete(seen, id)
		if lc.Funds != 1 {
			addf("loan %d: %d FUND rows", id, lc.Funds)
		}
		if lc.Ends > 1 {
			addf("loan %d: %d terminal rows", id, lc.Ends)
		}
		if lc.End != nil && lc.End.Date.Before(lc.Fund.Date) {
			addf("loan %d: ends %s before funding %s", id,
				lc.End.Date.Format(loan.DateLayout), lc.Fund.Date.Format(loan.DateLayout))
		}
		if !lc.Open() {
			continue
		}
		open[id] = true

		p, ok := live[id]
		if !ok {
			addf("loan %d: open in ledger but not live", id)
			continue
		}
		if p.FacilitySize != lc.Fund.FacilitySize || p.TotalRate != lc.Fund.TotalRate {
			addf("loan %d: live terms differ from FUND row", id)
		}
	}
	for id := range seen {
		addf("loan %d: terminal row without FUND", id)
	}
	for id := range live {
		if !open[id] {
			addf("loan %d: live but not open in ledger", id)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInconsistent, strings.Join(problems, "; "))
}
