package loan

import (
	"fmt"
	"sort"
	"time"
)

// TxType is the kind of ledger entry.
type TxType string

const (
	Fund    TxType = "FUND"
	Default TxType = "DEFAULT"
	Mature  TxType = "MATURE"
)

// Terminal reports whether the type ends a loan's life.
func (t TxType) Terminal() bool {
	return t == Default || t == Mature
}

// ParseTxType parses the ledger spelling of a transaction type.
func ParseTxType(s string) (TxType, error) {
	switch TxType(s) {
	case Fund, Default, Mature:
		return TxType(s), nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Transaction is an immutable ledger entry. Recovery and Loss are zero for
// FUND rows.
type Transaction struct {
	LoanID       int64
	Date         time.Time
	Type         TxType
	FacilitySize float64
	PD           float64
	LGD          float64
	TermYears    float64
	SpreadBps    float64
	TotalRate    float64
	Recovery     float64
	Loss         float64
}

// Ledger is an append-only sequence of transactions in emission order.
type Ledger []Transaction

// Append adds tx to the end of the ledger.
func (l *Ledger) Append(tx ...Transaction) {
	*l = append(*l, tx...)
}

// Filter returns the transactions of the given type, in ledger order.
func (l Ledger) Filter(typ TxType) []Transaction {
	var out []Transaction
	for _, tx := range l {
		if tx.Type == typ {
			out = append(out, tx)
		}
	}
	return out
}

// Lifecycle is one loan's view of the ledger: its FUND row and, when the
// loan has ended, its earliest terminal row.
type Lifecycle struct {
	Fund Transaction
	End  *Transaction

	// Funds and Ends count the raw rows seen for the loan.
	Funds int
	Ends  int
}

// Open reports whether the loan has no terminal row.
func (lc Lifecycle) Open() bool { return lc.End == nil }

// Lifecycles groups the ledger by loan_id, ordered by loan_id. Loans with a
// terminal row but no FUND row are omitted. When a loan carries several
// FUND or terminal rows the earliest by date wins, ties going to ledger
// order.
func (l Ledger) Lifecycles() []Lifecycle {
	byID := make(map[int64]*Lifecycle)
	var ids []int64
	get := func(id int64) *Lifecycle {
		lc, ok := byID[id]
		if !ok {
			lc = &Lifecycle{}
			byID[id] = lc
			ids = append(ids, id)
		}
		return lc
	}

	for i := range l {
		tx := l[i]
		lc := get(tx.LoanID)
		switch {
		case tx.Type == Fund:
			if lc.Funds == 0 || tx.Date.Before(lc.Fund.Date) {
				lc.Fund = tx
			}
			lc.Funds++
		case tx.Type.Terminal():
			if lc.End == nil || tx.Date.Before(lc.End.Date) {
				end := tx
				lc.End = &end
			}
			lc.Ends++
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Lifecycle, 0, len(ids))
	for _, id := range ids {
		if lc := byID[id]; lc.Funds > 0 {
			out = append(out, *lc)
		}
	}
	return out
}

// OpenPositions rebuilds the live book from the FUND rows of loans with no
// terminal row, ordered by loan_id.
func (l Ledger) OpenPositions(yearDays int) []Position {
	var out []Position
	for _, lc := range l.Lifecycles() {
		if !lc.Open() {
			continue
		}
		f := lc.Fund
		out = append(out, Position{
			LoanID:       f.LoanID,
			FacilitySize: f.FacilitySize,
			PD:           f.PD,
			LGD:          f.LGD,
			TermYears:    f.TermYears,
			SpreadBps:    f.SpreadBps,
			TotalRate:    f.TotalRate,
			DateFunded:   f.Date,
			MaturityDate: MaturityDate(f.Date, f.TermYears, yearDays),
		})
	}
	return out
}
