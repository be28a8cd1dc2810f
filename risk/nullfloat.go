package risk

import (
	"math"
	"strconv"
	"strings"
)

// NullFloat is a ratio that may be undefined (zero denominator, no peak
// yet). An undefined value is written as an empty cell, never as zero.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Some wraps a defined value. NaN and Inf become undefined.
func Some(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// Ratio is num/den, undefined when den is not positive.
func Ratio(num, den float64) NullFloat {
	if !(den > 0) {
		return NullFloat{}
	}
	return Some(num / den)
}

func (n NullFloat) MarshalCSV() (string, error) {
	if !n.Valid {
		return "", nil
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64), nil
}

func (n *NullFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		*n = NullFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = Some(v)
	return nil
}
