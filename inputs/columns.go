// Package inputs loads the tabular simulator inputs: the index-rate
// calendar and the loan template pool.
package inputs

import (
	"fmt"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeColumn lowercases a header and collapses every run of
// non-alphanumeric characters into a single underscore.
//
//	"Facility Size ($)" -> "facility_size"
func NormalizeColumn(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	c = nonAlnum.ReplaceAllString(c, "_")
	return strings.Trim(c, "_")
}

// NormalizeColumns normalizes every header in order.
func NormalizeColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = NormalizeColumn(c)
	}
	return out
}

// Field is a logical input field and the ordered header aliases accepted
// for it.
type Field struct {
	Name    string
	Aliases []string
}

// TemplateFields is the alias table for the loan template source. Earlier
// aliases take precedence.
var TemplateFields = []Field{
	{Name: "facility_size", Aliases: []string{"facility_size", "facility_amount", "loan_amount", "facility"}},
	{Name: "pd", Aliases: []string{"pd", "prob_default", "probability_of_default"}},
	{Name: "lgd", Aliases: []string{"lgd", "loss_given_default"}},
	{Name: "term_years", Aliases: []string{"term_years", "term_loan", "term", "tenor", "maturity_years"}},
	{Name: "spread_bps", Aliases: []string{"spread_bps", "spreadbps", "spread", "spread_bp"}},
}

// ResolveColumns maps each field to the index of the normalized column
// that carries it. Resolution tries exact matches in alias order, then
// matches ignoring underscores. A field that cannot be resolved, or that
// matches more than one column at the winning precedence, yields a
// *SchemaError.
func ResolveColumns(fields []Field, normalized []string) (map[string]int, error) {
	resolved := make(map[string]int, len(fields))
	owner := make(map[int]string)
	serr := &SchemaError{Available: append([]string(nil), normalized...)}

	for _, f := range fields {
		idx, err := resolveField(f, normalized)
		if err != nil {
			serr.Ambiguous = append(serr.Ambiguous, err.Error())
			continue
		}
		if idx < 0 {
			serr.Missing = append(serr.Missing, f.Name)
			continue
		}
		if prev, ok := owner[idx]; ok {
			serr.Ambiguous = append(serr.Ambiguous,
				fmt.Sprintf("column %q resolves both %s and %s", normalized[idx], prev, f.Name))
			continue
		}
		owner[idx] = f.Name
		resolved[f.Name] = idx
	}

	if len(serr.Missing) > 0 || len(serr.Ambiguous) > 0 {
		return nil, serr
	}
	return resolved, nil
}

func resolveField(f Field, cols []string) (int, error) {
	match := func(key func(string) string) (int, error) {
		for _, alias := range f.Aliases {
			var hits []int
			for i, c := range cols {
				if key(c) == key(alias) {
					hits = append(hits, i)
				}
			}
			switch len(hits) {
			case 0:
				continue
			case 1:
				return hits[0], nil
			default:
				names := make([]string, len(hits))
				for i, h := range hits {
					names[i] = cols[h]
				}
				return -1, fmt.Errorf("%s is ambiguous: alias %q matches columns %v", f.Name, alias, names)
			}
		}
		return -1, nil
	}

	idx, err := match(func(s string) string { return s })
	if err != nil || idx >= 0 {
		return idx, err
	}
	return match(func(s string) string { return strings.ReplaceAll(s, "_", "") })
}
