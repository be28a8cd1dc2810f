package inputs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyDataset is returned when every row of an input was dropped by
// cleaning.
var ErrEmptyDataset = errors.New("no usable rows after cleaning")

// SchemaError reports required fields that could not be resolved from the
// headers of an input table.
type SchemaError struct {
	Source    string
	Missing   []string
	Ambiguous []string
	Available []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	src := e.Source
	if src == "" {
		src = "input"
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "missing required columns in %s: %v", src, e.Missing)
	}
	if len(e.Ambiguous) > 0 {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "ambiguous columns in %s: %s", src, strings.Join(e.Ambiguous, "; "))
	}
	fmt.Fprintf(&b, "; available columns (normalized): %v", e.Available)
	return b.String()
}
