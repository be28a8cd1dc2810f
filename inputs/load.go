package inputs

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/rates"
)

// DateLayouts are the calendar date formats accepted in the rate source.
var DateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// LoadRates reads the rate calendar from a CSV file.
func LoadRates(path string) (*rates.Calendar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rates: %w", err)
	}
	defer f.Close()

	cal, err := ReadRates(f)
	if err != nil {
		return nil, fmt.Errorf("read rates %s: %w", path, err)
	}
	return cal, nil
}

// ReadRates parses a rate calendar. The first row is a header; the first
// two columns are read as (date, rate in percent) whatever they are named.
// Rows with an unparseable date or rate are dropped.
func ReadRates(r io.Reader) (*rates.Calendar, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("rate calendar: %w", ErrEmptyDataset)
	}
	if len(records[0]) < 2 {
		return nil, &SchemaError{
			Source:    "rate calendar",
			Missing:   []string{"date", "rate"},
			Available: NormalizeColumns(records[0]),
		}
	}

	var obs []rates.Observation
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			continue
		}
		d, ok := ParseDate(rec[0])
		if !ok {
			continue
		}
		pct, ok := parseNumber(rec[1])
		if !ok {
			continue
		}
		obs = append(obs, rates.Observation{Date: d, Rate: pct / 100.0})
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("rate calendar: %w", ErrEmptyDataset)
	}
	return rates.New(obs)
}

// LoadTemplates reads the loan template pool from a CSV file.
func LoadTemplates(path string) ([]loan.Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open loans: %w", err)
	}
	defer f.Close()

	ts, err := ReadTemplates(f)
	if err != nil {
		return nil, fmt.Errorf("read loans %s: %w", path, err)
	}
	return ts, nil
}

// amount is a numeric cell that never fails to decode; an unparseable
// value is kept as missing so its row can be dropped.
type amount struct {
	v  float64
	ok bool
}

func (a *amount) UnmarshalCSV(s string) error {
	a.v, a.ok = parseNumber(s)
	return nil
}

// templateRow is the canonical template table after header resolution.
type templateRow struct {
	FacilitySize amount `csv:"facility_size"`
	PD           amount `csv:"pd"`
	LGD          amount `csv:"lgd"`
	TermYears    amount `csv:"term_years"`
	SpreadBps    amount `csv:"spread_bps"`
}

// ReadTemplates parses the loan template pool. Headers are normalized and
// resolved through TemplateFields; extra columns are ignored. Rows with a
// non-positive facility size or any unparseable field are dropped.
func ReadTemplates(r io.Reader) ([]loan.Template, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("loan templates: %w", ErrEmptyDataset)
	}

	idx, err := ResolveColumns(TemplateFields, NormalizeColumns(records[0]))
	if err != nil {
		if serr, ok := err.(*SchemaError); ok {
			serr.Source = "loan templates"
		}
		return nil, err
	}
	if len(records) == 1 {
		return nil, fmt.Errorf("loan templates: %w", ErrEmptyDataset)
	}

	table := make([][]string, 0, len(records))
	header := make([]string, len(TemplateFields))
	for j, f := range TemplateFields {
		header[j] = f.Name
	}
	table = append(table, header)
	for _, rec := range records[1:] {
		row := make([]string, len(TemplateFields))
		for j, f := range TemplateFields {
			if k := idx[f.Name]; k < len(rec) {
				row[j] = rec[k]
			}
		}
		table = append(table, row)
	}

	var rows []templateRow
	if err := gocsv.UnmarshalCSV(&tableReader{rows: table}, &rows); err != nil {
		return nil, fmt.Errorf("decode loan templates: %w", err)
	}

	out := make([]loan.Template, 0, len(rows))
	for _, row := range rows {
		t, ok := row.template()
		if !ok || t.FacilitySize <= 0 {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("loan templates: %w", ErrEmptyDataset)
	}
	return out, nil
}

func (r templateRow) template() (loan.Template, bool) {
	for _, a := range []amount{r.FacilitySize, r.PD, r.LGD, r.TermYears, r.SpreadBps} {
		if !a.ok {
			return loan.Template{}, false
		}
	}
	return loan.Template{
		FacilitySize: r.FacilitySize.v,
		PD:           r.PD.v,
		LGD:          r.LGD.v,
		TermYears:    r.TermYears.v,
		SpreadBps:    r.SpreadBps.v,
	}, true
}

// ParseDate tries each of DateLayouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseNumber accepts finite decimal numbers only; blanks, FRED's "." and
// NaN/Inf spellings are treated as missing.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		out = append(out, rec)
	}
}

// tableReader feeds an in-memory table to gocsv.
type tableReader struct {
	rows [][]string
	pos  int
}

func (t *tableReader) Read() ([]string, error) {
	if t.pos >= len(t.rows) {
		return nil, io.EOF
	}
	row := t.rows[t.pos]
	t.pos++
	return row, nil
}

func (t *tableReader) ReadAll() ([][]string, error) {
	rest := t.rows[t.pos:]
	t.pos = len(t.rows)
	return rest, nil
}
