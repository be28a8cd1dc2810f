package report

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/creditsim/journal"
	"github.com/rustyeddy/creditsim/risk"
)

// OrgReport is the data behind one Org-mode run entry.
type OrgReport struct {
	Run     journal.Run
	Yearly  []risk.YearStats
	Overall risk.Overall
	OutDir  string

	Notes []string
}

var orgFuncs = template.FuncMap{
	"money": Money,
	"pct":   Pct,
	"day":   func(t time.Time) string { return t.Format("2006-01-02") },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTmpl = template.Must(template.New("run").Funcs(orgFuncs).Parse(OrgTemplate))

// Render executes the Org template.
func (o *OrgReport) Render() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := orgTmpl.Execute(buf, o); err != nil {
		return nil, fmt.Errorf("render org report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteOrg renders the report to path.
func (o *OrgReport) WriteOrg(path string) error {
	b, err := o.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

const OrgTemplate = `
* RUN: revolving book {{day .Run.Start}} to {{day .Run.End}}
:PROPERTIES:
:RUN_ID:      {{if .Run.RunID}}{{.Run.RunID}}{{else}}(run-id?){{end}}
:RATES:       {{.Run.RatesPath}}
:LOANS:       {{if .Run.LoansPath}}{{.Run.LoansPath}}{{else}}(replay){{end}}
:SEED:        {{.Run.Seed}}
:START_DATE:  {{day .Run.Start}}
:END_DATE:    {{day .Run.End}}
:WEEKS:       {{.Run.Weeks}}
:FUNDED:      {{.Run.LoansFunded}}
:DEFAULTED:   {{.Run.LoansDefaulted}}
:MATURED:     {{.Run.LoansMatured}}
:TOTAL_PNL:   {{printf "%.2f" .Run.TotalPnL}}
:RETURN:      {{pct .Run.ReturnPct}}
:MAX_DD:      {{printf "%.2f" .Run.MaxDrawdownAmt}}
:CREATED:     [{{(orTime .Run.Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Run Parameters
| Parameter      | Value |
|----------------+-------|
| Initial target | {{money .Run.InitialTarget}} |
| Deployed       | {{money .Run.InitialFunded}} |
| Seed           | {{.Run.Seed}} |
{{- if .Run.Config }}

#+begin_src yaml
{{printf "%s" .Run.Config}}
#+end_src
{{- end }}

** Performance Summary
- Total interest:   *{{money .Overall.TotalInterest}}*
- Default loss:     *{{money .Overall.TotalDefaultLoss}}*
- Total P&L:        *{{money .Overall.TotalPnL}}*
- Avg exposure:     *{{money .Overall.AvgExposure}}*
- Return:           *{{pct .Overall.ReturnPct}}*
- Max drawdown:     *{{money .Overall.MaxDrawdownAmt}}* ({{pct .Overall.MaxDrawdownPct}})
- Default rate:     *{{pct .Overall.DefaultRateByCount}}*

** By Year
| Year | P&L | Return | Funded | Defaulted |
|------+-----+--------+--------+-----------|
{{- range .Yearly }}
| {{.Year}} | {{money .TotalPnL}} | {{pct .ReturnPct}} | {{.LoansFunded}} | {{.LoansDefaulted}} |
{{- end }}

** Outputs
{{- if .OutDir }}
[[file:{{.OutDir}}]]
{{- else }}
# outputs stored in the run database
{{- end }}

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
