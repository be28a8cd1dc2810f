package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/rustyeddy/creditsim/loan"
)

// Files names the tables written under a CSV output directory.
type Files struct {
	Transactions string `yaml:"transactions" json:"transactions"`
	Positions    string `yaml:"positions" json:"positions"`
	WeeklyPnL    string `yaml:"weekly_pnl" json:"weekly_pnl"`
	WeeklyTotals string `yaml:"weekly_totals" json:"weekly_totals"`
	WeeklyWide   string `yaml:"weekly_pnl_wide" json:"weekly_pnl_wide"`
	Yearly       string `yaml:"yearly_stats" json:"yearly_stats"`
	Overall      string `yaml:"overall_stats" json:"overall_stats"`
	Drawdown     string `yaml:"drawdown_curve" json:"drawdown_curve"`
	Cash         string `yaml:"cash_snapshots" json:"cash_snapshots"`
}

func DefaultFiles() Files {
	return Files{
		Transactions: "portfolio_transactions.csv",
		Positions:    "portfolio_positions.csv",
		WeeklyPnL:    "weekly_pnl.csv",
		WeeklyTotals: "weekly_totals.csv",
		WeeklyWide:   "weekly_pnl_wide.csv",
		Yearly:       "yearly_stats.csv",
		Overall:      "overall_stats.csv",
		Drawdown:     "drawdown_curve.csv",
		Cash:         "cash_snapshots.csv",
	}
}

// WithDefaults fills blank names from DefaultFiles.
func (f Files) WithDefaults() Files {
	d := DefaultFiles()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&f.Transactions, d.Transactions)
	fill(&f.Positions, d.Positions)
	fill(&f.WeeklyPnL, d.WeeklyPnL)
	fill(&f.WeeklyTotals, d.WeeklyTotals)
	fill(&f.WeeklyWide, d.WeeklyWide)
	fill(&f.Yearly, d.Yearly)
	fill(&f.Overall, d.Overall)
	fill(&f.Drawdown, d.Drawdown)
	fill(&f.Cash, d.Cash)
	return f
}

// CSVJournal buffers the run in memory and writes each table as a whole
// file, so a failed run never leaves a half-written table behind.
type CSVJournal struct {
	dir   string
	files Files

	txs  []transactionRecord
	cash []cashRecord
}

func NewCSV(dir string, files Files) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &CSVJournal{dir: dir, files: files.WithDefaults()}, nil
}

// Path returns the full path of a table file.
func (j *CSVJournal) Path(name string) string {
	return filepath.Join(j.dir, name)
}

func (j *CSVJournal) RecordTransaction(tx loan.Transaction) error {
	j.txs = append(j.txs, toTransactionRecord(tx))
	return nil
}

func (j *CSVJournal) RecordCash(s CashSnapshot) error {
	j.cash = append(j.cash, toCashRecord(s))
	return nil
}

func (j *CSVJournal) WriteResults(_ Run, res Results) error {
	totals, wide, dd := toTotalRecords(res.Totals)
	overall := []overallRecord{toOverallRecord(res.Overall)}

	tables := []struct {
		name string
		rows any
	}{
		{j.files.Positions, toPositionRecords(res.Positions)},
		{j.files.WeeklyPnL, toPnLRecords(res.Rows)},
		{j.files.WeeklyTotals, totals},
		{j.files.WeeklyWide, wide},
		{j.files.Yearly, toYearRecords(res.Yearly)},
		{j.files.Overall, overall},
		{j.files.Drawdown, dd},
	}
	for _, t := range tables {
		if err := writeTable(j.Path(t.name), t.rows); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the ledger and cash books.
func (j *CSVJournal) Close() error {
	if err := writeTable(j.Path(j.files.Transactions), j.txs); err != nil {
		return err
	}
	return writeTable(j.Path(j.files.Cash), j.cash)
}

// writeTable marshals rows to a temp file next to path and renames it
// into place.
func writeTable(path string, rows any) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := gocsv.Marshal(rows, f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadLedgerCSV loads a transactions table written by CSVJournal.
func ReadLedgerCSV(path string) (loan.Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recs []transactionRecord
	if err := gocsv.UnmarshalFile(f, &recs); err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	ledger := make(loan.Ledger, 0, len(recs))
	for _, r := range recs {
		if _, err := loan.ParseTxType(string(r.Type)); err != nil {
			return nil, fmt.Errorf("read ledger %s: loan %d: %w", path, r.LoanID, err)
		}
		ledger = append(ledger, r.transaction())
	}
	return ledger, nil
}

// ReadCashCSV loads a cash snapshot table written by CSVJournal.
func ReadCashCSV(path string) ([]CashSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recs []cashRecord
	if err := gocsv.UnmarshalFile(f, &recs); err != nil {
		return nil, fmt.Errorf("read cash %s: %w", path, err)
	}
	out := make([]CashSnapshot, len(recs))
	for i, r := range recs {
		out[i] = CashSnapshot{
			Week:          r.Week,
			Date:          time.Time(r.Date),
			IndexRate:     r.IndexRate,
			Cash:          r.Cash,
			Outstanding:   r.Outstanding,
			OpenPositions: r.OpenPositions,
			Interest:      r.Interest,
			Recoveries:    r.Recoveries,
			Principal:     r.Principal,
			Loss:          r.Loss,
			FundedAmount:  r.FundedAmount,
			Funded:        r.Funded,
			Defaulted:     r.Defaulted,
			Matured:       r.Matured,
		}
	}
	return out, nil
}
