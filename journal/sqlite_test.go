package journal

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/creditsim/loan"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	for _, name := range []string{"runs", "transactions", "cash_snapshots", "positions", "weekly_totals"} {
		assert.True(t, found[name], name)
	}
}

func TestSQLiteRecordBeforeBeginRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	p := samplePosition()
	assert.ErrorIs(t, j.RecordTransaction(p.Transaction(loan.Fund, d0, 0, 0)), ErrNoRun)
	assert.ErrorIs(t, j.RecordCash(CashSnapshot{}), ErrNoRun)
	assert.ErrorIs(t, j.WriteResults(Run{}, Results{}), ErrNoRun)
}

func TestSQLiteRecordTransaction(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.BeginRun("R1"))

	p := samplePosition()
	require.NoError(t, j.RecordTransaction(p.Transaction(loan.Fund, d0, 0, 0)))
	require.NoError(t, j.RecordTransaction(p.Transaction(loan.Mature, d1, p.FacilitySize, 0)))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		seq      int
		loanID   int64
		date     string
		typ      string
		facility float64
		rate     float64
		recovery float64
	)
	err = db.QueryRow(`
		SELECT seq, loan_id, date, type, facility_size, total_rate, recovery
		FROM transactions WHERE run_id = 'R1' ORDER BY seq DESC LIMIT 1`).Scan(
		&seq, &loanID, &date, &typ, &facility, &rate, &recovery,
	)
	require.NoError(t, err)

	assert.Equal(t, 2, seq)
	assert.Equal(t, int64(1), loanID)
	assert.Equal(t, "2024-01-08", date)
	assert.Equal(t, "MATURE", typ)
	assert.InDelta(t, p.FacilitySize, facility, 1e-6)
	assert.InDelta(t, p.TotalRate, rate, 1e-12)
	assert.InDelta(t, p.FacilitySize, recovery, 1e-6)
}

func TestSQLiteAbortDiscardsRun(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.BeginRun("R1"))
	p := samplePosition()
	require.NoError(t, j.RecordTransaction(p.Transaction(loan.Fund, d0, 0, 0)))
	require.NoError(t, j.Abort())
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&n))
	assert.Zero(t, n)
}
