package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	rates_path TEXT NOT NULL,
	loans_path TEXT NOT NULL,
	seed INTEGER NOT NULL,
	config BLOB,
	initial_target REAL NOT NULL,
	initial_funded REAL NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	weeks INTEGER NOT NULL,
	loans_funded INTEGER NOT NULL,
	loans_defaulted INTEGER NOT NULL,
	loans_matured INTEGER NOT NULL,
	open_positions INTEGER NOT NULL,
	final_cash REAL NOT NULL,
	outstanding REAL NOT NULL,
	total_pnl REAL NOT NULL,
	return_pct REAL,
	max_drawdown_amt REAL NOT NULL,
	max_drawdown_pct REAL
);

CREATE TABLE IF NOT EXISTS transactions (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	loan_id INTEGER NOT NULL,
	date TEXT NOT NULL,
	type TEXT NOT NULL,
	facility_size REAL NOT NULL,
	pd REAL NOT NULL,
	lgd REAL NOT NULL,
	term_years REAL NOT NULL,
	spread_bps REAL NOT NULL,
	total_rate REAL NOT NULL,
	recovery REAL NOT NULL,
	loss REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS cash_snapshots (
	run_id TEXT NOT NULL,
	week_index INTEGER NOT NULL,
	date TEXT NOT NULL,
	index_rate REAL NOT NULL,
	cash REAL NOT NULL,
	outstanding REAL NOT NULL,
	open_positions INTEGER NOT NULL,
	interest REAL NOT NULL,
	recoveries REAL NOT NULL,
	principal_returned REAL NOT NULL,
	loss REAL NOT NULL,
	funded_amount REAL NOT NULL,
	funded INTEGER NOT NULL,
	defaulted INTEGER NOT NULL,
	matured INTEGER NOT NULL,
	PRIMARY KEY (run_id, week_index)
);

CREATE TABLE IF NOT EXISTS positions (
	run_id TEXT NOT NULL,
	loan_id INTEGER NOT NULL,
	date_funded TEXT NOT NULL,
	maturity_date TEXT NOT NULL,
	facility_size REAL NOT NULL,
	pd REAL NOT NULL,
	lgd REAL NOT NULL,
	term_years REAL NOT NULL,
	spread_bps REAL NOT NULL,
	total_rate REAL NOT NULL,
	PRIMARY KEY (run_id, loan_id)
);

CREATE TABLE IF NOT EXISTS weekly_totals (
	run_id TEXT NOT NULL,
	week TEXT NOT NULL,
	interest REAL NOT NULL,
	default_loss REAL NOT NULL,
	pnl REAL NOT NULL,
	exposure REAL NOT NULL,
	cum_pnl REAL NOT NULL,
	roll_max REAL NOT NULL,
	drawdown_amt REAL NOT NULL,
	drawdown_pct REAL,
	PRIMARY KEY (run_id, week)
);

CREATE INDEX IF NOT EXISTS idx_transactions_loan ON transactions(run_id, loan_id);
`
