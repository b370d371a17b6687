package journal

// Money columns are TEXT holding exact decimals.
const Schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	dataset TEXT NOT NULL,
	tickers TEXT NOT NULL,
	stop_strategy TEXT NOT NULL,
	equity_mode TEXT NOT NULL,
	config TEXT NOT NULL,
	risk_pct REAL NOT NULL,
	start_date DATETIME,
	end_date DATETIME,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	start_equity TEXT NOT NULL,
	end_equity TEXT NOT NULL,
	net_pnl TEXT NOT NULL,
	return_pct REAL NOT NULL,
	win_rate REAL NOT NULL,
	mean_r REAL NOT NULL,
	median_r REAL NOT NULL,
	skew_warning INTEGER NOT NULL,
	profit_factor REAL, -- NULL when there were no losses
	max_dd_pct REAL NOT NULL,
	failed TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	transaction_number INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	stop_strategy TEXT NOT NULL,
	signal_date DATETIME NOT NULL,
	entry_date DATETIME NOT NULL,
	exit_date DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	entry_price_actual REAL NOT NULL,
	exit_price REAL NOT NULL,
	exit_price_actual REAL NOT NULL,
	shares INTEGER NOT NULL,
	initial_stop REAL NOT NULL,
	final_stop REAL NOT NULL,
	risk_amount TEXT NOT NULL,
	gross_pnl TEXT NOT NULL,
	net_pnl TEXT NOT NULL,
	slippage_cost TEXT NOT NULL,
	entry_commission TEXT NOT NULL,
	exit_commission TEXT NOT NULL,
	r_multiple REAL NOT NULL,
	gross_r_multiple REAL NOT NULL,
	exit_reason TEXT NOT NULL,
	bars_held INTEGER NOT NULL,
	PRIMARY KEY (run_id, transaction_number)
);

CREATE TABLE IF NOT EXISTS trade_legs (
	run_id TEXT NOT NULL,
	transaction_number INTEGER NOT NULL,
	leg INTEGER NOT NULL,
	signal_date DATETIME NOT NULL,
	date DATETIME NOT NULL,
	shares INTEGER NOT NULL,
	price REAL NOT NULL,
	price_actual REAL NOT NULL,
	reason TEXT NOT NULL,
	gross_pnl TEXT NOT NULL,
	net_pnl TEXT NOT NULL,
	slippage_cost TEXT NOT NULL,
	entry_commission TEXT NOT NULL,
	exit_commission TEXT NOT NULL,
	gross_r REAL NOT NULL,
	net_r REAL NOT NULL,
	PRIMARY KEY (run_id, transaction_number, leg)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	transaction_number INTEGER NOT NULL,
	equity TEXT NOT NULL,
	PRIMARY KEY (run_id, transaction_number)
);

CREATE INDEX IF NOT EXISTS idx_trades_exit ON trades(exit_date);
CREATE INDEX IF NOT EXISTS idx_runs_created ON backtest_runs(created);
`
