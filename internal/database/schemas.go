package database

// schemas maps database names to their schema DDL. Statements use
// IF NOT EXISTS so Migrate is safe to run on every startup.
var schemas = map[string]string{
	"ledger": `
CREATE TABLE IF NOT EXISTS transactions (
	activity_id   INTEGER PRIMARY KEY,
	symbol        TEXT NOT NULL,
	trade_date    INTEGER NOT NULL,
	type          TEXT NOT NULL,
	net_amount    REAL NOT NULL DEFAULT 0,
	split_ratio   REAL,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_symbol_date
	ON transactions(symbol, trade_date, activity_id);

CREATE TABLE IF NOT EXISTS transfer_items (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	activity_id   INTEGER NOT NULL REFERENCES transactions(activity_id) ON DELETE CASCADE,
	symbol        TEXT NOT NULL,
	amount        REAL NOT NULL,
	price         REAL NOT NULL DEFAULT 0,
	cost          REAL NOT NULL DEFAULT 0,
	position_effect TEXT
);
CREATE INDEX IF NOT EXISTS idx_transfer_items_activity
	ON transfer_items(activity_id);

CREATE TABLE IF NOT EXISTS orders (
	id            TEXT PRIMARY KEY,
	symbol        TEXT NOT NULL,
	side          TEXT NOT NULL,
	quantity      REAL NOT NULL,
	limit_price   REAL,
	status        TEXT NOT NULL DEFAULT 'OPEN',
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_symbol_status
	ON orders(symbol, status);
`,

	"history": `
CREATE TABLE IF NOT EXISTS daily_candles (
	symbol  TEXT NOT NULL,
	date    INTEGER NOT NULL,
	open    REAL NOT NULL,
	high    REAL NOT NULL,
	low     REAL NOT NULL,
	close   REAL NOT NULL,
	volume  INTEGER,
	PRIMARY KEY (symbol, date)
);
`,

	"cache": `
CREATE TABLE IF NOT EXISTS lot_snapshots (
	symbol     TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	price      REAL NOT NULL,
	created_at INTEGER NOT NULL
);
`,
}
