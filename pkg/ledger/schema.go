package ledger

import "database/sql"

// createTables builds the wallets/escrows/entries schema, per spec §6
// "Persisted state layout": signed amount columns, a mandatory uniqueness
// constraint on (idempotency_key, direction), and CHECK(balance >= 0) as a
// defense-in-depth backstop against an application bug, not just transfer's
// conditional debit. The wallets CHECK exempts the two fixed mint/sink
// account ids ("-faucet", "-admin" — see isMintAccount in ledger.go), which
// are allowed to run negative by design; every real user wallet is still
// bound by it at the DB level.
func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS wallets (
			user_id TEXT PRIMARY KEY,
			balance INTEGER NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'CHIP',
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CHECK (balance >= 0 OR user_id IN ('-faucet', '-admin'))
		)`,
		`CREATE TABLE IF NOT EXISTS wallet_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id TEXT NOT NULL,
			table_id TEXT,
			amount INTEGER NOT NULL,
			direction TEXT NOT NULL,
			entry_type TEXT NOT NULL,
			idempotency_key TEXT NOT NULL,
			balance_after INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (idempotency_key, direction)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wallet_entries_account ON wallet_entries(account_id)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
