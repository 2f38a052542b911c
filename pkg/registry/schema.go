package registry

import "database/sql"

// createSchema builds the persisted-tables store this registry recovers
// from on restart (§4.5 "On restart, identifiers are recovered from
// persistent storage and allocation resumes after the maximum"), grounded
// on the teacher's table-state persistence (pkg/server/db.go), generalized
// into a single config-blob row per table rather than the teacher's wider
// per-player snapshot — an in-progress hand is not restorable across a
// process restart in this design (a fresh Lobby is the safe recovery
// state; escrowed chips are untouched and rejoin normally).
func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tables (
			id TEXT PRIMARY KEY,
			numeric_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			creator TEXT NOT NULL,
			config_json TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			active INTEGER NOT NULL DEFAULT 1
		)`)
	return err
}
