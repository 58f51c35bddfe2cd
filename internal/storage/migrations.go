package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// migration is one versioned, idempotent schema change.
type migration struct {
	ID          int
	Description string
	SQL         string
}

// runMigrations applies every migration that hasn't been recorded yet,
// in order, recording each in a migrations table so reruns are
// idempotent.
func runMigrations(db *sql.DB) error {
	log.Println("storage: running migrations...")

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	migrations := []migration{
		{
			ID:          1,
			Description: "create pastes table",
			SQL: `CREATE TABLE IF NOT EXISTS pastes (
				id TEXT PRIMARY KEY,
				ct TEXT NOT NULL,
				iv TEXT NOT NULL,
				mime TEXT NOT NULL,
				expire_ts INTEGER NOT NULL,
				single_view INTEGER NOT NULL,
				views_allowed INTEGER NOT NULL,
				views_remaining INTEGER NOT NULL,
				allow_chat INTEGER NOT NULL,
				delete_auth_hash BLOB NOT NULL,
				created_ts INTEGER NOT NULL
			)`,
		},
		{
			ID:          2,
			Description: "index pastes by expiration for the reaper",
			SQL:         `CREATE INDEX IF NOT EXISTS pastes_expire ON pastes(expire_ts)`,
		},
		{
			ID:          3,
			Description: "create chat_messages table with cascade delete",
			SQL: `CREATE TABLE IF NOT EXISTS chat_messages (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				paste_id TEXT NOT NULL REFERENCES pastes(id) ON DELETE CASCADE,
				ct TEXT NOT NULL,
				iv TEXT NOT NULL,
				created_ts INTEGER NOT NULL
			)`,
		},
		{
			ID:          4,
			Description: "index chat_messages by paste and creation order",
			SQL:         `CREATE INDEX IF NOT EXISTS chat_paste_created ON chat_messages(paste_id, created_ts)`,
		},
	}

	for _, m := range migrations {
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("applying migration %d: %w", m.ID, err)
		}
	}

	log.Println("storage: migrations complete")
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE id = ?", m.ID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Printf("storage: applying migration %d: %s", m.ID, m.Description)
	if _, err := db.Exec(m.SQL); err != nil {
		return err
	}

	_, err := db.Exec("INSERT INTO migrations (id, description) VALUES (?, ?)", m.ID, m.Description)
	return err
}
