package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// SQLiteStore is the Store implementation backing production
// deployments: a single-writer connection pool over the full
// paste+chat schema.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path, enables foreign keys and WAL journaling,
// and runs pending migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("storage: ping: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("storage: enable foreign keys: %w", err)
	}
	// WAL lets readers proceed concurrently with the single writer;
	// the default rollback-journal mode does not give that.
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("storage: enable WAL: %w", err)
	}

	// SQLite is happiest with a single writer connection. The pool is
	// capped at one connection in total, so reads and writes are
	// serialized through it; reads do not run concurrently.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	log.Printf("storage: connected to %s", path)
	return &SQLiteStore{db: db}, nil
}

// Health reports whether the underlying connection is reachable.
func (s *SQLiteStore) Health() error {
	return s.db.Ping()
}

// Stats exposes the pool's connection counters for the detailed
// health endpoint.
func (s *SQLiteStore) Stats() sql.DBStats {
	return s.db.Stats()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertPaste(ctx context.Context, p *Paste) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pastes (id, ct, iv, mime, expire_ts, single_view, views_allowed, views_remaining, allow_chat, delete_auth_hash, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Ct, p.Iv, p.Mime, p.ExpireTs, boolToInt(p.SingleView), p.ViewsAllowed, p.ViewsRemaining, boolToInt(p.AllowChat), p.DeleteAuthHash, p.CreatedTs,
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return ErrIDConflict
		}
		return fmt.Errorf("storage: insert paste: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPaste(ctx context.Context, id string, now int64) (*Paste, Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, OutcomeNotFound, fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	p, err := scanPaste(tx.QueryRowContext(ctx, selectPasteSQL, id))
	if err == sql.ErrNoRows {
		return nil, OutcomeNotFound, nil
	}
	if err != nil {
		return nil, OutcomeNotFound, fmt.Errorf("storage: get paste: %w", err)
	}

	if p.ExpireTs < now {
		if _, err := tx.ExecContext(ctx, "DELETE FROM pastes WHERE id = ?", id); err != nil {
			return nil, OutcomeNotFound, fmt.Errorf("storage: reap on read: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, OutcomeNotFound, fmt.Errorf("storage: commit reap: %w", err)
		}
		return nil, OutcomeGone, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, OutcomeNotFound, fmt.Errorf("storage: commit: %w", err)
	}
	return p, OutcomeFound, nil
}

// ConsumeView selects the row, decides whether this was the last
// remaining view, and if so deletes the row, all inside one
// transaction so at most one caller ever observes a given remaining
// view.
func (s *SQLiteStore) ConsumeView(ctx context.Context, id string, now int64) (*Paste, Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, OutcomeNotFound, fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	p, err := scanPaste(tx.QueryRowContext(ctx, selectPasteSQL, id))
	if err == sql.ErrNoRows {
		return nil, OutcomeNotFound, nil
	}
	if err != nil {
		return nil, OutcomeNotFound, fmt.Errorf("storage: consume view: %w", err)
	}

	if p.ExpireTs < now {
		if _, err := tx.ExecContext(ctx, "DELETE FROM pastes WHERE id = ?", id); err != nil {
			return nil, OutcomeNotFound, fmt.Errorf("storage: reap on consume: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, OutcomeNotFound, fmt.Errorf("storage: commit reap: %w", err)
		}
		return nil, OutcomeGone, nil
	}

	if p.ViewsRemaining > 0 {
		p.ViewsRemaining--
		if p.ViewsRemaining <= 0 {
			if _, err := tx.ExecContext(ctx, "DELETE FROM pastes WHERE id = ?", id); err != nil {
				return nil, OutcomeNotFound, fmt.Errorf("storage: delete consumed paste: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, "UPDATE pastes SET views_remaining = ? WHERE id = ?", p.ViewsRemaining, id); err != nil {
				return nil, OutcomeNotFound, fmt.Errorf("storage: decrement views_remaining: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, OutcomeNotFound, fmt.Errorf("storage: commit consume: %w", err)
	}
	return p, OutcomeFound, nil
}

func (s *SQLiteStore) DeletePaste(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM pastes WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("storage: delete paste: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) AppendChat(ctx context.Context, pasteID, ct, iv string, now int64, maxMessages int) (int, Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, OutcomeNotFound, fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	var expireTs int64
	var allowChat int
	err = tx.QueryRowContext(ctx, "SELECT expire_ts, allow_chat FROM pastes WHERE id = ?", pasteID).Scan(&expireTs, &allowChat)
	if err == sql.ErrNoRows {
		return 0, OutcomeNotFound, nil
	}
	if err != nil {
		return 0, OutcomeNotFound, fmt.Errorf("storage: append chat lookup: %w", err)
	}
	if expireTs < now {
		return 0, OutcomeGone, nil
	}
	if allowChat == 0 {
		return 0, OutcomeFound, ErrChatDisabled
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO chat_messages (paste_id, ct, iv, created_ts) VALUES (?, ?, ?, ?)", pasteID, ct, iv, now); err != nil {
		return 0, OutcomeNotFound, fmt.Errorf("storage: insert chat message: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM chat_messages WHERE paste_id = ?", pasteID).Scan(&count); err != nil {
		return 0, OutcomeNotFound, fmt.Errorf("storage: count chat messages: %w", err)
	}

	if count > maxMessages {
		overflow := count - maxMessages
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM chat_messages WHERE id IN (
				SELECT id FROM chat_messages WHERE paste_id = ?
				ORDER BY created_ts ASC, id ASC LIMIT ?
			)`, pasteID, overflow); err != nil {
			return 0, OutcomeNotFound, fmt.Errorf("storage: trim chat ring: %w", err)
		}
		count = maxMessages
	}

	if err := tx.Commit(); err != nil {
		return 0, OutcomeNotFound, fmt.Errorf("storage: commit append chat: %w", err)
	}
	return count, OutcomeFound, nil
}

func (s *SQLiteStore) ListChat(ctx context.Context, pasteID string, now int64) ([]ChatMessage, Outcome, error) {
	var expireTs int64
	err := s.db.QueryRowContext(ctx, "SELECT expire_ts FROM pastes WHERE id = ?", pasteID).Scan(&expireTs)
	if err == sql.ErrNoRows {
		return nil, OutcomeNotFound, nil
	}
	if err != nil {
		return nil, OutcomeNotFound, fmt.Errorf("storage: list chat lookup: %w", err)
	}
	if expireTs < now {
		return nil, OutcomeGone, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, paste_id, ct, iv, created_ts FROM chat_messages WHERE paste_id = ? ORDER BY created_ts ASC, id ASC", pasteID)
	if err != nil {
		return nil, OutcomeNotFound, fmt.Errorf("storage: list chat: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.PasteID, &m.Ct, &m.Iv, &m.CreatedTs); err != nil {
			return nil, OutcomeNotFound, fmt.Errorf("storage: scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, OutcomeNotFound, fmt.Errorf("storage: rows: %w", err)
	}

	return messages, OutcomeFound, nil
}

func (s *SQLiteStore) ReapExpired(ctx context.Context, now int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM pastes WHERE expire_ts < ?", now)
	if err != nil {
		return 0, fmt.Errorf("storage: reap expired: %w", err)
	}
	return res.RowsAffected()
}

const selectPasteSQL = `
	SELECT id, ct, iv, mime, expire_ts, single_view, views_allowed, views_remaining, allow_chat, delete_auth_hash, created_ts
	FROM pastes WHERE id = ?`

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanPaste(row scannable) (*Paste, error) {
	var p Paste
	var singleView, allowChat int
	if err := row.Scan(&p.ID, &p.Ct, &p.Iv, &p.Mime, &p.ExpireTs, &singleView, &p.ViewsAllowed, &p.ViewsRemaining, &allowChat, &p.DeleteAuthHash, &p.CreatedTs); err != nil {
		return nil, err
	}
	p.SingleView = singleView != 0
	p.AllowChat = allowChat != 0
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && (containsFold(err.Error(), "UNIQUE constraint") || containsFold(err.Error(), "PRIMARY KEY"))
}

func containsFold(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if equalFold(s[i:i+len(substr)], substr) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
