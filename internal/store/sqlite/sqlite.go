// Package sqlite implements the document store on SQLite via the pure-Go
// modernc.org/sqlite driver (no CGo, so the binary cross-compiles anywhere
// Go runs). Documents live in a single key/body table; the body is the JSON
// encoding of whatever struct the caller handed to Put.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	// Blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/perfpulse/pulselink/internal/store"
)

// compile-time check that *DB implements store.Store
var _ store.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool with the document store contract.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection avoids
	// SQLITE_BUSY and keeps ":memory:" databases on one connection.
	conn.SetMaxOpenConns(1)

	// Surface a bad path or permissions problem now, not on first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn, logger: logger}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool, flushing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			key        TEXT PRIMARY KEY,
			body       BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// Get decodes the document at key into dest. Missing rows and undecodable
// bodies both report (false, nil); the caller sees "absent" either way.
// Corrupt bodies are logged so an operator can notice, but never break the
// read path.
func (db *DB) Get(ctx context.Context, key string, dest any) (bool, error) {
	var body []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE key = ?`, key,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: reading document %s: %w", key, err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		db.logger.Warn("corrupt document treated as absent",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false, nil
	}
	return true, nil
}

// Put stores the JSON encoding of doc at key, replacing any prior value.
func (db *DB) Put(ctx context.Context, key string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("sqlite: encoding document %s: %w", key, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		key, body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing document %s: %w", key, err)
	}
	return nil
}

// Exists reports whether any row is stored at key. A corrupt body still
// counts as existing: code generation must not reuse a code whose document
// merely failed to decode.
func (db *DB) Exists(ctx context.Context, key string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE key = ?`, key,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking document %s: %w", key, err)
	}
	return true, nil
}
