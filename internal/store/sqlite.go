package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// defaultMaxVarCount is the number of bound parameters a single SQL
// statement may carry. The reference implementation queries
// SQLITE_LIMIT_VARIABLE_NUMBER from the engine at runtime; the pure-Go
// driver used here does not expose that C API, so we use SQLite's
// long-standing conservative default instead. It must be positive.
const defaultMaxVarCount = 999

// LoginDB owns a single connection to the embedded login database and
// implements the mirror/overlay CRUD surface (C1/C3/C6/C7).
type LoginDB struct {
	db           *sql.DB
	maxVarCount  int
	path         string
	encryptedKey string
}

// Option configures optional settings for LoginDB.
type Option func(*LoginDB)

// WithEncryptionKey requests that the store open an encrypted database.
// Because this build uses the pure-Go modernc.org/sqlite driver (no
// SQLCipher), encrypted storage is never available and Open will fail with
// ErrEncryptionUnsupported whenever a non-empty key is supplied. See
// SPEC_FULL.md §5.
func WithEncryptionKey(key string) Option {
	return func(l *LoginDB) {
		l.encryptedKey = key
	}
}

// Open opens or creates the login database at path (":memory:" for an
// in-memory database), applies pragmas, and runs migrations to the
// current schema version.
func Open(path string, opts ...Option) (*LoginDB, error) {
	l := &LoginDB{path: path}
	for _, opt := range opts {
		opt(l)
	}

	if l.encryptedKey != "" {
		return nil, ErrEncryptionUnsupported
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if path == ":memory:" {
		// Each :memory: connection gets its own database; pin to one
		// connection so all operations see the same state.
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	l.db = db
	l.maxVarCount = defaultMaxVarCount
	if l.maxVarCount <= 0 {
		db.Close()
		return nil, fmt.Errorf("max_var_count must be positive, got %d", l.maxVarCount)
	}

	return l, nil
}

// enablePragmas applies the pragmas required before schema creation.
// temp_store=2 is set unconditionally for every platform; the original
// implementation's comment acknowledges this should be platform-gated
// (Android lacks a writable tmp partition) but spec.md preserves the
// unconditional behavior rather than guessing at intent.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA temp_store = 2",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("execute %s: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (l *LoginDB) Close() error {
	return l.db.Close()
}

// MaxVarCount returns the bound-variable ceiling used to chunk batched
// statements.
func (l *LoginDB) MaxVarCount() int {
	return l.maxVarCount
}
