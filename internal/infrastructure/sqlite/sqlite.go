// Package sqlite is the embedded store used for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photoshare/backend/internal/apperror"

	"github.com/samber/oops"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY CHECK (length(id) = 24),
	name          TEXT NOT NULL,
	about         TEXT NOT NULL,
	avatar        TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cards (
	id         TEXT PRIMARY KEY CHECK (length(id) = 24),
	name       TEXT NOT NULL,
	link       TEXT NOT NULL,
	owner_id   TEXT NOT NULL,
	likes      TEXT NOT NULL DEFAULT '[]' CHECK (json_valid(likes)),
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS cards_created_at_idx ON cards (created_at);
`

// DB wraps the database handle shared by the repositories.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
// ":memory:" gives a private database for the lifetime of the handle.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Code("SQLITE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	// One connection serialises writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, oops.Code("SQLITE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{DB: db}, nil
}

// Close releases the handle.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// Reclassify maps raw constraint failures that escaped a repository onto
// request-level failure kinds.
func Reclassify(err error) (apperror.Kind, bool) {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return 0, false
	}
	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return apperror.Conflict, true
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return apperror.BadInput, true
	}
	return 0, false
}

func isUniqueViolation(err error) bool {
	kind, ok := Reclassify(err)
	return ok && kind == apperror.Conflict
}

func toUnixMicro(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromUnixMicro(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}
