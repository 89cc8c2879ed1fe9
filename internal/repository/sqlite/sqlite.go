// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure-Go translation of SQLite. No cgo and no C compiler: the binary
// cross-compiles like any other Go program. It registers itself with
// database/sql under the driver name "sqlite", so everything here is plain
// database/sql code.
//
// ONE *DB, MANY INTERFACES:
// *DB implements repository.UserRepository, ProfileRepository and
// ConnectionRepository. The methods live in user.go, profile.go and
// connection.go; this file owns the connection, the schema and the helpers
// they share.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a *sql.DB connection pool.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and brings the schema up to date.
//
// PRAGMAS IN THE DSN:
// foreign_keys and busy_timeout are per-connection settings in SQLite. Setting
// them with a one-off Exec would only affect whichever pooled connection ran
// it, so we pass them as _pragma parameters instead; the driver applies them
// to every connection it opens.
//
// ":memory:" IN TESTS:
// Every connection to ":memory:" is a brand-new, empty database. We pin the
// pool to a single connection so all queries in a test see the same data.
func New(dbPath string) (*DB, error) {
	memory := dbPath == ":memory:"

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !memory {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Every statement is idempotent (IF NOT EXISTS),
// so it runs on every start.
//
// THE ACTIVE-PAIR INDEX:
// idx_connection_requests_active_pair is a PARTIAL unique index: it only
// covers rows whose status is pending or accepted. Two concurrent requests
// for the same pair can both pass the service's "is there already one?"
// lookup, but only one INSERT can satisfy this index. The other fails with
// SQLITE_CONSTRAINT_UNIQUE, which CreateConnection reports as a conflict.
// Deleted (rejected, cancelled, removed) requests leave no row behind, so a
// fresh request for the pair is allowed afterwards.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			first_name    TEXT NOT NULL,
			last_name     TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL CHECK (role IN ('mentor', 'mentee')),
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			user_id    TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			bio        TEXT NOT NULL DEFAULT '',
			skills     TEXT NOT NULL DEFAULT '[]',
			interests  TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS connection_requests (
			id           TEXT PRIMARY KEY,
			mentor_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			mentee_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			initiator_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status       TEXT NOT NULL DEFAULT 'pending'
			             CHECK (status IN ('pending', 'accepted', 'rejected')),
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (mentor_id <> mentee_id),
			CHECK (initiator_id IN (mentor_id, mentee_id))
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_connection_requests_active_pair
			ON connection_requests(mentor_id, mentee_id)
			WHERE status IN ('pending', 'accepted');
		CREATE INDEX IF NOT EXISTS idx_connection_requests_mentee
			ON connection_requests(mentee_id);
	`)
	if err != nil {
		return fmt.Errorf("creating connection_requests table: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint. The driver enables extended result codes, so the specific
// code is available; the message check covers builds where it is not.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}

// isForeignKeyViolation reports whether err came from a FOREIGN KEY constraint.
func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}

// placeholders returns "?, ?, ?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
