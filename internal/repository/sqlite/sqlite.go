// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the Go binary as a single file.
// A personal blog runs on one server, so there is no separate database to install,
// back up or keep reachable. Tests use ":memory:" for a throwaway database.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means a C compiler is needed and cross-compilation
// becomes painful. modernc.org/sqlite is a pure Go translation of SQLite.
//
// DOCUMENT-SHAPED DATA:
// Each resource gets one table. List fields (tags, experiences, social links) are
// stored as JSON text in a single column, because they are always read and written
// as a whole together with their parent row.
//
// ERROR WRAPPING:
// Driver errors are wrapped with github.com/pkg/errors, which records the call
// stack at the wrap site. Development builds print it with %+v in the error
// response, so a failing query points straight at the store method that ran it.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
)

// DB wraps a sql.DB connection pool and hands out one store per table.
//
// WHY WRAP sql.DB IN A STRUCT?
//  1. We control the lifecycle (New creates it, Close destroys it)
//  2. Migrations run exactly once, in New
//  3. The stores share one pool but each implements a single repository interface
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/blog.db"  → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests; lost on close)
//
// CONNECTION POOL:
// sql.Open() does NOT open a connection: it creates a pool manager.
// We call Ping() to force an immediate connection and verify it works.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time. A single pooled connection serializes
	// writes inside the process instead of surfacing SQLITE_BUSY, and it keeps
	// ":memory:" databases alive (every new connection would get an empty one).
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) lets readers in other processes (backups, the
	// sqlite3 shell) work while the server writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Users returns the store for user accounts.
func (db *DB) Users() *UserStore { return &UserStore{conn: db.conn} }

// Blogs returns the store for blog posts.
func (db *DB) Blogs() *BlogStore { return &BlogStore{conn: db.conn} }

// About returns the store for the about profile.
func (db *DB) About() *AboutStore { return &AboutStore{conn: db.conn} }

// Contacts returns the store for contact messages.
func (db *DB) Contacts() *ContactStore { return &ContactStore{conn: db.conn} }

// Settings returns the store for site settings.
func (db *DB) Settings() *SettingsStore { return &SettingsStore{conn: db.conn} }

// migrate creates every table.
//
// CREATE TABLE IF NOT EXISTS is idempotent, so migrate runs on every start.
// Columns added after the first release go through addColumnIfNotExists.
func (db *DB) migrate() error {
	// github_id is NULL for password accounts; UNIQUE ignores NULLs in SQLite.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	if err := db.addColumnIfNotExists("users", "github_id", "INTEGER"); err != nil {
		return fmt.Errorf("adding github_id to users: %w", err)
	}
	if _, err := db.conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id ON users(github_id);
	`); err != nil {
		return fmt.Errorf("creating users github_id index: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS blogs (
			id                TEXT PRIMARY KEY,
			title             TEXT NOT NULL,
			content           TEXT NOT NULL,
			short_description TEXT NOT NULL,
			publish_date      DATETIME NOT NULL,
			slug              TEXT NOT NULL UNIQUE,
			tags              TEXT NOT NULL DEFAULT '[]',
			view_count        INTEGER NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_blogs_publish_date ON blogs(publish_date);
	`)
	if err != nil {
		return fmt.Errorf("creating blogs table: %w", err)
	}

	// Singleton tables pin their only row to id = 1.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS about (
			id           INTEGER PRIMARY KEY CHECK (id = 1),
			name         TEXT NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL,
			experiences  TEXT NOT NULL DEFAULT '[]',
			technologies TEXT NOT NULL DEFAULT '[]',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating about table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contacts (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL,
			message    TEXT NOT NULL,
			is_read    INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating contacts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			id               INTEGER PRIMARY KEY CHECK (id = 1),
			social_media     TEXT NOT NULL DEFAULT '[]',
			contact_email    TEXT NOT NULL DEFAULT '',
			contact_location TEXT NOT NULL DEFAULT '',
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating settings table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent: safe to run multiple times.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if stderrors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// validID reports whether id has the shape of an xid. Ids that cannot exist are
// answered with NotFound without touching the database.
func validID(id string) bool {
	_, err := xid.FromString(id)
	return err == nil
}

func encodeList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", errors.Wrap(err, "sqlite: encoding list column")
	}
	return string(b), nil
}

func decodeList[T any](raw string) ([]T, error) {
	items := []T{}
	if raw == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, errors.Wrap(err, "sqlite: decoding list column")
	}
	return items, nil
}

// notFoundOr turns sql.ErrNoRows into the given domain error and wraps anything else.
func notFoundOr(err error, notFound *apperror.AppError, format string, args ...any) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrapf(err, format, args...)
}
