package oui

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Database is a SQLite-backed OUI registry.
type Database struct {
	db         *sql.DB
	mu         sync.RWMutex
	closed     bool
	lookupStmt *sql.Stmt
}

// Entry is one registry row.
type Entry struct {
	Prefix      string
	Vendor      string
	VendorShort string
	LastUpdated time.Time
}

// Stats summarizes the registry.
type Stats struct {
	TotalEntries int
	LastUpdated  time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS oui_registry (
	prefix TEXT PRIMARY KEY,
	vendor TEXT NOT NULL,
	vendor_short TEXT,
	last_updated INTEGER
);
CREATE INDEX IF NOT EXISTS idx_vendor ON oui_registry(vendor);
`

const upsertQuery = `
INSERT OR REPLACE INTO oui_registry (prefix, vendor, vendor_short, last_updated)
VALUES (?, ?, ?, ?)`

// OpenDatabase opens (creating if needed) the registry at path.
func OpenDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &DatabaseError{Op: "ping", Err: err}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &DatabaseError{Op: "schema", Err: err}
	}
	stmt, err := db.Prepare("SELECT COALESCE(NULLIF(vendor_short, ''), vendor) FROM oui_registry WHERE prefix = ?")
	if err != nil {
		db.Close()
		return nil, &DatabaseError{Op: "prepare", Err: err}
	}
	return &Database{db: db, lookupStmt: stmt}, nil
}

func (d *Database) Lookup(ctx context.Context, prefix string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return "", ErrRepositoryClosed
	}
	var vendor string
	err := d.lookupStmt.QueryRowContext(ctx, NormalizePrefix(prefix)).Scan(&vendor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrVendorNotFound
	}
	if err != nil {
		return "", &DatabaseError{Op: "lookup", Err: err}
	}
	return vendor, nil
}

// BulkInsert writes entries in one transaction, replacing existing prefixes.
func (d *Database) BulkInsert(ctx context.Context, entries []Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrRepositoryClosed
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return &DatabaseError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return &DatabaseError{Op: "prepare insert", Err: err}
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, NormalizePrefix(e.Prefix), e.Vendor, e.VendorShort, e.LastUpdated.Unix()); err != nil {
			return &DatabaseError{Op: "insert", Prefix: e.Prefix, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &DatabaseError{Op: "commit", Err: err}
	}
	return nil
}

func (d *Database) Stats(ctx context.Context) (Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return Stats{}, ErrRepositoryClosed
	}
	var count int
	var last int64
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(MAX(last_updated), 0) FROM oui_registry",
	).Scan(&count, &last)
	if err != nil {
		return Stats{}, &DatabaseError{Op: "stats", Err: err}
	}
	return Stats{TotalEntries: count, LastUpdated: time.Unix(last, 0)}, nil
}

func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.lookupStmt.Close()
	return d.db.Close()
}
