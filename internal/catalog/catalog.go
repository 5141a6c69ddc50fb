// Package catalog records fetched dataset snapshots in a local SQLite
// database so fetch runs stay auditable.
package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Snapshot describes one downloaded source file.
type Snapshot struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	SHA256    string    `json:"sha256"`
	Bytes     int64     `json:"bytes"`
	Rows      int64     `json:"rows,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Catalog is a SQLite-backed snapshot log.
type Catalog struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path and configures WAL
// mode.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "catalog: exec %s", pragma)
		}
	}
	return &Catalog{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	url        TEXT NOT NULL,
	path       TEXT NOT NULL,
	sha256     TEXT NOT NULL,
	bytes      INTEGER NOT NULL,
	rows       INTEGER NOT NULL DEFAULT 0,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_snapshots_source ON snapshots(source);
CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots(fetched_at);
`

// Migrate creates the schema if it does not exist.
func (c *Catalog) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "catalog: migrate")
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record inserts a snapshot row, assigning id and fetched-at.
func (c *Catalog) Record(ctx context.Context, snap Snapshot) (*Snapshot, error) {
	snap.ID = uuid.New().String()
	snap.FetchedAt = time.Now().UTC()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, source, url, path, sha256, bytes, rows, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Source, snap.URL, snap.Path, snap.SHA256, snap.Bytes, snap.Rows, snap.FetchedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: insert snapshot %s", snap.Source)
	}
	return &snap, nil
}

// List returns snapshots newest first, optionally filtered by source name.
func (c *Catalog) List(ctx context.Context, source string, limit int) ([]Snapshot, error) {
	query := `SELECT id, source, url, path, sha256, bytes, rows, fetched_at FROM snapshots`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY fetched_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: list snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Source, &s.URL, &s.Path, &s.SHA256, &s.Bytes, &s.Rows, &s.FetchedAt); err != nil {
			return nil, eris.Wrap(err, "catalog: scan snapshot")
		}
		out = append(out, s)
	}
	return out, eris.Wrap(rows.Err(), "catalog: iterate snapshots")
}

// Latest returns the most recent snapshot for a source, or nil when the
// source has never been fetched.
func (c *Catalog) Latest(ctx context.Context, source string) (*Snapshot, error) {
	snaps, err := c.List(ctx, source, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}
