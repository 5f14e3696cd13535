// Package catalog maintains a SQLite index of game asset files: one
// row per parsed file with its kind and a few headline numbers, so a
// data tree can be queried without re-reading gigabytes of archives.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/rosedev/rose2go/internal/catalog/migrations"
)

// Asset is one catalogued file.
type Asset struct {
	Path      string
	Kind      string
	SizeBytes int64
	Records   int64
	Detail    string
	ScannedAt time.Time
}

// KindCount is one row of a per-kind aggregate.
type KindCount struct {
	Kind      string
	Files     int64
	SizeBytes int64
	Records   int64
}

// Store wraps the catalog database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog at the given path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_foreign_keys=1&_journal=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging catalog: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces the row for the asset's path.
func (s *Store) Put(ctx context.Context, a Asset) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (path, kind, size_bytes, records, detail, scanned_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   kind = excluded.kind,
		   size_bytes = excluded.size_bytes,
		   records = excluded.records,
		   detail = excluded.detail,
		   scanned_at = excluded.scanned_at`,
		a.Path, a.Kind, a.SizeBytes, a.Records, a.Detail, a.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("storing asset %q: %w", a.Path, err)
	}
	return nil
}

// Get returns the asset catalogued under path.
// Returns nil, nil when the path is not catalogued.
func (s *Store) Get(ctx context.Context, path string) (*Asset, error) {
	var a Asset
	err := s.db.QueryRowContext(ctx,
		`SELECT path, kind, size_bytes, records, detail, scanned_at
		 FROM assets WHERE path = ?`, path,
	).Scan(&a.Path, &a.Kind, &a.SizeBytes, &a.Records, &a.Detail, &a.ScannedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying asset %q: %w", path, err)
	}
	return &a, nil
}

// ByKind returns all assets of one kind ordered by path.
func (s *Store) ByKind(ctx context.Context, kind string) ([]Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, kind, size_bytes, records, detail, scanned_at
		 FROM assets WHERE kind = ? ORDER BY path`, kind)
	if err != nil {
		return nil, fmt.Errorf("querying assets of kind %q: %w", kind, err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.Path, &a.Kind, &a.SizeBytes, &a.Records, &a.Detail, &a.ScannedAt); err != nil {
			return nil, fmt.Errorf("scanning asset row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Stats aggregates the catalog per kind, ordered by file count.
func (s *Store) Stats(ctx context.Context) ([]KindCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*), SUM(size_bytes), SUM(records)
		 FROM assets GROUP BY kind ORDER BY COUNT(*) DESC, kind`)
	if err != nil {
		return nil, fmt.Errorf("querying catalog stats: %w", err)
	}
	defer rows.Close()

	var out []KindCount
	for rows.Next() {
		var k KindCount
		if err := rows.Scan(&k.Kind, &k.Files, &k.SizeBytes, &k.Records); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Count returns the total number of catalogued assets.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting assets: %w", err)
	}
	return n, nil
}
