// Package history keeps a record of every reference price update.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"reference-price-updater/internal/prices"
)

// Update is one successful refresh of the reference table.
type Update struct {
	Timestamp time.Time    `json:"timestamp"`
	Prices    prices.Table `json:"prices"`
	Count     int          `json:"count"`
}

func NewUpdate(now time.Time, table prices.Table) Update {
	return Update{Timestamp: now, Prices: table, Count: len(table)}
}

type Recorder interface {
	Record(ctx context.Context, u Update) error
}

// FileRecorder appends updates to a JSON array in
// <Dir>/price_updates_<YYYY-MM-DD>.json.
type FileRecorder struct {
	Dir string
	mu  sync.Mutex
}

func (f *FileRecorder) path(t time.Time) string {
	return filepath.Join(f.Dir, "price_updates_"+t.UTC().Format("2006-01-02")+".json")
}

func (f *FileRecorder) Record(ctx context.Context, u Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	path := f.path(u.Timestamp)
	var updates []Update
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &updates); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return err
	}

	updates = append(updates, u)
	out, err := json.MarshalIndent(updates, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

// SQLRecorder stores updates in the price_updates table created by
// migrations/001_init.sql.
type SQLRecorder struct {
	db      *sql.DB
	dialect string
}

// Open connects to a postgres or sqlite database.
func Open(driver, dsn string) (*SQLRecorder, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return NewSQLRecorder(db, driver), nil
}

func NewSQLRecorder(db *sql.DB, dialect string) *SQLRecorder {
	return &SQLRecorder{db: db, dialect: dialect}
}

func (r *SQLRecorder) Record(ctx context.Context, u Update) error {
	payload, err := json.Marshal(u.Prices)
	if err != nil {
		return err
	}

	query := `INSERT INTO price_updates (recorded_at, count, prices) VALUES ($1, $2, $3)`
	if r.dialect == "sqlite" {
		query = `INSERT INTO price_updates (recorded_at, count, prices) VALUES (?, ?, ?)`
	}

	if _, err := r.db.ExecContext(ctx, query, u.Timestamp.UTC(), u.Count, string(payload)); err != nil {
		return fmt.Errorf("insert price update: %w", err)
	}
	return nil
}

func (r *SQLRecorder) Close() error {
	return r.db.Close()
}
