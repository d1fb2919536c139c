package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/masonlabs/storescan/internal/model"
)

// DBFileName is the run-history database file name inside the data
// directory.
const DBFileName = "storescan.db"

// RunDB stores the outcome of past scrape runs in SQLite.
type RunDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the run-history database under dbDir.
// With CreateIfNotExists false, a missing database is an error instead.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("run history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- One row per scrape run, finished or interrupted.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		sitemap_source TEXT NOT NULL,
		total_urls INTEGER NOT NULL,
		scraped INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		images_downloaded INTEGER NOT NULL,
		images_skipped INTEGER NOT NULL,
		images_failed INTEGER NOT NULL,
		interrupted INTEGER NOT NULL DEFAULT 0,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per detail page fetch, successful or not.
	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		product_id TEXT,
		status_code INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		fetched_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_run ON fetches(run_id);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// InsertFetches records the per-URL fetch outcomes of the run with
// runID, in one transaction.
func (rdb *RunDB) InsertFetches(ctx context.Context, runID int64, results []model.FetchResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
	INSERT INTO fetches (run_id, url, product_id, status_code, error, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, r := range results {
		if _, err := tx.ExecContext(ctx, query,
			runID,
			r.URL,
			r.ProductID,
			r.StatusCode,
			r.Error,
			r.FetchedAt.UTC().Format(time.RFC3339),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert fetch outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fetch outcomes: %w", err)
	}
	return nil
}

// ListFetches returns the fetch outcomes recorded for the run with
// runID, in fetch order.
func (rdb *RunDB) ListFetches(ctx context.Context, runID int64) ([]model.FetchResult, error) {
	query := `
	SELECT url, product_id, status_code, error, fetched_at FROM fetches
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := rdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetches: %w", err)
	}
	defer rows.Close()

	var results []model.FetchResult
	for rows.Next() {
		var (
			r         model.FetchResult
			fetchedAt string
		)
		if err := rows.Scan(&r.URL, &r.ProductID, &r.StatusCode, &r.Error, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fetch outcome: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
			r.FetchedAt = t
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// InsertRun records a finished run and returns its row ID.
func (rdb *RunDB) InsertRun(ctx context.Context, summary *model.RunSummary) (int64, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run summary: %w", err)
	}

	query := `
	INSERT INTO runs (
		started_at, finished_at, sitemap_source, total_urls, scraped,
		errors, images_downloaded, images_skipped, images_failed,
		interrupted, summary_json
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := rdb.db.ExecContext(ctx, query,
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.FinishedAt.UTC().Format(time.RFC3339),
		summary.SitemapSource,
		summary.TotalURLs,
		summary.Scraped,
		summary.Errors,
		summary.ImagesDownloaded,
		summary.ImagesSkipped,
		summary.ImagesFailed,
		boolToInt(summary.Interrupted),
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	return result.LastInsertId()
}

// RunEntry is one row of run history.
type RunEntry struct {
	// ID is the run's row ID, newest runs have the highest IDs.
	ID int64

	// Summary is the full run summary as recorded.
	Summary model.RunSummary
}

// ListRuns returns the most recent runs, newest first. A limit of 0
// returns everything.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunEntry, error) {
	query := `
	SELECT id, summary_json FROM runs
	ORDER BY id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var (
			entry       RunEntry
			summaryJSON string
		)
		if err := rows.Scan(&entry.ID, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(summaryJSON), &entry.Summary); err != nil {
			continue // Skip malformed rows
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// LatestRun returns the most recent run, or nil when the history is
// empty.
func (rdb *RunDB) LatestRun(ctx context.Context) (*RunEntry, error) {
	entries, err := rdb.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
