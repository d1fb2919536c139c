package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/masonlabs/storescan/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *RunDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func sampleSummary(started time.Time, scraped int) *model.RunSummary {
	return &model.RunSummary{
		SitemapSource:    "https://masonstores.com/sitemap.xml",
		TotalURLs:        scraped + 1,
		Scraped:          scraped,
		Errors:           1,
		ImagesDownloaded: scraped * 2,
		StartedAt:        started,
		FinishedAt:       started.Add(10 * time.Minute),
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, DBFileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false fails on missing database", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("Open() on missing database returned nil error")
		}
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if _, err := db.InsertRun(context.Background(), sampleSummary(time.Now().UTC(), 3)); err != nil {
			t.Fatalf("InsertRun() returned error: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("Close() returned error: %v", err)
		}

		reopened, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer reopened.Close()

		entries, err := reopened.ListRuns(context.Background(), 0)
		if err != nil {
			t.Fatalf("ListRuns() returned error: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("len(entries) = %d, want 1", len(entries))
		}
	})
}

func TestRunDBInsertAndList(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		id, err := db.InsertRun(ctx, sampleSummary(started.Add(time.Duration(i)*time.Hour), i*10))
		if err != nil {
			t.Fatalf("InsertRun() returned error: %v", err)
		}
		if id != int64(i) {
			t.Errorf("InsertRun() id = %d, want %d", id, i)
		}
	}

	t.Run("lists newest first", func(t *testing.T) {
		entries, err := db.ListRuns(ctx, 0)
		if err != nil {
			t.Fatalf("ListRuns() returned error: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("len(entries) = %d, want 3", len(entries))
		}
		if entries[0].ID != 3 || entries[2].ID != 1 {
			t.Errorf("entries ordered %d..%d, want newest (3) first", entries[0].ID, entries[2].ID)
		}
		if entries[0].Summary.Scraped != 30 {
			t.Errorf("newest Summary.Scraped = %d, want 30", entries[0].Summary.Scraped)
		}
	})

	t.Run("honors the limit", func(t *testing.T) {
		entries, err := db.ListRuns(ctx, 2)
		if err != nil {
			t.Fatalf("ListRuns() returned error: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("len(entries) = %d, want 2", len(entries))
		}
	})

	t.Run("latest run round-trips the summary", func(t *testing.T) {
		latest, err := db.LatestRun(ctx)
		if err != nil {
			t.Fatalf("LatestRun() returned error: %v", err)
		}
		if latest == nil {
			t.Fatal("LatestRun() = nil, want an entry")
		}
		if latest.Summary.TotalURLs != 31 {
			t.Errorf("Summary.TotalURLs = %d, want 31", latest.Summary.TotalURLs)
		}
		if !latest.Summary.StartedAt.Equal(started.Add(3 * time.Hour)) {
			t.Errorf("Summary.StartedAt = %v, want %v", latest.Summary.StartedAt, started.Add(3*time.Hour))
		}
	})
}

func TestRunDBLatestRunEmpty(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	latest, err := db.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("LatestRun() returned error: %v", err)
	}
	if latest != nil {
		t.Errorf("LatestRun() = %+v, want nil on empty history", latest)
	}
}

func TestRunDBFetches(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	fetched := time.Date(2026, 8, 20, 9, 15, 0, 0, time.UTC)

	runID, err := db.InsertRun(ctx, sampleSummary(fetched, 2))
	if err != nil {
		t.Fatalf("InsertRun() returned error: %v", err)
	}

	results := []model.FetchResult{
		{
			URL:        "https://masonstores.com/products/velvet-sofa",
			ProductID:  "velvet-sofa",
			StatusCode: 200,
			FetchedAt:  fetched,
		},
		{
			URL:        "https://masonstores.com/products/oak-side-table",
			StatusCode: 404,
			Error:      "fetch: status 404 after 4 attempts",
			FetchedAt:  fetched.Add(5 * time.Second),
		},
	}
	if err := db.InsertFetches(ctx, runID, results); err != nil {
		t.Fatalf("InsertFetches() returned error: %v", err)
	}

	t.Run("round-trips outcomes in fetch order", func(t *testing.T) {
		got, err := db.ListFetches(ctx, runID)
		if err != nil {
			t.Fatalf("ListFetches() returned error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len(results) = %d, want 2", len(got))
		}
		if got[0].ProductID != "velvet-sofa" || !got[0].OK() {
			t.Errorf("first outcome = %+v, want velvet-sofa success", got[0])
		}
		if got[1].StatusCode != 404 || got[1].OK() {
			t.Errorf("second outcome = %+v, want 404 failure", got[1])
		}
		if !got[1].FetchedAt.Equal(fetched.Add(5 * time.Second)) {
			t.Errorf("FetchedAt = %v, want %v", got[1].FetchedAt, fetched.Add(5*time.Second))
		}
	})

	t.Run("unknown run has no outcomes", func(t *testing.T) {
		got, err := db.ListFetches(ctx, runID+1)
		if err != nil {
			t.Fatalf("ListFetches() returned error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("len(results) = %d, want 0", len(got))
		}
	})

	t.Run("empty insert is a no-op", func(t *testing.T) {
		if err := db.InsertFetches(ctx, runID, nil); err != nil {
			t.Errorf("InsertFetches() with no results returned error: %v", err)
		}
	})
}

func TestRunDBInterruptedFlag(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	summary := sampleSummary(time.Now().UTC(), 5)
	summary.Interrupted = true
	if _, err := db.InsertRun(ctx, summary); err != nil {
		t.Fatalf("InsertRun() returned error: %v", err)
	}

	latest, err := db.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun() returned error: %v", err)
	}
	if latest == nil || !latest.Summary.Interrupted {
		t.Error("Interrupted flag missing from stored summary")
	}
}
