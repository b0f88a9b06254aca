package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const createVideosTableSQL = `
CREATE TABLE videos (
    seq BIGINT NOT NULL,
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    created_at TEXT NOT NULL,
    storage_key TEXT NOT NULL,
    original_name TEXT NOT NULL,
    size_bytes BIGINT NOT NULL,
    mime_type TEXT NOT NULL
);
CREATE INDEX idx_videos_seq ON videos (seq);
`

func getTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(createVideosTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	return db
}

func sqlTestRecord(n int) *VideoRecord {
	return &VideoRecord{
		ID:           fmt.Sprintf("rec-%d", n),
		Title:        fmt.Sprintf("Recording %d", n),
		CreatedAt:    time.Date(2026, 8, 1, 12, 0, n, 0, time.UTC),
		StorageKey:   fmt.Sprintf("rec-%d.mp4", n),
		OriginalName: fmt.Sprintf("session-%d.mp4", n),
		SizeBytes:    int64(1000 + n),
		MimeType:     "video/mp4",
	}
}

func TestSQLCatalog_AppendAndFindByID(t *testing.T) {
	// given
	c := NewSQLCatalog(getTestDB(t))
	record := sqlTestRecord(0)

	// when
	if err := c.Append(record); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	found, err := c.FindByID(record.ID)

	// then every column round-trips
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.ID != record.ID || found.Title != record.Title {
		t.Errorf("Expected %s/%s, got %s/%s", record.ID, record.Title, found.ID, found.Title)
	}
	if !found.CreatedAt.Equal(record.CreatedAt) {
		t.Errorf("Expected createdAt %v, got %v", record.CreatedAt, found.CreatedAt)
	}
	if found.StorageKey != record.StorageKey || found.OriginalName != record.OriginalName {
		t.Errorf("Storage fields mismatch: %+v", found)
	}
	if found.SizeBytes != record.SizeBytes || found.MimeType != record.MimeType {
		t.Errorf("Size/mime mismatch: %+v", found)
	}
}

func TestSQLCatalog_ListIsNewestFirst(t *testing.T) {
	// given five records appended in order
	c := NewSQLCatalog(getTestDB(t))
	for i := 0; i < 5; i++ {
		if err := c.Append(sqlTestRecord(i)); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	// when
	records, err := c.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	// then listing runs from the last append back to the first
	if len(records) != 5 {
		t.Fatalf("Expected 5 records, got %d", len(records))
	}
	for i, record := range records {
		expected := fmt.Sprintf("rec-%d", 4-i)
		if record.ID != expected {
			t.Errorf("Position %d: expected %s, got %s", i, expected, record.ID)
		}
	}
}

func TestSQLCatalog_AppendRejectsDuplicateID(t *testing.T) {
	c := NewSQLCatalog(getTestDB(t))

	if err := c.Append(sqlTestRecord(0)); err != nil {
		t.Fatalf("First append failed: %v", err)
	}

	err := c.Append(sqlTestRecord(0))
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}

	// the rejected append must not consume a row
	count, err := c.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record after duplicate rejection, got %d", count)
	}
}

func TestSQLCatalog_FindByID_UnknownIsNotFound(t *testing.T) {
	c := NewSQLCatalog(getTestDB(t))

	_, err := c.FindByID("no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLCatalog_CountTracksAppends(t *testing.T) {
	c := NewSQLCatalog(getTestDB(t))

	count, err := c.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected empty catalog, got %d", count)
	}

	for i := 0; i < 3; i++ {
		if err := c.Append(sqlTestRecord(i)); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	count, err = c.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 records, got %d", count)
	}
}
