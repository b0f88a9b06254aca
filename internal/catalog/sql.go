package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLCatalog stores records in a relational table. The $n placeholder style
// works on both supported drivers (sqlite3 and postgres). Ordering is by a
// per-row sequence number assigned at insert time, not by timestamp, so
// listing stays insertion-ordered even when clocks move.
type SQLCatalog struct {
	db *sql.DB
}

func NewSQLCatalog(db *sql.DB) *SQLCatalog {
	return &SQLCatalog{db: db}
}

func (c *SQLCatalog) Append(record *VideoRecord) error {
	var exists bool
	err := c.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM videos WHERE id = $1)`, record.ID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateID
	}

	query := `INSERT INTO videos (seq, id, title, created_at, storage_key, original_name, size_bytes, mime_type)
			  VALUES ((SELECT COALESCE(MAX(seq), 0) + 1 FROM videos), $1, $2, $3, $4, $5, $6, $7)`

	_, err = c.db.Exec(query,
		record.ID,
		record.Title,
		record.CreatedAt.UTC().Format(time.RFC3339Nano),
		record.StorageKey,
		record.OriginalName,
		record.SizeBytes,
		record.MimeType,
	)
	return err
}

func (c *SQLCatalog) FindByID(id string) (*VideoRecord, error) {
	query := `SELECT id, title, created_at, storage_key, original_name, size_bytes, mime_type
			  FROM videos WHERE id = $1`

	record, err := scanRecord(c.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (c *SQLCatalog) List() ([]*VideoRecord, error) {
	query := `SELECT id, title, created_at, storage_key, original_name, size_bytes, mime_type
			  FROM videos ORDER BY seq DESC`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*VideoRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (c *SQLCatalog) Count() (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM videos`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*VideoRecord, error) {
	record := &VideoRecord{}
	var createdAt string

	err := row.Scan(
		&record.ID,
		&record.Title,
		&createdAt,
		&record.StorageKey,
		&record.OriginalName,
		&record.SizeBytes,
		&record.MimeType,
	)
	if err != nil {
		return nil, err
	}

	record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for video %s: %w", record.ID, err)
	}
	return record, nil
}
