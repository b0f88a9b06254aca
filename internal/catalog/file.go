package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// catalogFile is the on-disk representation, a single JSON document holding
// the full ordered sequence.
type catalogFile struct {
	Videos []*VideoRecord `json:"videos"`
}

// FileCatalog persists the record sequence as one JSON file. Appends are
// serialized by the mutex and made durable with a write-then-rename, so a
// crash mid-write leaves either the old or the new state, never a partial
// file. Reads proceed concurrently against the in-memory copy.
type FileCatalog struct {
	path    string
	mu      sync.RWMutex
	records []*VideoRecord
}

func NewFileCatalog(path string) (*FileCatalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	c := &FileCatalog{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var state catalogFile
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	c.records = state.Videos

	return c, nil
}

func (c *FileCatalog) Append(record *VideoRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.records {
		if existing.ID == record.ID {
			return ErrDuplicateID
		}
	}

	c.records = append([]*VideoRecord{record}, c.records...)

	if err := c.persist(); err != nil {
		// Keep memory and disk in agreement: drop the record again.
		c.records = c.records[1:]
		return err
	}
	return nil
}

func (c *FileCatalog) FindByID(id string) (*VideoRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, record := range c.records {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, ErrNotFound
}

func (c *FileCatalog) List() ([]*VideoRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]*VideoRecord, len(c.records))
	copy(records, c.records)
	return records, nil
}

func (c *FileCatalog) Count() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

// persist writes the full state to a temporary file and renames it over the
// catalog path. Callers must hold the write lock.
func (c *FileCatalog) persist() error {
	data, err := json.MarshalIndent(&catalogFile{Videos: c.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create catalog temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}
