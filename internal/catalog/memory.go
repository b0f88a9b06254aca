package catalog

import "sync"

// MemoryCatalog is a non-persistent Catalog used by tests.
type MemoryCatalog struct {
	mu      sync.RWMutex
	records []*VideoRecord
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{}
}

func (c *MemoryCatalog) Append(record *VideoRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.records {
		if existing.ID == record.ID {
			return ErrDuplicateID
		}
	}

	c.records = append([]*VideoRecord{record}, c.records...)
	return nil
}

func (c *MemoryCatalog) FindByID(id string) (*VideoRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, record := range c.records {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, ErrNotFound
}

func (c *MemoryCatalog) List() ([]*VideoRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]*VideoRecord, len(c.records))
	copy(records, c.records)
	return records, nil
}

func (c *MemoryCatalog) Count() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}
