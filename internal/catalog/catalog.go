package catalog

import "errors"

var (
	// ErrNotFound is returned when no record exists for an id.
	ErrNotFound = errors.New("video record not found")
	// ErrDuplicateID is returned when a record with the same id was
	// already appended.
	ErrDuplicateID = errors.New("video record id already exists")
)

// Catalog is the sole reader and writer of the persisted video record
// sequence. List returns records newest first by insertion order.
type Catalog interface {
	Append(record *VideoRecord) error
	FindByID(id string) (*VideoRecord, error)
	List() ([]*VideoRecord, error)
	Count() (int, error)
}

type BackendType string

const (
	BackendFile     BackendType = "file"
	BackendSQLite   BackendType = "sqlite"
	BackendPostgres BackendType = "postgres"
)

type Config struct {
	Backend        BackendType `mapstructure:"backend"`
	Path           string      `mapstructure:"path"`
	DSN            string      `mapstructure:"dsn"`
	MigrationsPath string      `mapstructure:"migrationsPath"`
}
