package internal

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sethj34/obs-dashboard/internal/catalog"
)

const defaultMigrationsPath = "file://files/migrations"

// NewDB opens the database backing a sql catalog and brings the schema up
// to date.
func NewDB(config *catalog.Config) (*sql.DB, error) {
	var driverName string
	switch config.Backend {
	case catalog.BackendSQLite:
		driverName = "sqlite3"
	case catalog.BackendPostgres:
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("catalog backend %q is not database-backed", config.Backend)
	}

	db, err := sql.Open(driverName, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	var driver database.Driver
	switch config.Backend {
	case catalog.BackendSQLite:
		driver, err = migratesqlite3.WithInstance(db, &migratesqlite3.Config{})
	case catalog.BackendPostgres:
		driver, err = migratepostgres.WithInstance(db, &migratepostgres.Config{})
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	migrationsPath := config.MigrationsPath
	if migrationsPath == "" {
		migrationsPath = defaultMigrationsPath
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, driverName, driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return db, nil
}
