package database

import (
	"fmt"
	"os"
	"path/filepath"

	"lycheesync/internal/config"
)

// NewCatalogFromConfig opens the catalog selected by the database config type.
// A memory catalog starts empty and is migrated immediately; a sqlite
// catalog is returned as found and must be checked with CheckMigrations.
func NewCatalogFromConfig(cfg config.DatabaseConfig) (*SQLiteCatalog, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for sqlite database")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		return NewSQLiteCatalog(cfg.Path)
	case "memory":
		catalog, err := NewSQLiteCatalog(":memory:")
		if err != nil {
			return nil, err
		}
		if err := catalog.Migrate(); err != nil {
			catalog.Close()
			return nil, fmt.Errorf("migrating memory catalog: %w", err)
		}
		return catalog, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
