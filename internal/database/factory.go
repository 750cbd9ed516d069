package database

import (
	"fmt"
	"os"
	"path/filepath"

	"archview/internal/config"
)

// DatabaseFileName is the catalog database inside catalog.data_dir.
const DatabaseFileName = "archview.db"

// NewStoreFromConfig opens the catalog store selected by cfg.Type.
// In-memory stores are migrated on creation; file stores are migrated by
// the "db migrate" command.
func NewStoreFromConfig(cfg config.CatalogConfig, sentinelKey int) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite catalog")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data_dir: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, DatabaseFileName), sentinelKey)
	case "memory":
		store, err := NewSQLiteStore(":memory:", sentinelKey)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrating in-memory catalog: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown catalog type: %s", cfg.Type)
	}
}
