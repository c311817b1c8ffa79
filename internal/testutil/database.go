package testutil

import (
	"testing"

	"lycheesync/internal/config"
	"lycheesync/internal/database"
)

// NewTestCatalog returns an empty in-memory catalog brought up to date by
// the embedded migrations, the same way a memory database is configured.
// It is closed when the test ends.
func NewTestCatalog(t *testing.T) *database.SQLiteCatalog {
	t.Helper()
	c, err := database.NewCatalogFromConfig(config.DatabaseConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("creating test catalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
