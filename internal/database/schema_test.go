package database

import (
	"strings"
	"testing"

	"lycheesync/internal/database/migrations"
)

// schema.sql is what unit tests load instead of migrating; it must not
// drift from the migrations.
func TestSchemaMatchesMigrations(t *testing.T) {
	db, err := OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("OpenConnection() error = %v", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	dumped, err := migrations.DumpSchema(db)
	if err != nil {
		t.Fatalf("DumpSchema() error = %v", err)
	}

	normalize := func(s string) string { return strings.Join(strings.Fields(s), " ") }
	if normalize(dumped) != normalize(Schema) {
		t.Errorf("schema.sql is stale; run go generate ./internal/database\n--- migrated ---\n%s", dumped)
	}
}
