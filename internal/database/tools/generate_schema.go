// Command generate_schema rewrites internal/database/schema.sql from the
// embedded migrations. It is run by go generate from the module root.
package main

import (
	"log"
	"os"
	"path/filepath"

	"lycheesync/internal/database"
	"lycheesync/internal/database/migrations"
)

func main() {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		log.Fatalf("migrating: %v", err)
	}
	schema, err := migrations.DumpSchema(db)
	if err != nil {
		log.Fatal(err)
	}

	out := filepath.Join("internal", "database", "schema.sql")
	if err := os.WriteFile(out, []byte(schema), 0o644); err != nil {
		log.Fatalf("writing %s: %v", out, err)
	}
	log.Printf("wrote %s", out)
}
