package database

import _ "embed"

// To regenerate schema.sql after adding a migration:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"

// Schema is the current catalog schema, used by tests to skip migrations.
//
//go:embed schema.sql
var Schema string
