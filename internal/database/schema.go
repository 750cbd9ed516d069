package database

import _ "embed"

// Schema is the full schema produced by the migrations, for tests that
// create a database without running them.
//
//go:embed sqlc/schema.sql
var Schema string
