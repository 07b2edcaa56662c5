package repository

import _ "embed"

// Schema is the DDL applied by database.Migrate when DATABASE_AUTO_MIGRATE is set
//
//go:embed schema.sql
var Schema string
