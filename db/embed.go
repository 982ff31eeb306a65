// Package db provides the embedded PostgreSQL schema for the snapshot
// backend.
package db

import _ "embed"

// Schema contains the DDL statements for all snapshot tables. Every
// statement is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
