// Package sqlite is the default Database implementation: schema
// creation, batch writers, and batch readers built on database/sql plus
// Masterminds/squirrel query building, backed by mattn/go-sqlite3.
package sqlite

import (
	"database/sql"
	"fmt"
)

const schemaVersion = "1"

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
	id           TEXT PRIMARY KEY,
	path         TEXT NOT NULL UNIQUE,
	mtime        TEXT NOT NULL,
	language     TEXT NOT NULL,
	size_bytes   INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
)
`

const createChunksTable = `
CREATE TABLE IF NOT EXISTS chunks (
	id                   TEXT PRIMARY KEY,
	file_id              TEXT NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	code                 TEXT NOT NULL,
	start_line           INTEGER NOT NULL,
	end_line             INTEGER NOT NULL,
	chunk_type           TEXT NOT NULL,
	language             TEXT NOT NULL,
	symbol               TEXT,
	start_byte           INTEGER,
	end_byte             INTEGER,
	parent_header        TEXT,
	metadata             TEXT,
	embedding            BLOB,
	provider             TEXT,
	model                TEXT,
	embedding_signature  TEXT,
	embedding_status     TEXT,
	created_at           TEXT NOT NULL
)
`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS cache_metadata (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)
`

var indexStatements = []string{
	"CREATE INDEX IF NOT EXISTS idx_chunks_file_id ON chunks(file_id)",
	"CREATE INDEX IF NOT EXISTS idx_chunks_provider_model ON chunks(provider, model)",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_files_path ON files(path)",
}

// createSchema creates tables and indexes if they do not already exist,
// then records the schema version. Safe to call against an existing
// database: every statement is idempotent.
func createSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	for _, ddl := range []string{createFilesTable, createChunksTable, createMetadataTable} {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, idx := range indexStatements {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO cache_metadata (key, value, updated_at) VALUES ('schema_version', ?, datetime('now'))
		 ON CONFLICT(key) DO NOTHING`, schemaVersion); err != nil {
		return fmt.Errorf("bootstrap metadata: %w", err)
	}

	return tx.Commit()
}
