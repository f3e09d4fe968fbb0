// Package index provides an in-memory SQLite search index over
// assembled vault objects, with optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS objects (
	source_id  TEXT NOT NULL,
	id         TEXT NOT NULL,
	path       TEXT NOT NULL DEFAULT '',
	project    TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	visibility TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (source_id, id)
);

CREATE INDEX IF NOT EXISTS idx_objects_project ON objects(project);
CREATE INDEX IF NOT EXISTS idx_objects_type ON objects(type);

CREATE TABLE IF NOT EXISTS links (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	UNIQUE(source, target)
);

CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);
`

// DB wraps an in-memory sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open creates a fresh in-memory SQLite index and applies the schema.
// The connection pool is pinned to a single connection; every
// additional :memory: connection would be a separate empty database.
func Open() (*DB, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
