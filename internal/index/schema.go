// Package index stores resolved time-only tasks in SQLite for querying.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS resolutions (
	path          TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	line          INTEGER NOT NULL,
	task_id       TEXT NOT NULL,
	text          TEXT NOT NULL DEFAULT '',
	time_text     TEXT NOT NULL DEFAULT '',
	resolved_date TEXT NOT NULL,
	source        TEXT NOT NULL,
	confidence    TEXT NOT NULL,
	used_fallback INTEGER NOT NULL DEFAULT 0,
	explanation   TEXT NOT NULL DEFAULT '',
	checksum      TEXT NOT NULL DEFAULT '',
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (path, line)
);

CREATE INDEX IF NOT EXISTS idx_resolutions_date ON resolutions(resolved_date);
CREATE INDEX IF NOT EXISTS idx_resolutions_source ON resolutions(source);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
