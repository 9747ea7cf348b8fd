package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB stores the rewrite history
type DB struct {
	conn *sql.DB
}

// Open opens refix.db in dir and initializes the schema
func Open(dir string) (*DB, error) {
	dbPath := filepath.Join(dir, "refix.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets the dashboard read while the agent writes
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rewrites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,

		-- Timing metrics
		capture_latency_ms INTEGER NOT NULL,
		improve_latency_ms INTEGER NOT NULL,
		total_latency_ms INTEGER NOT NULL,

		-- Provider info
		provider TEXT NOT NULL,
		model TEXT NOT NULL,

		-- Text
		input_text TEXT NOT NULL,
		output_text TEXT NOT NULL,
		input_chars INTEGER NOT NULL,
		output_chars INTEGER NOT NULL,
		pasted BOOLEAN NOT NULL,

		-- Status
		success BOOLEAN NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_rewrites_timestamp ON rewrites(timestamp);
	CREATE INDEX IF NOT EXISTS idx_rewrites_success ON rewrites(success);
	`

	_, err := db.conn.Exec(schema)
	return err
}
