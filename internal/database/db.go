package database

import (
	"database/sql"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Database represents the database connection and operations
type Database struct {
	DB *sql.DB
}

// New creates a new Database instance
func New(dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	// Verify connection
	if err = db.Ping(); err != nil {
		return nil, err
	}

	return &Database{DB: db}, nil
}

// Init creates the required tables if they don't exist
func (d *Database) Init() error {
	createTables := `
	CREATE TABLE IF NOT EXISTS camera_streams (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		video_source TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS compliance_logs (
		id SERIAL PRIMARY KEY,
		stream_id TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		person_count INTEGER NOT NULL DEFAULT 0,
		ppe_worn_count INTEGER NOT NULL DEFAULT 0,
		violation_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		snapshot_path TEXT
	);

	CREATE TABLE IF NOT EXISTS violation_events (
		id SERIAL PRIMARY KEY,
		log_id INTEGER NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		violation_type TEXT NOT NULL,
		location_box TEXT,
		confidence DOUBLE PRECISION,
		severity INTEGER NOT NULL DEFAULT 1,
		is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
		FOREIGN KEY (log_id) REFERENCES compliance_logs(id)
	);
	`

	_, err := d.DB.Exec(createTables)
	return err
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// BeginTransaction starts a new database transaction
func (d *Database) BeginTransaction() (*sql.Tx, error) {
	return d.DB.Begin()
}
