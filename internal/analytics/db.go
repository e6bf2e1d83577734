package analytics

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the sales database read-only. The SQL tool never writes, and
// read-only mode makes the engine reject any mutation that slips past the
// statement guard.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sales db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify sales db: %w", err)
	}
	return db, nil
}

// OpenReadWrite opens the sales database for fixtures and local seeding.
func OpenReadWrite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sales db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify sales db: %w", err)
	}
	return db, nil
}
