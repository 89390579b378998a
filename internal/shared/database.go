package shared

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const memoryDB = ":memory:"

// NewDatabase opens the SQLite database at path, creating its directory when needed.
//
// A leading "~/" expands to the home directory. ":memory:" opens a private in-memory database.
// File databases wait up to five seconds on a lock held by another moodify process.
func NewDatabase(path string) (*sql.DB, error) {
	dsn, err := databaseDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func databaseDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}
	if path == memoryDB {
		return path, nil
	}

	path, err := ExpandPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL", nil
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ConfigureDatabase sets connection pool settings for the database.
//
// SQLite allows one writer, so the defaults keep a single connection open.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(max(maxOpenConns, 1))
	db.SetMaxIdleConns(max(maxIdleConns, 0))
}
