// Package db owns the SQLite persistence layer: schema migrations and
// all SQL for projects, change log entries, and checkpoints.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loomworks/loom/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/loom.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.loom.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Create uploads subdirectory for original and working-copy files
	uploadsDir := filepath.Join(baseDir, "uploads")
	if err := os.MkdirAll(uploadsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	_ = os.Chmod(uploadsDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "loom.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS projects (
		  id             TEXT PRIMARY KEY,
		  name           TEXT NOT NULL,
		  description    TEXT,
		  original_path  TEXT NOT NULL,
		  working_path   TEXT NOT NULL,
		  created_at     INTEGER NOT NULL,
		  last_modified  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_projects_last_modified
		ON projects(last_modified DESC);

		CREATE TABLE IF NOT EXISTS checkpoints (
		  id          TEXT PRIMARY KEY,
		  project_id  TEXT NOT NULL REFERENCES projects(id),
		  message     TEXT NOT NULL,
		  created_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_checkpoints_project
		ON checkpoints(project_id, created_at);

		CREATE TABLE IF NOT EXISTS logs (
		  seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		  project_id     TEXT NOT NULL REFERENCES projects(id),
		  action_type    TEXT NOT NULL,
		  action_details TEXT NOT NULL,
		  created_at     INTEGER NOT NULL,
		  checkpoint_id  TEXT REFERENCES checkpoints(id),
		  applied        INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_logs_project_applied
		ON logs(project_id, applied, created_at, seq);

		CREATE INDEX IF NOT EXISTS idx_logs_checkpoint
		ON logs(checkpoint_id)
		WHERE checkpoint_id IS NOT NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion reads the schema version pragma.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion writes the schema version pragma.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d;", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
