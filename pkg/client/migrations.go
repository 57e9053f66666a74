// ABOUTME: Schema migrations for the local state database
// ABOUTME: Applies embedded .sql files in version order inside transactions

package client

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// migrate brings the state database up to the newest embedded schema.
// Each migrations/NNN_name.sql file runs exactly once, inside its own
// transaction, and is recorded in schema_migrations so reopening the
// database never replays it.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	paths, err := fs.Glob(schemaFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	// Zero-padded version prefixes make lexicographic order version order
	sort.Strings(paths)

	for _, path := range paths {
		version, title, ok := parseMigrationName(path)
		if !ok || version <= current {
			continue
		}

		script, err := schemaFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", path, err)
		}

		log.Printf("state: applying migration %03d_%s", version, title)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(script)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", version, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			version, title, time.Now().Unix(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}
	}

	return nil
}

// parseMigrationName splits "migrations/001_initial.sql" into (1, "initial").
// Files that do not follow the NNN_name.sql pattern are skipped.
func parseMigrationName(path string) (version int, title string, ok bool) {
	base := strings.TrimSuffix(strings.TrimPrefix(path, "migrations/"), ".sql")
	prefix, title, found := strings.Cut(base, "_")
	if !found {
		return 0, "", false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", false
	}
	return version, title, true
}
