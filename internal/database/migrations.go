package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RunMigrations executes the SQL migration files for the connection's
// dialect, found in migrationsPath/<dialect subdir>/*.sql
func (db *DB) RunMigrations(migrationsPath string) error {
	// Create migrations table if it doesn't exist
	if _, err := db.Exec(db.Dialect.CreateMigrationsTableQuery()); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	dir := filepath.Join(migrationsPath, db.Dialect.MigrationsSubdir())
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migration files found in %s", dir)
	}

	// Sort files to ensure they run in order
	sort.Strings(files)

	for _, file := range files {
		filename := filepath.Base(file)

		hasRun, err := db.hasMigrationRun(filename)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if hasRun {
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		if err := db.executeMigration(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}

		if err := db.recordMigration(filename); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", filename, err)
		}

		slog.Info("Migration completed", "file", filename, "dialect", db.Dialect.MigrationsSubdir())
	}

	return nil
}

// hasMigrationRun checks if a migration has already been executed
func (db *DB) hasMigrationRun(filename string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM migrations WHERE filename = ?"
	err := db.QueryRow(query, filename).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// executeMigration runs the statements of a migration one at a time, since
// not every driver accepts multiple statements per Exec
func (db *DB) executeMigration(content string) error {
	for _, stmt := range splitStatements(content) {
		if _, err := db.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// recordMigration marks a migration as completed
func (db *DB) recordMigration(filename string) error {
	query := "INSERT INTO migrations (filename) VALUES (?)"
	_, err := db.Exec(query, filename)
	return err
}

// splitStatements splits a migration on semicolons, dropping blank
// statements and full-line "--" comments
func splitStatements(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var stmts []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
