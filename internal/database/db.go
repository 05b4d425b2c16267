package database

import (
	"database/sql"
	"errors"
	"fmt"

	"growthtrack/internal/config"
)

// ErrDuplicate is returned by Insert operations that hit a unique key
var ErrDuplicate = errors.New("duplicate key")

// DB wraps the database connection with dialect support
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects using dialect, verifies the connection and applies the
// dialect's connection settings
func Open(dialect Dialect, dc DialectConfig) (*DB, error) {
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dc))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := dialect.ConfigureConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// Initialize opens a SQLite database file
func Initialize(dbPath string) (*DB, error) {
	return Open(NewSQLiteDialect(), DialectConfig{Path: dbPath})
}

// InitializeWithConfig opens the database selected by DB_TYPE
func InitializeWithConfig(cfg *config.Config) (*DB, error) {
	dialect, err := NewDialect(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}
	return Open(dialect, DialectConfig{Path: cfg.DatabasePath, URL: cfg.DatabaseURL})
}

// Query executes a query with automatic placeholder rewriting
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return db.DB.Query(db.Dialect.RewriteQuery(query), args...)
}

// QueryRow executes a single-row query with automatic placeholder rewriting
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	return db.DB.QueryRow(db.Dialect.RewriteQuery(query), args...)
}

// Exec executes a statement with automatic placeholder rewriting
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	return db.DB.Exec(db.Dialect.RewriteQuery(query), args...)
}

// ExecReturningID executes an INSERT and returns the new row's ID
func (db *DB) ExecReturningID(query string, args ...any) (int64, error) {
	return execReturningID(db.DB, db.Dialect, query, args)
}

// GetDialect returns the database dialect
func (db *DB) GetDialect() Dialect {
	return db.Dialect
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (db *DB) WithTx(fn func(tx *Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
