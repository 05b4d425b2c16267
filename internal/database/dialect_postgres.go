package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

// SupportsLastInsertId is false; inserts use RETURNING id instead
func (d *PostgresDialect) SupportsLastInsertId() bool {
	return false
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db, 25)
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string {
	return "postgres"
}

func (d *PostgresDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT UNIQUE NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *PostgresDialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
