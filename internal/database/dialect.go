package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect hides the differences between the supported SQL engines
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts ? placeholders when the engine needs another syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId reports whether sql.Result.LastInsertId works
	SupportsLastInsertId() bool

	// ConfigureConnection applies pool limits and engine settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the directory under the migrations path
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL for the migrations tracking table
	CreateMigrationsTableQuery() string

	// IsUniqueViolation reports whether err is a unique or primary key conflict
	IsUniqueViolation(err error) bool
}

// DialectConfig holds connection settings. Path is used by SQLite, URL by
// PostgreSQL and MySQL.
type DialectConfig struct {
	Path string
	URL  string
}

// NewDialect returns the dialect for a DB_TYPE value
func NewDialect(dbType string) (Dialect, error) {
	switch strings.ToLower(dbType) {
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", dbType)
}

// configurePool sets the pool limits shared by all dialects
func configurePool(db *sql.DB, maxOpen int) {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ...
// Question marks inside single-quoted literals are left alone.
func rewritePlaceholdersToNumbered(query string) string {
	var (
		b       strings.Builder
		n       int
		inQuote bool
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
