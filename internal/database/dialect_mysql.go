package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// duplicateEntry is the MySQL error number for ER_DUP_ENTRY
const duplicateEntry = 1062

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN enables parseTime so DATETIME columns scan into time.Time
func (d *MySQLDialect) DSN(config DialectConfig) string {
	if strings.Contains(config.URL, "parseTime=") {
		return config.URL
	}
	sep := "?"
	if strings.Contains(config.URL, "?") {
		sep = "&"
	}
	return config.URL + sep + "parseTime=true"
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db, 25)
	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) IsUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntry
}
