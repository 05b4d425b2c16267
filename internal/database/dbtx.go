package database

import (
	"database/sql"
	"strings"
)

// DBTX is the query surface used by repositories. Both *DB and *Tx satisfy it.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	ExecReturningID(query string, args ...any) (int64, error)
	GetDialect() Dialect
}

// Tx wraps sql.Tx with dialect-aware methods
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// Begin starts a new transaction
func (db *DB) Begin() (*Tx, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, dialect: db.Dialect}, nil
}

func (tx *Tx) Query(query string, args ...any) (*sql.Rows, error) {
	return tx.Tx.Query(tx.dialect.RewriteQuery(query), args...)
}

func (tx *Tx) QueryRow(query string, args ...any) *sql.Row {
	return tx.Tx.QueryRow(tx.dialect.RewriteQuery(query), args...)
}

func (tx *Tx) Exec(query string, args ...any) (sql.Result, error) {
	return tx.Tx.Exec(tx.dialect.RewriteQuery(query), args...)
}

func (tx *Tx) ExecReturningID(query string, args ...any) (int64, error) {
	return execReturningID(tx.Tx, tx.dialect, query, args)
}

func (tx *Tx) GetDialect() Dialect {
	return tx.dialect
}

// execer is implemented by *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// execReturningID uses LastInsertId where the driver supports it and
// appends RETURNING id otherwise
func execReturningID(conn execer, dialect Dialect, query string, args []any) (int64, error) {
	query = dialect.RewriteQuery(query)

	if dialect.SupportsLastInsertId() {
		result, err := conn.Exec(query, args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	query = strings.TrimSuffix(strings.TrimSpace(query), ";") + " RETURNING id"
	var id int64
	if err := conn.QueryRow(query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
