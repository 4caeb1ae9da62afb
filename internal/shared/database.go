package shared

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Driver identifies which database/sql driver a connection uses.
type Driver string

const (
	DriverSQLite   Driver = "sqlite3"
	DriverPostgres Driver = "pgx"
)

// DriverFor picks a driver from a connection string: postgres:// (or
// postgresql://) URLs use pgx, anything else is treated as a sqlite path.
// The path can be ":memory:" for an in-memory database.
func DriverFor(url string) Driver {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// NewDatabase opens a connection to the database identified by the connection
// string and verifies it with a ping. Returns the open connection, the driver
// selected for it, or an error wrapping [ErrDatabaseUnavailable].
func NewDatabase(url string) (*sql.DB, Driver, error) {
	driver := DriverFor(url)

	db, err := sql.Open(string(driver), url)
	if err != nil {
		return nil, driver, fmt.Errorf("%w: failed to open database: %v", ErrDatabaseUnavailable, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, driver, fmt.Errorf("%w: failed to ping database: %v", ErrDatabaseUnavailable, err)
	}

	return db, driver, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Recommended for production use to limit connections and improve performance.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}

// Rebind rewrites ? placeholders into the $N form the postgres driver
// expects. Queries throughout the repositories are written with ? and rebound
// per driver at execution time.
func Rebind(driver Driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsConflict reports whether an error is a unique-constraint violation from
// either driver (sqlite's "UNIQUE constraint failed", postgres SQLSTATE 23505).
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "23505")
}
