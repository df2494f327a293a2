package dbx

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/signupd/internal/filex"
)

// Dialect names the SQL flavour behind a connection. The values double as
// goose dialect names.
type Dialect string

const (
	DialectPostgres Dialect = "pgx"
	DialectSQLite   Dialect = "sqlite3"
)

var ErrUnsupportedDSN = errors.New("unsupported database DSN")

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// ParseDSN picks the driver for dsn and returns the driver name, the DSN the
// driver expects and the dialect.
//
//	postgres://..., postgresql://..., "host=... dbname=..."  -> pgx
//	sqlite://path, file:path?..., *.db, :memory:             -> sqlite
func ParseDSN(dsn string) (driver, source string, dialect Dialect, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return "pgx", dsn, DialectPostgres, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), DialectSQLite, nil
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), dsn == ":memory:":
		return "sqlite", dsn, DialectSQLite, nil
	default:
		return "", "", "", fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
	}
}

// Open opens a connection pool for dsn. SQLite pools are limited to one
// connection so writers never see SQLITE_BUSY and :memory: stays one database.
func Open(dsn string) (*sql.DB, Dialect, error) {
	driver, source, dialect, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	if path := sqliteFilePath(source); dialect == DialectSQLite && path != "" {
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, "", fmt.Errorf("db open error: %w", err)
		}
	}

	db, err := sqlOpen(driver, source)
	if err != nil {
		return nil, "", fmt.Errorf("db open error: %w", err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	return db, dialect, nil
}

// sqliteFilePath returns the on-disk file behind a SQLite source, or "" for
// in-memory databases.
func sqliteFilePath(source string) string {
	path, query, _ := strings.Cut(strings.TrimPrefix(source, "file:"), "?")
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return ""
	}
	return path
}
