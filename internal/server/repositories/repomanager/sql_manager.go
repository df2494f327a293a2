// Package repomanager provides RepositoryManager implementations: a SQL one
// for PostgreSQL and SQLite that also runs goose migrations, and an in-memory
// one for development and tests.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/signupd/internal/dbx"
	"github.com/dmitrijs2005/signupd/internal/server/migrations"
	"github.com/dmitrijs2005/signupd/internal/server/repositories/accounts"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends SQL-backed repositories for one connection pool.
type SQLRepositoryManager struct {
	db      *sql.DB
	dialect dbx.Dialect
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewSQLRepositoryManager constructs a RepositoryManager for db.
func NewSQLRepositoryManager(db *sql.DB, dialect dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{db: db, dialect: dialect}
}

// Open connects to dsn and returns a manager for it. Migrations are not run.
func Open(dsn string) (*SQLRepositoryManager, error) {
	db, dialect, err := dbx.Open(dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLRepositoryManager(db, dialect), nil
}

func (m *SQLRepositoryManager) Conn() dbx.DBTX {
	return m.db
}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, m.db, nil, fn)
}

// RunMigrations sets up goose with the embedded migrations and applies them.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(string(m.dialect)); err != nil {
		return fmt.Errorf("migration dialect: %w", err)
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}
