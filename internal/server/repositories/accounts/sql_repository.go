// Package accounts stores registered account identities.
package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/signupd/internal/common"
	"github.com/dmitrijs2005/signupd/internal/dbx"
	"github.com/dmitrijs2005/signupd/internal/server/models"
)

// SQLRepository implements Repository on top of database/sql. The same
// queries serve PostgreSQL and SQLite; placeholders are rebound per dialect.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Exists(ctx context.Context, email string) (bool, error) {
	query := dbx.Rebind(r.dialect,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`)

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: db error: %w", common.ErrStoreUnavailable, err)
	}

	return exists, nil
}

func (r *SQLRepository) Insert(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := dbx.Rebind(r.dialect,
		`INSERT INTO accounts (id, email, password_hash, display_name, created_at)
         VALUES ($1, $2, $3, $4, $5)`)

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.DisplayName, account.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrConflict, account.Email)
		}
		return nil, fmt.Errorf("%w: db error: %w", common.ErrStoreUnavailable, err)
	}

	return account, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]models.Account, error) {
	query :=
		`SELECT id, email, display_name, created_at FROM accounts
		 ORDER BY created_at, email`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: db error: %w", common.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var result []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.DisplayName, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: db error: %w", common.ErrStoreUnavailable, err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: db error: %w", common.ErrStoreUnavailable, err)
	}

	return result, nil
}
