package repomanager

import (
	"context"

	"github.com/dmitrijs2005/signupd/internal/dbx"
	"github.com/dmitrijs2005/signupd/internal/server/repositories/accounts"
)

// RepositoryManager vends repositories bound to a connection or transaction
// and owns the schema.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() dbx.DBTX
	Accounts(db dbx.DBTX) accounts.Repository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Close() error
}
