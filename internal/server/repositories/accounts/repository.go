package accounts

import (
	"context"

	"github.com/dmitrijs2005/signupd/internal/server/models"
)

// Repository is the account identity store. Email arguments are expected to
// be normalized already.
//
// Exists alone does not make signups race-free: Insert must reject a second
// account for the same email with common.ErrConflict. I/O failures surface as
// common.ErrStoreUnavailable.
type Repository interface {
	Exists(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, account *models.Account) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
}
