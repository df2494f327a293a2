package accounts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/signupd/internal/common"
	"github.com/dmitrijs2005/signupd/internal/server/models"
)

// MemoryRepository keeps accounts in a map keyed by email. Insert checks and
// stores under one lock, which gives the same guarantee as a unique index.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]models.Account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]models.Account)}
}

func (r *MemoryRepository) Exists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[account.Email]; ok {
		return nil, fmt.Errorf("%w: %s", common.ErrConflict, account.Email)
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	r.byEmail[account.Email] = *account

	return account, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Account, 0, len(r.byEmail))
	for _, a := range r.byEmail {
		a.PasswordHash = ""
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Email < result[j].Email
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}
