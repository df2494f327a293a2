package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/signupd/internal/common"
	"github.com/dmitrijs2005/signupd/internal/logging"
	"github.com/dmitrijs2005/signupd/internal/server/metrics"
	"github.com/dmitrijs2005/signupd/internal/server/verification"
)

// Attempt is a signup waiting for its verification code.
type Attempt struct {
	ID string

	session      *verification.Session
	passwordHash string
	name         string
}

func (a *Attempt) Address() string      { return a.session.Address() }
func (a *Attempt) ExpiresAt() time.Time { return a.session.ExpiresAt() }

// Registry holds pending attempts by ID.
type Registry struct {
	mu       sync.Mutex
	attempts map[string]*Attempt
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func NewRegistry(l logging.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		attempts: make(map[string]*Attempt),
		logger:   l.With("module", "registry"),
		metrics:  m,
	}
}

func (r *Registry) Add(a *Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[a.ID] = a
	r.metrics.SetPending(len(r.attempts))
}

func (r *Registry) Get(id string) (*Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	return a, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, id)
	r.metrics.SetPending(len(r.attempts))
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

// Sweep expires attempts past their deadline and drops every attempt that
// is no longer pending. It returns the number dropped. The registry lock is
// only held to snapshot and to delete, never while a session is inspected.
func (r *Registry) Sweep(ctx context.Context) int {
	r.mu.Lock()
	snapshot := make([]*Attempt, 0, len(r.attempts))
	for _, a := range r.attempts {
		snapshot = append(snapshot, a)
	}
	r.mu.Unlock()

	n := 0
	for _, a := range snapshot {
		if !a.session.Expire() {
			continue
		}
		if !r.removeIfSame(a) {
			continue
		}
		if a.session.Status() == verification.Expired {
			r.metrics.SignupFailed(common.ErrVerificationExpired)
		}
		n++
	}

	pending := r.Len()
	r.metrics.SetPending(pending)

	if n > 0 {
		r.logger.Debug(ctx, "swept attempts", "removed", n, "pending", pending)
	}
	return n
}

// removeIfSame deletes a unless its ID has been removed or reused meanwhile.
func (r *Registry) removeIfSame(a *Attempt) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.attempts[a.ID]; !ok || cur != a {
		return false
	}
	delete(r.attempts, a.ID)
	r.metrics.SetPending(len(r.attempts))
	return true
}

// Run sweeps every interval until ctx is done, then abandons whatever is
// still pending.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.abandonAll()
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Registry) abandonAll() {
	r.mu.Lock()
	snapshot := r.attempts
	r.attempts = make(map[string]*Attempt)
	r.mu.Unlock()

	for _, a := range snapshot {
		a.session.Abandon()
	}
	r.metrics.SetPending(0)
}
