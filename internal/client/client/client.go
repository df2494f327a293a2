package client

import (
	"context"
	"time"
)

type StartResult struct {
	AttemptID string
	ExpiresAt time.Time
}

type AccountSummary struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

type Client interface {
	Close() error
	Start(ctx context.Context, email, password, confirmPassword, name string) (*StartResult, error)
	Confirm(ctx context.Context, code string) (string, error)
	Resend(ctx context.Context) (time.Time, error)
	Cancel(ctx context.Context) error
	Ping(ctx context.Context) error
	ListAccounts(ctx context.Context) ([]AccountSummary, error)
}
