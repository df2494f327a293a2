package models

import "time"

// Account is a registered identity. Email is the normalized (trimmed,
// lowercased) address and is unique across accounts.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}
