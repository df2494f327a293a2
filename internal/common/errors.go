// Package common defines shared constants and sentinel errors used across
// signupd components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrConflict         = errors.New("account already exists")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Signup validation errors. They end the attempt immediately.
	ErrInvalidAddress    = errors.New("invalid email address")
	ErrAlreadyRegistered = errors.New("email already registered")
	ErrPasswordMismatch  = errors.New("passwords do not match")

	// Verification errors.
	ErrVerificationUnavailable = errors.New("verification code could not be delivered")
	ErrVerificationExpired     = errors.New("verification expired")
	ErrCodeMismatch            = errors.New("verification code does not match")
	ErrCodeExpired             = errors.New("verification code expired")
	ErrTooManyAttempts         = errors.New("too many verification attempts")
	ErrSessionClosed           = errors.New("verification session closed")

	// Mail transport errors.
	ErrDeliveryFailed       = errors.New("delivery failed")
	ErrAuthenticationFailed = errors.New("mail transport authentication failed")

	// Ticket errors (invalid, malformed or expired signup ticket).
	ErrInvalidToken = errors.New("invalid token")
)
