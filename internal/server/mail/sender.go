// Package mail delivers verification messages. Senders make one delivery
// attempt per call; retry policy belongs to the caller, which can tell
// transient failures from permanent ones through DeliveryError.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/signupd/internal/common"
)

// Sender sends a plain-text message to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Kind classifies a delivery failure.
type Kind int

const (
	// Transient failures (timeouts, 4xx replies, throttling) may succeed later.
	Transient Kind = iota
	// Permanent failures (rejected recipient, 5xx replies) will not.
	Permanent
	// Authentication failures mean our transport credentials were refused.
	// They are permanent too.
	Authentication
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case Authentication:
		return "authentication"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DeliveryError is returned by every Sender on failure.
// errors.Is(err, common.ErrDeliveryFailed) holds for all kinds and
// errors.Is(err, common.ErrAuthenticationFailed) for Authentication.
type DeliveryError struct {
	Kind Kind
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: %s: %v", common.ErrDeliveryFailed, e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool {
	switch target {
	case common.ErrDeliveryFailed:
		return true
	case common.ErrAuthenticationFailed:
		return e.Kind == Authentication
	default:
		return false
	}
}

// IsTransient reports whether err is a DeliveryError worth retrying.
func IsTransient(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Kind == Transient
}

func transient(err error) error      { return &DeliveryError{Kind: Transient, Err: err} }
func permanent(err error) error      { return &DeliveryError{Kind: Permanent, Err: err} }
func authentication(err error) error { return &DeliveryError{Kind: Authentication, Err: err} }
