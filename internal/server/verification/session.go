// Package verification implements the one-time code lifecycle: a code is
// generated, mailed, and then confirmed or left to expire.
package verification

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/signupd/internal/common"
	"github.com/dmitrijs2005/signupd/internal/logging"
	"github.com/dmitrijs2005/signupd/internal/server/mail"
)

type Status int

const (
	Pending Status = iota
	Confirmed
	Expired
	Abandoned
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Expired:
		return "expired"
	case Abandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

const (
	DefaultTTL         = 15 * time.Minute
	DefaultMaxAttempts = 5
	DefaultAppName     = "Doune"
)

type Options struct {
	TTL time.Duration
	// MaxAttempts caps wrong codes per issued code; 0 disables the cap.
	MaxAttempts int
	AppName     string
	Now         func() time.Time
}

// Issuer opens verification sessions.
type Issuer struct {
	gen    Generator
	sender mail.Sender
	logger logging.Logger
	opts   Options
}

func NewIssuer(gen Generator, sender mail.Sender, l logging.Logger, opts Options) *Issuer {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxAttempts < 0 {
		opts.MaxAttempts = 0
	}
	if opts.AppName == "" {
		opts.AppName = DefaultAppName
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Issuer{gen: gen, sender: sender, logger: l.With("module", "verification"), opts: opts}
}

// Issue generates a code, mails it to address and returns a Pending session.
// If delivery fails no session is returned.
func (i *Issuer) Issue(ctx context.Context, address string) (*Session, error) {
	code, expiresAt, err := i.deliver(ctx, address)
	if err != nil {
		return nil, err
	}

	i.logger.Info(ctx, "verification code sent", "email", address, "expires_at", expiresAt)

	return &Session{
		issuer:    i,
		address:   address,
		code:      code,
		issuedAt:  expiresAt.Add(-i.opts.TTL),
		expiresAt: expiresAt,
		status:    Pending,
	}, nil
}

func (i *Issuer) deliver(ctx context.Context, address string) (string, time.Time, error) {
	code, err := i.gen.Generate()
	if err != nil {
		return "", time.Time{}, err
	}

	subject := fmt.Sprintf("Verification Code for %s", i.opts.AppName)
	body := fmt.Sprintf("Your verification code for %s: %s", i.opts.AppName, code)

	if err := i.sender.Send(ctx, address, subject, body); err != nil {
		i.logger.Warn(ctx, "verification code delivery failed", "email", address, "error", err)
		return "", time.Time{}, err
	}

	return code, i.opts.Now().Add(i.opts.TTL), nil
}

// Session is a single verification attempt. Its methods are safe for
// concurrent use; status only moves forward from Pending.
type Session struct {
	issuer *Issuer

	mu        sync.Mutex
	address   string
	code      string
	issuedAt  time.Time
	expiresAt time.Time
	attempts  int
	status    Status
}

func (s *Session) Address() string { return s.address }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) IssuedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issuedAt
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// expireLocked moves a pending session past its deadline to Expired.
func (s *Session) expireLocked() bool {
	if s.status == Pending && !s.issuer.opts.Now().Before(s.expiresAt) {
		s.status = Expired
		return true
	}
	return false
}

// Expire marks a pending session Expired if its deadline has passed and
// reports whether the session is now in a terminal state.
func (s *Session) Expire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	return s.status != Pending
}

// Confirm checks code against the current one. A session at or past its
// deadline expires without comparing.
func (s *Session) Confirm(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != Pending {
		return fmt.Errorf("%w: %s", common.ErrSessionClosed, s.status)
	}
	if s.expireLocked() {
		return common.ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(s.code)) == 1 {
		s.status = Confirmed
		return nil
	}

	s.attempts++
	if max := s.issuer.opts.MaxAttempts; max > 0 && s.attempts >= max {
		s.status = Abandoned
		return common.ErrTooManyAttempts
	}
	return common.ErrCodeMismatch
}

// Resend mails a fresh code and restarts the clock. On delivery failure the
// previous code and deadline stay in force. The mail is sent without holding
// the session lock, so Confirm, Expire and Abandon never wait on the network.
// If the session closed while the mail was in flight the new code is dropped.
func (s *Session) Resend(ctx context.Context) error {
	s.mu.Lock()
	if s.status != Pending {
		status := s.status
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", common.ErrSessionClosed, status)
	}
	if s.expireLocked() {
		s.mu.Unlock()
		return common.ErrCodeExpired
	}
	s.mu.Unlock()

	code, expiresAt, err := s.issuer.deliver(ctx, s.address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != Pending {
		return fmt.Errorf("%w: %s", common.ErrSessionClosed, s.status)
	}

	s.code = code
	s.issuedAt = expiresAt.Add(-s.issuer.opts.TTL)
	s.expiresAt = expiresAt
	s.attempts = 0

	s.issuer.logger.Info(ctx, "verification code resent", "email", s.address, "expires_at", expiresAt)
	return nil
}

// Abandon closes a pending session. It is a no-op on terminal sessions.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Pending {
		s.status = Abandoned
	}
}
