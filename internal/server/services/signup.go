package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/signupd/internal/common"
	"github.com/dmitrijs2005/signupd/internal/dbx"
	"github.com/dmitrijs2005/signupd/internal/logging"
	"github.com/dmitrijs2005/signupd/internal/server/lock"
	"github.com/dmitrijs2005/signupd/internal/server/mail"
	"github.com/dmitrijs2005/signupd/internal/server/metrics"
	"github.com/dmitrijs2005/signupd/internal/server/models"
	"github.com/dmitrijs2005/signupd/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/signupd/internal/server/verification"
)

type Request struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
}

// SessionInfo is what a CodeSource sees before each prompt. LastErr holds
// the outcome of the previous submission (nil on the first prompt).
type SessionInfo struct {
	Address   string
	ExpiresAt time.Time
	Attempts  int
	LastErr   error
}

type Submission struct {
	Code   string
	Resend bool
}

// CodeSource supplies codes typed by the user. It should return ctx.Err()
// when ctx is cancelled while waiting.
type CodeSource interface {
	NextCode(ctx context.Context, info SessionInfo) (Submission, error)
}

type AddressValidator interface {
	Validate(ctx context.Context, address string) (string, error)
}

type PasswordHasher interface {
	Hash(password []byte) (string, error)
}

type Options struct {
	ResendRetries uint64
	ResendBackoff time.Duration
	Now           func() time.Time
}

type Deps struct {
	Repomanager repomanager.RepositoryManager
	Validator   AddressValidator
	Issuer      *verification.Issuer
	Hasher      PasswordHasher
	Locker      lock.Locker
	Registry    *Registry
	Metrics     *metrics.Metrics
	Logger      logging.Logger
}

// SignupService binds a verified address to a new account.
type SignupService struct {
	repomanager repomanager.RepositoryManager
	validator   AddressValidator
	issuer      *verification.Issuer
	hasher      PasswordHasher
	locker      lock.Locker
	registry    *Registry
	metrics     *metrics.Metrics
	logger      logging.Logger
	opts        Options
}

func NewSignupService(d Deps, opts Options) *SignupService {
	if opts.ResendBackoff <= 0 {
		opts.ResendBackoff = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if d.Locker == nil {
		d.Locker = lock.NewKeyedMutex()
	}
	if d.Registry == nil {
		d.Registry = NewRegistry(d.Logger, d.Metrics)
	}
	return &SignupService{
		repomanager: d.Repomanager,
		validator:   d.Validator,
		issuer:      d.Issuer,
		hasher:      d.Hasher,
		locker:      d.Locker,
		registry:    d.Registry,
		metrics:     d.Metrics,
		logger:      d.Logger.With("module", "signup"),
		opts:        opts,
	}
}

func (s *SignupService) Registry() *Registry { return s.registry }

// SignUp runs the whole flow in one call, prompting src for codes until the
// session is confirmed, expires, or ctx is cancelled. It returns the new
// account ID.
func (s *SignupService) SignUp(ctx context.Context, req Request, src CodeSource) (string, error) {
	addr, hash, sess, err := s.open(ctx, req)
	if err != nil {
		s.metrics.SignupFailed(err)
		return "", err
	}

	err = s.await(ctx, sess, src)
	if err != nil {
		s.metrics.SignupFailed(err)
		return "", err
	}

	id, err := s.commit(ctx, addr, hash, req.Name)
	if err != nil {
		s.metrics.SignupFailed(err)
		return "", err
	}

	return id, nil
}

func (s *SignupService) await(ctx context.Context, sess *verification.Session, src CodeSource) error {
	info := SessionInfo{Address: sess.Address()}

	for {
		info.ExpiresAt = sess.ExpiresAt()
		info.Attempts = sess.Attempts()

		sub, err := src.NextCode(ctx, info)
		if ctxErr := ctx.Err(); ctxErr != nil {
			sess.Abandon()
			s.logger.Info(ctx, "signup cancelled", "email", info.Address)
			return ctxErr
		}
		if err != nil {
			sess.Abandon()
			return err
		}

		if sub.Resend {
			err = s.resend(ctx, sess)
			if ctxErr := ctx.Err(); ctxErr != nil {
				sess.Abandon()
				s.logger.Info(ctx, "signup cancelled", "email", info.Address)
				return ctxErr
			}
			if errors.Is(err, common.ErrVerificationUnavailable) {
				info.LastErr = err
				continue
			}
			if err != nil {
				sess.Abandon()
				return err
			}
			info.LastErr = nil
			continue
		}

		err = s.confirmCode(ctx, sess, sub.Code)
		if errors.Is(err, common.ErrCodeMismatch) {
			info.LastErr = err
			continue
		}
		return err
	}
}

// Begin validates the request, mails a code and parks the attempt in the
// registry until Confirm, Resend or Cancel reference it by ID.
func (s *SignupService) Begin(ctx context.Context, req Request) (*Attempt, error) {
	addr, hash, sess, err := s.open(ctx, req)
	if err != nil {
		s.metrics.SignupFailed(err)
		return nil, err
	}

	a := &Attempt{
		ID:           uuid.NewString(),
		session:      sess,
		passwordHash: hash,
		name:         req.Name,
	}
	s.registry.Add(a)

	s.logger.Info(ctx, "signup started", "email", addr, "attempt_id", a.ID)
	return a, nil
}

// Confirm checks code for a registered attempt and creates the account on a
// match. A wrong code leaves the attempt open for another try.
func (s *SignupService) Confirm(ctx context.Context, attemptID, code string) (string, error) {
	a, err := s.lookup(attemptID)
	if err != nil {
		return "", err
	}

	if err := s.confirmCode(ctx, a.session, code); err != nil {
		if a.session.Status() != verification.Pending && s.registry.removeIfSame(a) {
			s.metrics.SignupFailed(err)
		}
		return "", err
	}
	s.registry.Remove(a.ID)

	id, err := s.commit(ctx, a.session.Address(), a.passwordHash, a.name)
	if err != nil {
		s.metrics.SignupFailed(err)
		return "", err
	}
	return id, nil
}

// Resend mails a fresh code for a registered attempt and returns the new
// deadline.
func (s *SignupService) Resend(ctx context.Context, attemptID string) (time.Time, error) {
	a, err := s.lookup(attemptID)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.resend(ctx, a.session); err != nil {
		if a.session.Status() != verification.Pending && s.registry.removeIfSame(a) {
			s.metrics.SignupFailed(err)
		}
		return time.Time{}, err
	}
	return a.session.ExpiresAt(), nil
}

func (s *SignupService) Cancel(ctx context.Context, attemptID string) error {
	a, err := s.lookup(attemptID)
	if err != nil {
		return err
	}

	a.session.Abandon()
	s.registry.Remove(a.ID)
	s.metrics.SignupFailed(context.Canceled)

	s.logger.Info(ctx, "signup cancelled", "email", a.session.Address(), "attempt_id", a.ID)
	return nil
}

// Accounts lists registered accounts without password hashes.
func (s *SignupService) Accounts(ctx context.Context) ([]models.Account, error) {
	list, err := s.repomanager.Accounts(s.repomanager.Conn()).List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].PasswordHash = ""
	}
	return list, nil
}

func (s *SignupService) lookup(attemptID string) (*Attempt, error) {
	a, ok := s.registry.Get(attemptID)
	if !ok {
		return nil, fmt.Errorf("%w: attempt %s", common.ErrSessionClosed, attemptID)
	}
	return a, nil
}

// open runs the checks that precede a session, hashes the password and
// issues the first code.
func (s *SignupService) open(ctx context.Context, req Request) (string, string, *verification.Session, error) {
	addr, err := s.validator.Validate(ctx, req.Email)
	if err != nil {
		return "", "", nil, err
	}

	exists, err := s.repomanager.Accounts(s.repomanager.Conn()).Exists(ctx, addr)
	if err != nil {
		return "", "", nil, err
	}
	if exists {
		return "", "", nil, fmt.Errorf("%w: %s", common.ErrAlreadyRegistered, addr)
	}

	if req.Password != req.ConfirmPassword {
		return "", "", nil, common.ErrPasswordMismatch
	}

	password := []byte(req.Password)
	hash, err := s.hasher.Hash(password)
	common.WipeByteArray(password)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: hash password: %w", common.ErrorInternal, err)
	}

	sess, err := s.issuer.Issue(ctx, addr)
	if err != nil {
		s.metrics.DeliveryFailed(err)
		return "", "", nil, fmt.Errorf("%w: %w", common.ErrVerificationUnavailable, err)
	}
	s.metrics.CodeSent(metrics.CodeIssued)
	s.metrics.SignupStarted()

	return addr, hash, sess, nil
}

func (s *SignupService) confirmCode(ctx context.Context, sess *verification.Session, code string) error {
	err := sess.Confirm(code)
	switch {
	case err == nil:
		s.logger.Info(ctx, "address confirmed", "email", sess.Address())
		return nil
	case errors.Is(err, common.ErrCodeExpired):
		s.logger.Info(ctx, "verification code expired", "email", sess.Address())
		return common.ErrVerificationExpired
	case errors.Is(err, common.ErrTooManyAttempts):
		s.logger.Warn(ctx, "too many wrong codes", "email", sess.Address())
		return err
	default:
		return err
	}
}

// resendHeadroom is kept free before a ctx deadline for the final attempt
// and the reply.
const resendHeadroom = 250 * time.Millisecond

// resend retries transient delivery failures with a constant backoff. The
// current code stays valid until a new one is delivered. When ctx carries a
// deadline, retries stop early rather than wait past it, so the caller gets
// the delivery error instead of a timeout.
func (s *SignupService) resend(ctx context.Context, sess *verification.Session) error {
	backoff := withinDeadline(ctx, retry.WithMaxRetries(s.opts.ResendRetries, retry.NewConstant(s.opts.ResendBackoff)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := sess.Resend(ctx)
		if err != nil && mail.IsTransient(err) {
			s.metrics.DeliveryFailed(err)
			s.logger.Warn(ctx, "resend failed, retrying", "email", sess.Address(), "error", err)
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
		s.metrics.CodeSent(metrics.CodeResent)
		return nil
	case errors.Is(err, common.ErrCodeExpired):
		return common.ErrVerificationExpired
	case errors.Is(err, common.ErrDeliveryFailed):
		if !mail.IsTransient(err) {
			s.metrics.DeliveryFailed(err)
		}
		return fmt.Errorf("%w: %w", common.ErrVerificationUnavailable, err)
	default:
		return err
	}
}

// withinDeadline stops next once the following wait would run into the ctx
// deadline.
func withinDeadline(ctx context.Context, next retry.Backoff) retry.Backoff {
	deadline, ok := ctx.Deadline()
	if !ok {
		return next
	}
	return retry.BackoffFunc(func() (time.Duration, bool) {
		d, stop := next.Next()
		if stop || time.Until(deadline) < d+resendHeadroom {
			return 0, true
		}
		return d, false
	})
}

// commit creates the account under the per-address lock. The existence
// check is repeated inside the transaction since another attempt for the
// same address may have completed while this one was waiting for a code.
func (s *SignupService) commit(ctx context.Context, addr, passwordHash, name string) (string, error) {
	unlock, err := s.locker.Lock(ctx, addr)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: lock: %w", common.ErrStoreUnavailable, err)
	}
	defer unlock()

	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        addr,
		PasswordHash: passwordHash,
		DisplayName:  name,
		CreatedAt:    s.opts.Now().UTC(),
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		exists, err := repo.Exists(ctx, addr)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", common.ErrConflict, addr)
		}

		_, err = repo.Insert(ctx, account)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "account not created", "email", addr, "error", err)
		return "", err
	}

	s.metrics.SignupCompleted()
	s.logger.Info(ctx, "account created", "email", addr, "account_id", account.ID)
	return account.ID, nil
}
