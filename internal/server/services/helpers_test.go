package services

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/signupd/internal/cryptox"
	"github.com/dmitrijs2005/signupd/internal/logging"
	"github.com/dmitrijs2005/signupd/internal/server/emailcheck"
	"github.com/dmitrijs2005/signupd/internal/server/mail"
	"github.com/dmitrijs2005/signupd/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/signupd/internal/server/verification"
)

type mxResolver map[string][]*net.MX

func (r mxResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	mx, ok := r[name]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
	}
	return mx, nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixedGenerator struct {
	mu    sync.Mutex
	codes []string
	i     int
}

// Generate returns codes in order and repeats the last one when exhausted.
func (g *fixedGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c := g.codes[g.i]
	if g.i < len(g.codes)-1 {
		g.i++
	}
	return c, nil
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	errs  []error
	calls int
}

// Send fails with errs[n] on the n-th call while errs has entries.
func (s *fakeSender) Send(_ context.Context, to, _, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.calls
	s.calls++
	if n < len(s.errs) && s.errs[n] != nil {
		return s.errs[n]
	}
	s.sent = append(s.sent, to+"|"+body)
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *fakeSender) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.sent[len(s.sent)-1]
	return last[strings.LastIndex(last, " ")+1:]
}

// scriptedSource replays submissions in order; before is called ahead of
// each one with the info the service passed in.
type scriptedSource struct {
	subs   []Submission
	infos  []SessionInfo
	before func(n int, info SessionInfo)
}

func (s *scriptedSource) NextCode(ctx context.Context, info SessionInfo) (Submission, error) {
	n := len(s.infos)
	s.infos = append(s.infos, info)
	if s.before != nil {
		s.before(n, info)
	}
	if n >= len(s.subs) {
		return Submission{}, errors.New("script exhausted")
	}
	return s.subs[n], nil
}

type fixture struct {
	svc    *SignupService
	rm     *repomanager.InMemoryRepositoryManager
	sender *fakeSender
	gen    *fixedGenerator
	clock  *testClock
}

var testHashParams = cryptox.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func newFixture(t *testing.T, codes ...string) *fixture {
	t.Helper()
	sender := &fakeSender{}
	f := newFixtureWithSender(t, sender, codes...)
	f.sender = sender
	return f
}

// newFixtureWithSender builds a fixture around a custom sender; f.sender is
// left nil.
func newFixtureWithSender(t *testing.T, sender mail.Sender, codes ...string) *fixture {
	t.Helper()
	if len(codes) == 0 {
		codes = []string{"123456"}
	}

	f := &fixture{
		rm:    repomanager.NewInMemoryRepositoryManager(),
		gen:   &fixedGenerator{codes: codes},
		clock: &testClock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
	}

	l := logging.NewNop()
	issuer := verification.NewIssuer(f.gen, sender, l, verification.Options{
		TTL:         15 * time.Minute,
		MaxAttempts: 5,
		AppName:     "Doune",
		Now:         f.clock.now,
	})

	f.svc = NewSignupService(Deps{
		Repomanager: f.rm,
		Validator: emailcheck.NewValidator(mxResolver{
			"example.com": {{Host: "mx.example.com.", Pref: 10}},
		}, true),
		Issuer: issuer,
		Hasher: cryptox.NewHasher(testHashParams),
		Logger: l,
	}, Options{
		ResendRetries: 2,
		ResendBackoff: time.Millisecond,
		Now:           f.clock.now,
	})

	return f
}

// gatedSender lets the first free sends through and then parks every send
// until release is closed or ctx ends.
type gatedSender struct {
	mu      sync.Mutex
	free    int
	entered chan struct{}
	release chan struct{}
}

func newGatedSender(free int) *gatedSender {
	return &gatedSender{free: free, entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (s *gatedSender) Send(ctx context.Context, _, _, _ string) error {
	s.mu.Lock()
	if s.free > 0 {
		s.free--
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.entered <- struct{}{}
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validRequest(email string) Request {
	return Request{Email: email, Password: "hunter2", ConfirmPassword: "hunter2", Name: "Alice"}
}

func transientErr() error {
	return &mail.DeliveryError{Kind: mail.Transient, Err: errors.New("421 try later")}
}

func permanentErr() error {
	return &mail.DeliveryError{Kind: mail.Permanent, Err: errors.New("550 no such user")}
}

func mustExist(t *testing.T, f *fixture, email string) bool {
	t.Helper()
	ok, err := f.rm.Accounts(nil).Exists(context.Background(), email)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	return ok
}

