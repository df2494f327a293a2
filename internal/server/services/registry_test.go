package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/signupd/internal/common"
	"github.com/dmitrijs2005/signupd/internal/logging"
	"github.com/dmitrijs2005/signupd/internal/server/metrics"
)

func TestRegistry_SweepDropsExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old, err := f.svc.Begin(ctx, validRequest("old@example.com"))
	require.NoError(t, err)

	f.clock.advance(10 * time.Minute)
	fresh, err := f.svc.Begin(ctx, validRequest("new@example.com"))
	require.NoError(t, err)

	f.clock.advance(6 * time.Minute)
	assert.Equal(t, 1, f.svc.Registry().Sweep(ctx))

	_, ok := f.svc.Registry().Get(old.ID)
	assert.False(t, ok)
	_, ok = f.svc.Registry().Get(fresh.ID)
	assert.True(t, ok)
}

func TestRegistry_RunAbandonsOnShutdown(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	a, err := f.svc.Begin(context.Background(), validRequest("bob@example.com"))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		f.svc.Registry().Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("registry did not stop")
	}

	assert.Equal(t, 0, f.svc.Registry().Len())
	assert.Equal(t, "abandoned", a.session.Status().String())
}

func TestRegistry_SweepNotBlockedBySlowResend(t *testing.T) {
	sender := newGatedSender(1)
	f := newFixtureWithSender(t, sender)
	ctx := context.Background()
	reg := f.svc.Registry()

	a, err := f.svc.Begin(ctx, validRequest("bob@example.com"))
	require.NoError(t, err)

	resent := make(chan error, 1)
	go func() {
		_, err := f.svc.Resend(ctx, a.ID)
		resent <- err
	}()

	select {
	case <-sender.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("resend never reached the sender")
	}

	swept := make(chan int, 1)
	go func() { swept <- reg.Sweep(ctx) }()

	got := make(chan bool, 1)
	go func() {
		_, ok := reg.Get("unrelated")
		got <- ok
	}()

	select {
	case ok := <-got:
		assert.False(t, ok)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("registry lookup blocked behind an in-flight resend")
	}

	select {
	case n := <-swept:
		assert.Equal(t, 0, n)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("sweep blocked behind an in-flight resend")
	}

	assert.Equal(t, "pending", a.session.Status().String())

	close(sender.release)
	select {
	case err := <-resent:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("resend did not finish")
	}
}

func TestRegistry_AbandonDuringResendDropsNewCode(t *testing.T) {
	sender := newGatedSender(1)
	f := newFixtureWithSender(t, sender, "111111", "222222")
	ctx := context.Background()

	a, err := f.svc.Begin(ctx, validRequest("bob@example.com"))
	require.NoError(t, err)

	resent := make(chan error, 1)
	go func() {
		_, err := f.svc.Resend(ctx, a.ID)
		resent <- err
	}()
	<-sender.entered

	require.NoError(t, f.svc.Cancel(ctx, a.ID))
	close(sender.release)

	select {
	case err := <-resent:
		assert.ErrorIs(t, err, common.ErrSessionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("resend did not finish")
	}
	assert.Equal(t, "abandoned", a.session.Status().String())
}

func TestRegistry_PendingGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := NewRegistry(logging.NewNop(), m)

	f := newFixture(t)
	a, err := f.svc.Begin(context.Background(), validRequest("bob@example.com"))
	require.NoError(t, err)

	r.Add(a)
	assert.Equal(t, 1, r.Len())
	r.Remove(a.ID)
	assert.Equal(t, 0, r.Len())

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "signupd_pending_sessions" {
			found = true
			assert.Equal(t, 0.0, mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found)
}
