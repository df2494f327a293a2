package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/signupd/internal/common"
	"github.com/dmitrijs2005/signupd/internal/server/mail"
)

func TestClassifyReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: bad", common.ErrInvalidAddress), ReasonInvalidAddress},
		{common.ErrAlreadyRegistered, ReasonAlreadyRegistered},
		{common.ErrPasswordMismatch, ReasonPasswordMismatch},
		{fmt.Errorf("%w: %w", common.ErrVerificationUnavailable, common.ErrDeliveryFailed), ReasonUnavailable},
		{common.ErrVerificationExpired, ReasonExpired},
		{common.ErrTooManyAttempts, ReasonTooManyAttempts},
		{common.ErrConflict, ReasonConflict},
		{common.ErrStoreUnavailable, ReasonStore},
		{context.Canceled, ReasonCancelled},
		{errors.New("boom"), ReasonUnknown},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyReason(tc.err), tc.err.Error())
	}
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SignupStarted()
	m.SignupStarted()
	m.SignupCompleted()
	m.SignupFailed(common.ErrVerificationExpired)
	m.SignupFailed(nil)
	m.CodeSent(CodeIssued)
	m.CodeSent(CodeResent)
	m.DeliveryFailed(&mail.DeliveryError{Kind: mail.Authentication, Err: errors.New("535")})
	m.DeliveryFailed(errors.New("other"))
	m.SetPending(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.started))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed.WithLabelValues(ReasonExpired)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.failed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.codesSent.WithLabelValues(CodeResent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveryFailures.WithLabelValues("authentication")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveryFailures.WithLabelValues(ReasonUnknown)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pending))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SignupStarted()
		m.SignupCompleted()
		m.SignupFailed(common.ErrConflict)
		m.CodeSent(CodeIssued)
		m.DeliveryFailed(errors.New("x"))
		m.SetPending(1)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SignupCompleted()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "signupd_signups_completed_total 1"))
}
