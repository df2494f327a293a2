// Package metrics exposes signup counters to Prometheus. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/signupd/internal/common"
	"github.com/dmitrijs2005/signupd/internal/server/mail"
)

const (
	ReasonInvalidAddress    = "invalid_address"
	ReasonAlreadyRegistered = "already_registered"
	ReasonPasswordMismatch  = "password_mismatch"
	ReasonUnavailable       = "verification_unavailable"
	ReasonExpired           = "expired"
	ReasonTooManyAttempts   = "too_many_attempts"
	ReasonConflict          = "conflict"
	ReasonStore             = "store_unavailable"
	ReasonCancelled         = "cancelled"
	ReasonUnknown           = "unknown"
)

const (
	CodeIssued = "issue"
	CodeResent = "resend"
)

type Metrics struct {
	started          prometheus.Counter
	completed        prometheus.Counter
	failed           *prometheus.CounterVec
	codesSent        *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	pending          prometheus.Gauge
}

func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signupd_signups_started_total",
			Help: "Signup attempts that passed validation and opened a verification session.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signupd_signups_completed_total",
			Help: "Accounts created after a confirmed verification code.",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signupd_signups_failed_total",
			Help: "Signup attempts that ended without an account, by reason.",
		}, []string{"reason"}),
		codesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signupd_codes_sent_total",
			Help: "Verification codes handed to the mail transport.",
		}, []string{"kind"}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signupd_delivery_failures_total",
			Help: "Mail transport failures by kind.",
		}, []string{"kind"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signupd_pending_sessions",
			Help: "Verification sessions currently awaiting a code.",
		}),
	}

	registerer.MustRegister(m.started, m.completed, m.failed, m.codesSent, m.deliveryFailures, m.pending)
	return m
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) SignupStarted() {
	if m == nil {
		return
	}
	m.started.Inc()
}

func (m *Metrics) SignupCompleted() {
	if m == nil {
		return
	}
	m.completed.Inc()
}

func (m *Metrics) SignupFailed(err error) {
	if m == nil || err == nil {
		return
	}
	m.failed.WithLabelValues(ClassifyReason(err)).Inc()
}

func (m *Metrics) CodeSent(kind string) {
	if m == nil {
		return
	}
	m.codesSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) DeliveryFailed(err error) {
	if m == nil {
		return
	}
	kind := ReasonUnknown
	var de *mail.DeliveryError
	if errors.As(err, &de) {
		kind = de.Kind.String()
	}
	m.deliveryFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

// ClassifyReason maps a signup error to a low-cardinality label.
func ClassifyReason(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidAddress):
		return ReasonInvalidAddress
	case errors.Is(err, common.ErrAlreadyRegistered):
		return ReasonAlreadyRegistered
	case errors.Is(err, common.ErrPasswordMismatch):
		return ReasonPasswordMismatch
	case errors.Is(err, common.ErrVerificationUnavailable):
		return ReasonUnavailable
	case errors.Is(err, common.ErrVerificationExpired):
		return ReasonExpired
	case errors.Is(err, common.ErrTooManyAttempts):
		return ReasonTooManyAttempts
	case errors.Is(err, common.ErrConflict):
		return ReasonConflict
	case errors.Is(err, common.ErrStoreUnavailable):
		return ReasonStore
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, common.ErrSessionClosed):
		return ReasonCancelled
	default:
		return ReasonUnknown
	}
}
