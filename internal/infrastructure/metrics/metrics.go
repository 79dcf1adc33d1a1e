package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/garyjia/visitor-kiosk/internal/application/dispatcher"
	"github.com/garyjia/visitor-kiosk/internal/domain/event"
)

// Metrics provides observability for kiosk sessions and visit approvals.
type Metrics struct {
	// Sessions started by site
	SessionsStarted *prometheus.CounterVec

	// Session outcomes: completed, cancelled, rejected
	SessionOutcome *prometheus.CounterVec

	// Failed session store writes by operation; the session stays open for a retry
	SessionErrors *prometheus.CounterVec

	// Visit record mutations by event and channel
	VisitTransitions *prometheus.CounterVec

	// Guard poll reads by observed status
	PollChecks *prometheus.CounterVec

	// Time spent waiting on the guard decision
	GuardWait prometheus.Histogram
}

// New creates a Metrics instance registered on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_sessions_started_total",
			Help: "Total kiosk check-in sessions started by site",
		}, []string{"site"}),

		SessionOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_session_outcomes_total",
			Help: "Total kiosk session outcomes",
		}, []string{"outcome"}), // outcome: "completed", "cancelled", "rejected"

		SessionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_session_errors_total",
			Help: "Total failed kiosk session store writes by operation",
		}, []string{"op"}),

		VisitTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_visit_transitions_total",
			Help: "Total visit record mutations by event and channel",
		}, []string{"event", "channel"}),

		PollChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_guard_poll_checks_total",
			Help: "Total guard approval polls by observed visit status",
		}, []string{"status"}),

		GuardWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kiosk_guard_wait_seconds",
			Help:    "Time from submitting a pending visit to the guard decision",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		}),
	}
}

// IncrementStarted records a started session.
func (m *Metrics) IncrementStarted(site string) {
	if m != nil {
		m.SessionsStarted.WithLabelValues(site).Inc()
	}
}

// IncrementOutcome records how a session ended.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.SessionOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementSessionError records a failed session write.
func (m *Metrics) IncrementSessionError(op string) {
	if m != nil {
		m.SessionErrors.WithLabelValues(op).Inc()
	}
}

// IncrementTransition records a visit mutation.
func (m *Metrics) IncrementTransition(eventName, channel string) {
	if m != nil {
		m.VisitTransitions.WithLabelValues(eventName, channel).Inc()
	}
}

// IncrementPollCheck records one guard poll.
func (m *Metrics) IncrementPollCheck(status string) {
	if m != nil {
		m.PollChecks.WithLabelValues(status).Inc()
	}
}

// ObserveGuardWait records how long a visitor waited on the guard.
func (m *Metrics) ObserveGuardWait(d time.Duration) {
	if m != nil && d > 0 {
		m.GuardWait.Observe(d.Seconds())
	}
}

// Handle maps a domain event onto the collectors.
func (m *Metrics) Handle(ctx context.Context, evt *event.Event) error {
	switch evt.Type {
	case event.TypeSessionStarted:
		m.IncrementStarted(evt.SiteID)
	case event.TypeSessionCompleted:
		m.IncrementOutcome("completed")
		m.ObserveGuardWait(time.Duration(evt.GetPayloadFloat("guard_wait") * float64(time.Second)))
	case event.TypeSessionRejected:
		m.IncrementOutcome("rejected")
		m.ObserveGuardWait(time.Duration(evt.GetPayloadFloat("guard_wait") * float64(time.Second)))
	case event.TypeSessionCancelled:
		m.IncrementOutcome("cancelled")
	case event.TypeSessionError:
		op := evt.GetPayloadString("op")
		if op == "" {
			op = "unknown"
		}
		m.IncrementSessionError(op)
	case event.TypeGuardPollChecked:
		m.IncrementPollCheck(evt.GetPayloadString("status"))
	case event.TypeVisitCreated, event.TypeVisitApproved, event.TypeVisitRejected, event.TypeVisitCheckedOut:
		m.IncrementTransition(string(evt.Type), evt.GetPayloadString("channel"))
	}
	return nil
}

// Register subscribes the collectors to every dispatched event.
func (m *Metrics) Register(d dispatcher.Dispatcher) {
	d.SubscribeAll("metrics", m.Handle)
}
