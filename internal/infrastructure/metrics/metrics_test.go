package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/visitor-kiosk/internal/application/dispatcher"
	"github.com/garyjia/visitor-kiosk/internal/domain/event"
)

func TestMetrics_Handle(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	events := []*event.Event{
		event.NewEvent(event.TypeSessionStarted, "hq", nil),
		event.NewEvent(event.TypeSessionStarted, "hq", nil),
		event.NewEvent(event.TypeSessionCompleted, "hq", map[string]interface{}{"guard_wait": 30 * time.Second}),
		event.NewEvent(event.TypeSessionRejected, "hq", map[string]interface{}{"guard_wait": 10 * time.Second}),
		event.NewEvent(event.TypeSessionCancelled, "hq", nil),
		event.NewEvent(event.TypeGuardPollChecked, "hq", map[string]interface{}{"status": "pending-guard"}),
		event.NewEvent(event.TypeGuardPollChecked, "hq", map[string]interface{}{"status": "error"}),
		event.NewEvent(event.TypeSessionError, "hq", map[string]interface{}{"op": "create pending visit"}),
		event.NewEvent(event.TypeSessionError, "hq", nil),
		event.NewEvent(event.TypeVisitApproved, "hq", map[string]interface{}{"channel": "desk"}),
	}
	for _, evt := range events {
		require.NoError(t, m.Handle(ctx, evt))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsStarted.WithLabelValues("hq")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionOutcome.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionOutcome.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionOutcome.WithLabelValues("cancelled")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PollChecks.WithLabelValues("pending-guard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollChecks.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionErrors.WithLabelValues("create pending visit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionErrors.WithLabelValues("unknown")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.SessionOutcome), "errors are not outcomes")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisitTransitions.WithLabelValues(string(event.TypeVisitApproved), "desk")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.GuardWait))
}

func TestMetrics_CompletionWithoutGuardIsNotObserved(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	require.NoError(t, m.Handle(context.Background(), event.NewEvent(event.TypeSessionCompleted, "hq", nil)))

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "kiosk_guard_wait_seconds" {
			assert.Zero(t, f.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementStarted("hq")
		m.IncrementOutcome("completed")
		m.IncrementSessionError("read visit")
		m.IncrementPollCheck("checked-in")
		m.IncrementTransition("visit.created", "kiosk")
		m.ObserveGuardWait(time.Second)
		_ = m.Handle(context.Background(), event.NewEvent(event.TypeSessionStarted, "hq", nil))
	})
}

func TestMetrics_Register(t *testing.T) {
	m := New(prometheus.NewRegistry())
	d := dispatcher.NewDispatcher()

	m.Register(d)
	d.Publish(context.Background(), event.NewEvent(event.TypeSessionCancelled, "hq", nil))
	require.NoError(t, d.Close())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionOutcome.WithLabelValues("cancelled")))
}
