package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
	"github.com/garyjia/visitor-kiosk/internal/domain/event"
	domainwf "github.com/garyjia/visitor-kiosk/internal/domain/workflow"
)

// Session drives one visitor through the check-in steps.
//
// All transitions happen under mu. Listener notifications are queued while the
// lock is held and delivered after it is released.
type Session struct {
	id       string
	siteID   string
	engine   *Engine
	listener Listener

	mu            sync.Mutex
	draft         entity.VisitorDraft
	steps         []domainwf.State
	machine       domainwf.StateMachine
	guardRequired bool

	visitID   string
	recordID  string // allocated on the first write and reused by every retry
	attempted bool   // a Create was sent and may have committed
	submitted bool   // pending-guard record persisted
	finalized bool   // checked-in record exists

	polling    bool
	cancelPoll CancelFunc

	ended           bool // cancelled or closed by the owner
	cancelled       bool
	rejectionReason string
	lastErr         error

	startedAt  time.Time
	guardSince time.Time
	pending    []func()
}

// View is a point-in-time copy of session state
type View struct {
	ID              string              `json:"id"`
	SiteID          string              `json:"siteId"`
	VisitID         string              `json:"visitId,omitempty"`
	Step            domainwf.State      `json:"step"`
	Steps           []domainwf.State    `json:"steps"`
	Transitions     []domainwf.Trigger  `json:"transitions"`
	Progress        float64             `json:"progress"`
	Draft           entity.VisitorDraft `json:"visitor"`
	Polling         bool                `json:"polling"`
	Finished        bool                `json:"finished"`
	Cancelled       bool                `json:"cancelled"`
	Finalized       bool                `json:"finalized"`
	RejectionReason string              `json:"rejectionReason,omitempty"`
	LastError       string              `json:"lastError,omitempty"`
	StartedAt       time.Time           `json:"startedAt"`
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current session state
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.machine.State()
	v := View{
		ID:              s.id,
		SiteID:          s.siteID,
		VisitID:         s.visitID,
		Step:            state,
		Steps:           append([]domainwf.State(nil), s.steps...),
		Progress:        s.progress(state),
		Draft:           s.draft,
		Transitions:     []domainwf.Trigger{},
		Polling:         s.polling,
		Finished:        s.finished(),
		Cancelled:       s.cancelled,
		Finalized:       s.finalized,
		RejectionReason: s.rejectionReason,
		StartedAt:       s.startedAt,
	}
	if !v.Finished {
		v.Transitions = s.machine.PermittedTriggers()
	}
	if s.lastErr != nil {
		v.LastError = s.lastErr.Error()
	}
	return v
}

// CapturePhoto stores the captured image reference and advances past PHOTO
func (s *Session) CapturePhoto(ctx context.Context, photo string) error {
	return s.run(func() error {
		if err := s.expect(domainwf.StatePhoto); err != nil {
			return err
		}
		if strings.TrimSpace(photo) == "" {
			return &entity.ValidationError{Fields: []string{"photo"}}
		}
		s.draft.Photo = photo
		return s.advance(ctx)
	})
}

// VerifyOTP checks code with the configured verifier and advances past OTP
func (s *Session) VerifyOTP(ctx context.Context, code string) error {
	return s.run(func() error {
		if err := s.expect(domainwf.StateOTP); err != nil {
			return err
		}
		ok, err := s.engine.otp.Verify(ctx, s.draft, code)
		if err != nil {
			return fmt.Errorf("verify otp: %w", err)
		}
		if !ok {
			return ErrInvalidOTP
		}
		return s.advance(ctx)
	})
}

// AcceptNDA records the visitor's answer. Declining keeps the session on NDA.
func (s *Session) AcceptNDA(ctx context.Context, agreed bool) error {
	return s.run(func() error {
		if err := s.expect(domainwf.StateNDA); err != nil {
			return err
		}
		if !agreed {
			return ErrTermsNotAccepted
		}
		s.draft.AgreedToTerms = true
		return s.advance(ctx)
	})
}

// HostDecision applies the host's answer. A rejection ends the session through
// the cancel callback and writes no visit record.
func (s *Session) HostDecision(ctx context.Context, approved bool) error {
	return s.run(func() error {
		if err := s.expect(domainwf.StateHostApproval); err != nil {
			return err
		}
		if approved {
			return s.advance(ctx)
		}
		s.engine.logger.Info("Host declined visitor", "session_id", s.id)
		s.cancel(ctx)
		return nil
	})
}

// Back returns to the previous step from OTP or NDA
func (s *Session) Back(ctx context.Context) error {
	return s.run(func() error {
		if s.finished() {
			return ErrSessionEnded
		}
		if err := s.machine.Fire(ctx, domainwf.TriggerBack); err != nil {
			return err
		}
		s.stepChanged(ctx)
		return nil
	})
}

// Retry resends the write that failed on entering GUARD_PENDING or COMPLETE
func (s *Session) Retry(ctx context.Context) error {
	return s.run(func() error {
		if s.ended {
			return ErrSessionEnded
		}
		switch state := s.machine.State(); {
		case state == domainwf.StateGuardPending && !s.submitted:
			return s.submitPending(ctx)
		case state == domainwf.StateComplete && !s.finalized && !s.guardRequired:
			return s.writeCheckedIn(ctx)
		default:
			return ErrNothingToRetry
		}
	})
}

// Cancel ends the session from any non-terminal step, stops the guard poll and
// invokes OnCancelled exactly once. A pending-guard record stays in the store.
func (s *Session) Cancel(ctx context.Context) error {
	return s.run(func() error {
		if s.finished() {
			return ErrSessionEnded
		}
		s.cancel(ctx)
		return nil
	})
}

// Close tears the session down without notifying the listener. It is safe to call repeatedly.
func (s *Session) Close() {
	_ = s.run(func() error {
		if !s.ended {
			s.stopPoll()
			s.ended = true
		}
		return nil
	})
}

// run executes fn under the session lock and delivers queued notifications afterwards
func (s *Session) run(fn func() error) error {
	s.mu.Lock()
	err := fn()
	notes := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, note := range notes {
		note()
	}
	return err
}

func (s *Session) queue(note func()) {
	s.pending = append(s.pending, note)
}

func (s *Session) expect(step domainwf.State) error {
	if s.finished() {
		return ErrSessionEnded
	}
	if current := s.machine.State(); current != step {
		return fmt.Errorf("%w: session is on %s, not %s", ErrWrongStep, current, step)
	}
	return nil
}

// finished reports whether no further action can change the session
func (s *Session) finished() bool {
	if s.ended {
		return true
	}
	state := s.machine.State()
	if !state.IsTerminal() {
		return false
	}
	// COMPLETE stays open until its record is written
	return state != domainwf.StateComplete || s.finalized
}

func (s *Session) progress(state domainwf.State) float64 {
	idx := domainwf.IndexOf(s.steps, state)
	if idx < 0 {
		idx = len(s.steps) - 1
	}
	return domainwf.Progress(idx, len(s.steps))
}

func (s *Session) advance(ctx context.Context) error {
	if err := s.machine.Fire(ctx, domainwf.TriggerAdvance); err != nil {
		return err
	}
	return s.enter(ctx)
}

// enter performs the entry side effects of the current step
func (s *Session) enter(ctx context.Context) error {
	s.stepChanged(ctx)

	switch s.machine.State() {
	case domainwf.StateGuardPending:
		s.guardSince = s.engine.now()
		return s.submitPending(ctx)
	case domainwf.StateComplete:
		if s.guardRequired {
			s.complete(ctx)
			return nil
		}
		return s.writeCheckedIn(ctx)
	}
	return nil
}

func (s *Session) stepChanged(ctx context.Context) {
	state := s.machine.State()
	progress := s.progress(state)

	s.engine.logger.Info("Kiosk step changed",
		"session_id", s.id,
		"step", state,
		"progress", progress,
	)
	s.publish(ctx, event.TypeSessionStep, map[string]interface{}{
		"step":     state.String(),
		"progress": progress,
	})
	s.queue(func() { s.listener.OnStepChanged(state, progress) })
}

// submitPending persists exactly one pending-guard record and starts the poll
func (s *Session) submitPending(ctx context.Context) error {
	record, err := s.createRecord(ctx, entity.StatusPendingGuard)
	if err != nil {
		return s.fail(ctx, &PersistenceError{Op: "create pending visit", Err: err})
	}

	s.submitted = true
	s.lastErr = nil
	s.engine.logger.Info("Visit submitted for guard approval",
		"session_id", s.id,
		"visit_id", record.ID,
	)
	s.startPoll()
	return nil
}

// writeCheckedIn records a visit that needed no external approval
func (s *Session) writeCheckedIn(ctx context.Context) error {
	if _, err := s.createRecord(ctx, entity.StatusCheckedIn); err != nil {
		return s.fail(ctx, &PersistenceError{Op: "create checked-in visit", Err: err})
	}
	s.lastErr = nil
	s.complete(ctx)
	return nil
}

// createRecord writes the single visit record of this check-in attempt. After a
// failed attempt it first looks the record up, since the failed write may have committed.
func (s *Session) createRecord(ctx context.Context, status string) (*entity.VisitRecord, error) {
	if s.recordID == "" {
		s.recordID = uuid.NewString()
	}
	draft := s.draft
	if draft.ID == "" {
		draft.ID = s.recordID
	}

	storeCtx, cancel := s.engine.storeContext(ctx)
	defer cancel()

	record, err := s.storedRecord(storeCtx)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = entity.NewVisitRecord(s.recordID, s.siteID, entity.ChannelKiosk, status, draft, s.engine.now())
		s.attempted = true
		if err := s.engine.visits.Create(storeCtx, record); err != nil {
			return nil, err
		}
	} else {
		s.engine.logger.Info("Visit record found after failed write",
			"session_id", s.id,
			"visit_id", record.ID,
			"status", record.Status,
		)
	}

	s.draft = draft
	s.visitID = record.ID
	s.publish(ctx, event.TypeVisitCreated, map[string]interface{}{
		"status":  status,
		"channel": entity.ChannelKiosk,
	})
	return record, nil
}

// storedRecord returns the record of an earlier attempt, or nil when none was stored
func (s *Session) storedRecord(ctx context.Context) (*entity.VisitRecord, error) {
	if !s.attempted {
		return nil, nil
	}
	record, err := s.engine.visits.GetByID(ctx, s.recordID)
	if errors.Is(err, entity.ErrVisitNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check earlier write: %w", err)
	}
	return record, nil
}

func (s *Session) complete(ctx context.Context) {
	s.finalized = true
	draft := s.draft

	payload := map[string]interface{}{"steps": len(s.steps)}
	if s.guardRequired {
		payload["guard_wait"] = s.engine.now().Sub(s.guardSince)
	}

	s.engine.logger.Info("Kiosk check-in complete",
		"session_id", s.id,
		"visit_id", s.visitID,
	)
	s.publish(ctx, event.TypeSessionCompleted, payload)
	s.queue(func() { s.listener.OnComplete(draft) })
}

func (s *Session) reject(ctx context.Context, reason string) error {
	if err := s.machine.Fire(ctx, domainwf.TriggerReject); err != nil {
		return err
	}
	s.rejectionReason = reason

	s.engine.logger.Info("Visit rejected by guard",
		"session_id", s.id,
		"visit_id", s.visitID,
		"reason", reason,
	)
	s.publish(ctx, event.TypeSessionRejected, map[string]interface{}{
		"reason":     reason,
		"guard_wait": s.engine.now().Sub(s.guardSince),
	})
	s.queue(func() { s.listener.OnRejected(reason) })
	return nil
}

func (s *Session) cancel(ctx context.Context) {
	s.stopPoll()
	s.ended = true
	s.cancelled = true
	s.engine.logger.Info("Kiosk session cancelled",
		"session_id", s.id,
		"step", s.machine.State(),
	)
	s.publish(ctx, event.TypeSessionCancelled, map[string]interface{}{
		"step": s.machine.State().String(),
	})
	s.queue(s.listener.OnCancelled)
}

func (s *Session) fail(ctx context.Context, err error) error {
	s.lastErr = err
	s.engine.logger.Error("Kiosk session error",
		"session_id", s.id,
		"step", s.machine.State(),
		"error", err,
	)
	payload := map[string]interface{}{"error": err.Error()}
	var perr *PersistenceError
	if errors.As(err, &perr) {
		payload["op"] = perr.Op
	}
	s.publish(ctx, event.TypeSessionError, payload)
	s.queue(func() { s.listener.OnError(err) })
	return err
}

// pollFailed reports a failed guard poll read. It is published as a poll check, not a session error.
func (s *Session) pollFailed(ctx context.Context, err error) error {
	s.lastErr = err
	s.engine.logger.Error("Guard poll read failed",
		"session_id", s.id,
		"visit_id", s.visitID,
		"error", err,
	)
	s.publish(ctx, event.TypeGuardPollChecked, map[string]interface{}{
		"status": "error",
		"error":  err.Error(),
	})
	s.queue(func() { s.listener.OnError(err) })
	return err
}

func (s *Session) startPoll() {
	if s.polling {
		return
	}
	s.polling = true
	s.cancelPoll = s.engine.scheduler.Schedule(s.engine.cfg.PollInterval, s.poll)
}

// stopPoll cancels the recurring check; later calls are no-ops
func (s *Session) stopPoll() {
	s.polling = false
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
}

// poll is the scheduled guard decision check. It holds the session lock for
// the store read so that no read happens after the poll has been stopped.
func (s *Session) poll() {
	ctx := context.Background()

	_ = s.run(func() error {
		if !s.polling {
			return nil
		}

		storeCtx, cancel := s.engine.storeContext(ctx)
		record, err := s.engine.visits.GetByID(storeCtx, s.visitID)
		cancel()

		if err != nil {
			// the next tick retries the read
			return s.pollFailed(ctx, &PersistenceError{Op: "read visit", Err: err})
		}
		s.lastErr = nil

		s.publish(ctx, event.TypeGuardPollChecked, map[string]interface{}{"status": record.Status})

		switch record.Status {
		case entity.StatusCheckedIn, entity.StatusCheckedOut:
			s.stopPoll()
			if err := s.machine.Fire(ctx, domainwf.TriggerAdvance); err != nil {
				return s.fail(ctx, err)
			}
			return s.enter(ctx)
		case entity.StatusRejected:
			s.stopPoll()
			reason := strings.TrimSpace(record.RejectionReason)
			if reason == "" {
				reason = entity.DefaultRejectionReason
			}
			if err := s.reject(ctx, reason); err != nil {
				return s.fail(ctx, err)
			}
		}
		return nil
	})
}

func (s *Session) publish(ctx context.Context, eventType event.Type, payload map[string]interface{}) {
	evt := event.NewEvent(eventType, s.siteID, payload).ForSession(s.id)
	if s.visitID != "" {
		evt = evt.ForVisit(s.visitID)
	}
	s.engine.publisher.Publish(ctx, evt)
}
