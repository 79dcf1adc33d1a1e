package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
	"github.com/garyjia/visitor-kiosk/internal/domain/event"
	domainwf "github.com/garyjia/visitor-kiosk/internal/domain/workflow"
)

// fakeVisitRepo is an in-memory VisitRepository that records every call
type fakeVisitRepo struct {
	mu      sync.Mutex
	records map[string]*entity.VisitRecord
	creates []entity.VisitRecord
	reads   int
	calls   []string

	createErr error
	getErr    error

	// lostAcks makes the next Create calls store the record and still report this error
	lostAcks   int
	lostAckErr error
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{records: make(map[string]*entity.VisitRecord)}
}

func (r *fakeVisitRepo) Create(ctx context.Context, visit *entity.VisitRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "create")
	if r.createErr != nil {
		return r.createErr
	}
	cp := *visit
	r.records[visit.ID] = &cp
	r.creates = append(r.creates, cp)
	if r.lostAcks > 0 {
		r.lostAcks--
		return r.lostAckErr
	}
	return nil
}

func (r *fakeVisitRepo) GetByID(ctx context.Context, id string) (*entity.VisitRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "get")
	r.reads++
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, entity.ErrVisitNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeVisitRepo) UpdateStatus(ctx context.Context, id, expected string, update entity.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return entity.ErrVisitNotFound
	}
	if rec.Status != expected {
		return entity.ErrStatusConflict
	}
	rec.Status = update.Status
	if update.RejectionReason != "" {
		rec.RejectionReason = update.RejectionReason
	}
	if update.ApprovedBy != "" {
		rec.ApprovedBy = update.ApprovedBy
	}
	return nil
}

func (r *fakeVisitRepo) List(ctx context.Context, filter entity.VisitFilter) ([]*entity.VisitRecord, error) {
	return nil, nil
}

func (r *fakeVisitRepo) Count(ctx context.Context, filter entity.VisitFilter) (int, error) {
	return 0, nil
}

func (r *fakeVisitRepo) setFailures(createErr, getErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createErr = createErr
	r.getErr = getErr
}

func (r *fakeVisitRepo) loseAcks(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lostAcks = n
	r.lostAckErr = err
}

func (r *fakeVisitRepo) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func (r *fakeVisitRepo) created() []entity.VisitRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.VisitRecord(nil), r.creates...)
}

func (r *fakeVisitRepo) callLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// manualTask is one task registered with manualScheduler
type manualTask struct {
	fn          func()
	interval    time.Duration
	cancelled   atomic.Bool
	cancelCalls atomic.Int32
}

// manualScheduler lets tests fire poll ticks deterministically
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

func (m *manualScheduler) Schedule(interval time.Duration, fn func()) CancelFunc {
	t := &manualTask{fn: fn, interval: interval}
	m.mu.Lock()
	m.tasks = append(m.tasks, t)
	m.mu.Unlock()

	return func() {
		t.cancelCalls.Add(1)
		t.cancelled.Store(true)
	}
}

// Tick runs every live task once
func (m *manualScheduler) Tick() {
	m.mu.Lock()
	tasks := append([]*manualTask(nil), m.tasks...)
	m.mu.Unlock()

	for _, t := range tasks {
		if !t.cancelled.Load() {
			t.fn()
		}
	}
}

func (m *manualScheduler) scheduled() []*manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*manualTask(nil), m.tasks...)
}

// recordingListener captures every notification
type recordingListener struct {
	mu        sync.Mutex
	steps     []domainwf.State
	progress  []float64
	completed []entity.VisitorDraft
	cancelled int
	rejected  []string
	errs      []error
}

func (l *recordingListener) OnStepChanged(step domainwf.State, progress float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, step)
	l.progress = append(l.progress, progress)
}

func (l *recordingListener) OnComplete(draft entity.VisitorDraft) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed = append(l.completed, draft)
}

func (l *recordingListener) OnCancelled() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelled++
}

func (l *recordingListener) OnRejected(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejected = append(l.rejected, reason)
}

func (l *recordingListener) OnError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

// otpFunc adapts a function to port.OTPVerifier
type otpFunc func(ctx context.Context, draft entity.VisitorDraft, code string) (bool, error)

func (f otpFunc) Verify(ctx context.Context, draft entity.VisitorDraft, code string) (bool, error) {
	return f(ctx, draft, code)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// eventLog captures published session events
type eventLog struct {
	mu     sync.Mutex
	events []*event.Event
}

func (l *eventLog) Publish(ctx context.Context, evt *event.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
}

func (l *eventLog) ofType(t event.Type) []*event.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*event.Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
