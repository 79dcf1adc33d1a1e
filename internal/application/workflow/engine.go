package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/visitor-kiosk/internal/application/dispatcher"
	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
	"github.com/garyjia/visitor-kiosk/internal/domain/event"
	domainwf "github.com/garyjia/visitor-kiosk/internal/domain/workflow"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultStoreTimeout = 10 * time.Second
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Config holds engine settings shared by every session
type Config struct {
	// PollInterval is the delay between guard decision checks
	PollInterval time.Duration

	// StoreTimeout bounds each Visit Record Store call made by a session
	StoreTimeout time.Duration

	// PhotoCaptureEnabled keeps the PHOTO step when a policy requires it.
	// Kiosks without a camera leave it off and the step is skipped.
	PhotoCaptureEnabled bool
}

// StartRequest describes a new check-in session
type StartRequest struct {
	SiteID       string
	Draft        entity.VisitorDraft
	Policy       entity.SecurityPolicy
	IsNewVisitor bool
}

// Engine creates kiosk check-in sessions
type Engine struct {
	visits    port.VisitRepository
	otp       port.OTPVerifier
	scheduler Scheduler
	publisher dispatcher.Publisher
	logger    Logger
	cfg       Config
	now       func() time.Time
}

// EngineOption configures the engine
type EngineOption func(*Engine)

// WithScheduler replaces the ticker scheduler used for guard polling
func WithScheduler(s Scheduler) EngineOption {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithPublisher sets the sink for session events
func WithPublisher(p dispatcher.Publisher) EngineOption {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(visits port.VisitRepository, otp port.OTPVerifier, logger Logger, cfg Config, opts ...EngineOption) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}

	e := &Engine{
		visits:    visits,
		otp:       otp,
		scheduler: NewTickerScheduler(),
		publisher: dispatcher.Discard,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start validates the draft, derives the step sequence and enters the first step.
//
// A validation failure returns an *entity.ValidationError and no session. A
// persistence failure while entering the first step does not fail Start: it is
// reported through listener.OnError and the session waits for Retry.
func (e *Engine) Start(ctx context.Context, req StartRequest, listener Listener) (*Session, error) {
	if err := req.Draft.Validate(); err != nil {
		return nil, err
	}
	if listener == nil {
		listener = ListenerFuncs{}
	}

	policy := req.Policy
	if !e.cfg.PhotoCaptureEnabled {
		policy.RequirePhoto = false
	}
	steps := domainwf.BuildSteps(policy, req.IsNewVisitor)

	s := &Session{
		id:            uuid.NewString(),
		siteID:        req.SiteID,
		engine:        e,
		listener:      listener,
		draft:         req.Draft,
		steps:         steps,
		machine:       domainwf.NewStepMachine(steps),
		guardRequired: domainwf.IndexOf(steps, domainwf.StateGuardPending) >= 0,
		startedAt:     e.now(),
	}

	e.logger.Info("Kiosk session started",
		"session_id", s.id,
		"site_id", s.siteID,
		"steps", steps,
		"new_visitor", req.IsNewVisitor,
	)

	// the entry error is already delivered to OnError
	_ = s.run(func() error {
		s.publish(ctx, event.TypeSessionStarted, map[string]interface{}{"steps": len(steps)})
		return s.enter(ctx)
	})

	return s, nil
}

func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.StoreTimeout)
}
