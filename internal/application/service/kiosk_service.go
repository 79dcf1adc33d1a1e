package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/application/workflow"
	"github.com/garyjia/visitor-kiosk/internal/domain/badge"
	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

// ErrSessionNotFound is returned for an unknown or reaped kiosk session id
var ErrSessionNotFound = errors.New("kiosk session not found")

// StartKioskRequest starts a self-service check-in
type StartKioskRequest struct {
	SiteID       string              `json:"siteId"`
	IsNewVisitor bool                `json:"isNewVisitor"`
	Visitor      entity.VisitorDraft `json:"visitor"`
}

// SessionState is the kiosk-facing view of a session
type SessionState struct {
	workflow.View
	Badge *badge.Badge `json:"badge,omitempty"`
}

type kioskEntry struct {
	session *workflow.Session

	mu         sync.Mutex
	lastActive time.Time
	badge      *badge.Badge
}

func (e *kioskEntry) touch(now time.Time) {
	e.mu.Lock()
	e.lastActive = now
	e.mu.Unlock()
}

func (e *kioskEntry) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActive
}

// KioskService keeps the live check-in sessions of this process
type KioskService struct {
	engine      *workflow.Engine
	settings    port.SettingsProvider
	defaultSite string
	logger      Logger
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*kioskEntry
}

// NewKioskService creates a new KioskService
func NewKioskService(engine *workflow.Engine, settings port.SettingsProvider, defaultSite string, logger Logger) *KioskService {
	return &KioskService{
		engine:      engine,
		settings:    settings,
		defaultSite: defaultSite,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*kioskEntry),
	}
}

// Start reads the site policy once and starts a session with it
func (k *KioskService) Start(ctx context.Context, req StartKioskRequest) (*SessionState, error) {
	siteID := strings.TrimSpace(req.SiteID)
	if siteID == "" {
		siteID = k.defaultSite
	}
	policy := k.settings.Get(ctx, siteID)

	entry := &kioskEntry{lastActive: k.now()}
	listener := workflow.ListenerFuncs{
		Complete: func(draft entity.VisitorDraft) {
			b := badge.Assemble(badge.FromDraft(draft), k.now())
			entry.mu.Lock()
			entry.badge = &b
			entry.mu.Unlock()
		},
		Error: func(err error) {
			k.logger.Error("Kiosk session reported error", "site_id", siteID, "error", err)
		},
	}

	session, err := k.engine.Start(ctx, workflow.StartRequest{
		SiteID:       siteID,
		Draft:        req.Visitor,
		Policy:       policy,
		IsNewVisitor: req.IsNewVisitor,
	}, listener)
	if err != nil {
		return nil, err
	}
	entry.session = session

	k.mu.Lock()
	k.sessions[session.ID()] = entry
	k.mu.Unlock()

	return k.state(entry), nil
}

// Get returns the current state of a session. A read counts as activity.
func (k *KioskService) Get(id string) (*SessionState, error) {
	entry, err := k.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.touch(k.now())
	return k.state(entry), nil
}

// CapturePhoto submits the PHOTO step
func (k *KioskService) CapturePhoto(ctx context.Context, id, photo string) (*SessionState, error) {
	return k.act(id, func(s *workflow.Session) error { return s.CapturePhoto(ctx, photo) })
}

// VerifyOTP submits the OTP step
func (k *KioskService) VerifyOTP(ctx context.Context, id, code string) (*SessionState, error) {
	return k.act(id, func(s *workflow.Session) error { return s.VerifyOTP(ctx, code) })
}

// AcceptNDA submits the NDA step
func (k *KioskService) AcceptNDA(ctx context.Context, id string, agreed bool) (*SessionState, error) {
	return k.act(id, func(s *workflow.Session) error { return s.AcceptNDA(ctx, agreed) })
}

// HostDecision submits the HOST_APPROVAL step
func (k *KioskService) HostDecision(ctx context.Context, id string, approved bool) (*SessionState, error) {
	return k.act(id, func(s *workflow.Session) error { return s.HostDecision(ctx, approved) })
}

// Back navigates to the previous step
func (k *KioskService) Back(ctx context.Context, id string) (*SessionState, error) {
	return k.act(id, func(s *workflow.Session) error { return s.Back(ctx) })
}

// Retry resends a failed visit write
func (k *KioskService) Retry(ctx context.Context, id string) (*SessionState, error) {
	return k.act(id, func(s *workflow.Session) error { return s.Retry(ctx) })
}

// Cancel ends a session. The entry stays readable until it is reaped.
func (k *KioskService) Cancel(ctx context.Context, id string) (*SessionState, error) {
	return k.act(id, func(s *workflow.Session) error { return s.Cancel(ctx) })
}

// ReapIdle closes and forgets sessions with no activity for idle. Sessions waiting
// on a guard decision are kept however long the wait. It returns the number removed.
func (k *KioskService) ReapIdle(idle time.Duration) int {
	cutoff := k.now().Add(-idle)

	k.mu.Lock()
	var stale []*kioskEntry
	for id, entry := range k.sessions {
		if entry.idleSince().Before(cutoff) && !entry.session.Snapshot().Polling {
			stale = append(stale, entry)
			delete(k.sessions, id)
		}
	}
	k.mu.Unlock()

	for _, entry := range stale {
		entry.session.Close()
		k.logger.Info("Idle kiosk session reaped", "session_id", entry.session.ID())
	}
	return len(stale)
}

// Count returns the number of tracked sessions
func (k *KioskService) Count() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.sessions)
}

// Close tears down every session
func (k *KioskService) Close() {
	k.mu.Lock()
	entries := k.sessions
	k.sessions = make(map[string]*kioskEntry)
	k.mu.Unlock()

	for _, entry := range entries {
		entry.session.Close()
	}
	k.logger.Info("Kiosk sessions closed", "count", len(entries))
}

// act runs fn on the session and returns the resulting state even when fn fails
func (k *KioskService) act(id string, fn func(s *workflow.Session) error) (*SessionState, error) {
	entry, err := k.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.touch(k.now())

	err = fn(entry.session)
	return k.state(entry), err
}

func (k *KioskService) lookup(id string) (*kioskEntry, error) {
	k.mu.RLock()
	entry, ok := k.sessions[id]
	k.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

func (k *KioskService) state(entry *kioskEntry) *SessionState {
	st := &SessionState{View: entry.session.Snapshot()}
	entry.mu.Lock()
	st.Badge = entry.badge
	entry.mu.Unlock()
	return st
}
