package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionStore is the part of the kiosk service the reaper needs
type SessionStore interface {
	ReapIdle(idle time.Duration) int
	Count() int
}

// SessionReaperConfig holds configuration for the idle session reaper
type SessionReaperConfig struct {
	Interval    time.Duration
	IdleTimeout time.Duration
}

// DefaultSessionReaperConfig returns default configuration
func DefaultSessionReaperConfig() SessionReaperConfig {
	return SessionReaperConfig{
		Interval:    time.Minute,
		IdleTimeout: 30 * time.Minute,
	}
}

// SessionReaper closes kiosk sessions abandoned at the terminal
type SessionReaper struct {
	config SessionReaperConfig
	store  SessionStore
	logger *zap.Logger

	mu          sync.Mutex
	isRunning   bool
	cancel      context.CancelFunc
	done        chan struct{}
	reapedCount int
}

// NewSessionReaper creates a new reaper
func NewSessionReaper(config SessionReaperConfig, store SessionStore, logger *zap.Logger) *SessionReaper {
	defaults := DefaultSessionReaperConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	return &SessionReaper{
		config: config,
		store:  store,
		logger: logger,
	}
}

// Start begins the reap loop
func (r *SessionReaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isRunning {
		return fmt.Errorf("session reaper already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.isRunning = true

	r.logger.Info("SessionReaper started",
		zap.Duration("interval", r.config.Interval),
		zap.Duration("idle_timeout", r.config.IdleTimeout))

	go r.loop(loopCtx, r.done)
	return nil
}

// Stop terminates the loop and waits for it to exit
func (r *SessionReaper) Stop() error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done

	r.mu.Lock()
	reaped := r.reapedCount
	r.mu.Unlock()
	r.logger.Info("SessionReaper stopped", zap.Int("reaped_count", reaped))
	return nil
}

// Name returns the worker name for identification
func (r *SessionReaper) Name() string {
	return "SessionReaper"
}

// ReapedCount returns the total number of sessions removed so far
func (r *SessionReaper) ReapedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reapedCount
}

func (r *SessionReaper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reapOnce()
		}
	}
}

func (r *SessionReaper) reapOnce() {
	n := r.store.ReapIdle(r.config.IdleTimeout)

	r.mu.Lock()
	r.reapedCount += n
	r.mu.Unlock()

	if n > 0 {
		r.logger.Info("Reaped idle kiosk sessions",
			zap.Int("reaped", n),
			zap.Int("remaining", r.store.Count()))
	}
}
