package workflow

import (
	"sync"
	"time"
)

// CancelFunc stops a scheduled task. Calling it more than once is a no-op.
// It never waits for a running invocation, so a task may cancel itself.
type CancelFunc func()

// Scheduler runs a task repeatedly on a fixed interval until cancelled
type Scheduler interface {
	Schedule(interval time.Duration, fn func()) CancelFunc
}

// TickerScheduler runs each scheduled task on its own ticker goroutine
type TickerScheduler struct{}

// NewTickerScheduler creates a Scheduler backed by time.Ticker
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Schedule runs fn every interval; the first run happens one interval after scheduling
func (TickerScheduler) Schedule(interval time.Duration, fn func()) CancelFunc {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// a tick and a cancel can be ready together
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
