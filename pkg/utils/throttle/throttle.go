package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum gap between two outbound Slack messages
const DefaultInterval = time.Second

// Gate enforces a process-wide minimum interval between outbound sends.
// A single Gate must be shared by every component that sends; calls are
// serialised so that no two callers can pass within the same interval.
type Gate struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// New creates a Gate. A non-positive interval falls back to DefaultInterval.
func New(interval time.Duration) *Gate {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Gate{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		now:      time.Now,
	}
}

// Wait blocks until the caller is allowed to send. It returns an error only
// when ctx is done before the slot opens.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.limiter.Wait(ctx); err != nil {
		return goerr.Wrap(err, "throttle wait aborted", goerr.V("interval", g.interval))
	}
	g.last = g.now()
	return nil
}

// Interval returns the configured minimum interval
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// LastPass returns when the most recent caller was let through. Zero if none.
func (g *Gate) LastPass() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
