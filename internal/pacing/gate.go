// Package pacing spaces outbound requests by a minimum interval.
package pacing

import (
	"context"
	"sync"
	"time"
)

// Gate spaces outbound requests: a caller is let through only once the
// interval has passed since the previous request finished (or started, while
// it is still in flight). Callers pair every Wait with a Done.
// It is safe for concurrent use. A nil Gate or a zero interval never blocks.
type Gate struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGate creates a gate with the given minimum interval.
func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until at least one interval has passed since the previous
// request was released by Done, or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil || g.interval <= 0 {
		return ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		if d := g.interval - g.now().Sub(g.last); d > 0 {
			if err := g.sleep(ctx, d); err != nil {
				return err
			}
		}
	}
	g.last = g.now()
	return nil
}

// Done marks the request let through by the last Wait as finished; the next
// interval is measured from here.
func (g *Gate) Done() {
	if g == nil || g.interval <= 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = g.now()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
