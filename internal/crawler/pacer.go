package crawler

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out requests: after Done, the next Wait returns no sooner than
// delay later, plus a uniform random jitter in [0, jitter). A nil Pacer never
// waits.
type Pacer struct {
	delay  time.Duration
	jitter time.Duration

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewPacer creates a pacer. Zero delay and jitter give a pacer that never waits.
func NewPacer(delay, jitter time.Duration) *Pacer {
	p := &Pacer{delay: delay, jitter: jitter}
	if delay > 0 {
		p.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return p
}

// Wait blocks until the next request may be sent
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	p.mu.Lock()
	lim := p.limiter
	p.mu.Unlock()

	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
	}
	if p.jitter > 0 {
		return sleep(ctx, time.Duration(rand.Int64N(int64(p.jitter))))
	}
	return ctx.Err()
}

// Done marks the end of a request. The delay before the next one counts from
// here, so a slow response does not shorten the pause.
func (p *Pacer) Done() {
	if p == nil || p.delay <= 0 {
		return
	}
	lim := rate.NewLimiter(rate.Every(p.delay), 1)
	lim.Allow() // drain the burst token; the next one is due delay from now

	p.mu.Lock()
	p.limiter = lim
	p.mu.Unlock()
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
