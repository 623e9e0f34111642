package browser

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces page fetches out so traffic looks like a person browsing.
// Wait enforces a minimum interval between fetches, SettleDelay adds a
// randomized pause after a page loads.
type Pacer struct {
	limiter  *rate.Limiter
	minDelay time.Duration
	maxDelay time.Duration
	rnd      *rand.Rand
}

// NewPacer creates a pacer with the given minimum fetch interval and settle
// delay range. A non-positive interval disables the rate limit, a degenerate
// delay range collapses to minDelay.
func NewPacer(minInterval, minDelay, maxDelay time.Duration) *Pacer {
	var limiter *rate.Limiter
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Pacer{
		limiter:  limiter,
		minDelay: minDelay,
		maxDelay: maxDelay,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewDisabledPacer creates a pacer that never waits. Tests use it to keep
// fetch paths fast.
func NewDisabledPacer() *Pacer {
	return NewPacer(0, 0, 0)
}

// Wait blocks until the next fetch slot opens.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

// SettleDelay sleeps a random duration inside the configured range.
func (p *Pacer) SettleDelay(ctx context.Context) error {
	delay := p.minDelay
	if spread := p.maxDelay - p.minDelay; spread > 0 {
		delay += time.Duration(p.rnd.Int63n(int64(spread)))
	}
	return p.Sleep(ctx, delay)
}

// Sleep pauses for d, returning early if the context is cancelled.
func (p *Pacer) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
