// Package pacer spaces out calls to rate-limited upstream APIs.
package pacer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval keeps Alpha Vantage's free tier (5 calls/min) comfortably satisfied.
const DefaultInterval = 13 * time.Second

// Pacer blocks until the next call may be issued.
type Pacer interface {
	Wait(ctx context.Context) error
}

// IntervalPacer lets the first call through immediately and each later call
// no sooner than the interval after the previous one.
type IntervalPacer struct {
	limiter *rate.Limiter
}

// NewIntervalPacer returns a minimum-interval gate. d <= 0 disables pacing.
func NewIntervalPacer(d time.Duration) *IntervalPacer {
	limit := rate.Inf
	if d > 0 {
		limit = rate.Every(d)
	}
	return &IntervalPacer{limiter: rate.NewLimiter(limit, 1)}
}

func (p *IntervalPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Nop never waits.
type Nop struct{}

func (Nop) Wait(ctx context.Context) error { return ctx.Err() }
