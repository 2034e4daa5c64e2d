package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum interval between outbound requests. The crawl is
// strictly sequential, so a single-burst limiter is exactly a minimum-interval
// gate.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer with the given minimum interval. A zero or
// negative interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the minimum interval since the previous Wait has passed,
// or the context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
