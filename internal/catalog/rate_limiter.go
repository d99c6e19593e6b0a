package catalog

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"kabs/internal/metrics"
)

// RateLimiter spaces out price store calls to a fixed number per second.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1)}
}

// WaitTurn blocks until the next call may go out or ctx is done.
func (r *RateLimiter) WaitTurn(ctx context.Context) error {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.RecordRateLimit(waited)
	}
	return nil
}
