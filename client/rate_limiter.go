package client

import (
	"context"

	"golang.org/x/time/rate"
)

// newLimiter paces page requests. A non-positive rate disables pacing.
func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

func (c *Client) wait(ctx context.Context) error {
	if c.Limiter == nil {
		return ctx.Err()
	}
	return c.Limiter.Wait(ctx)
}
