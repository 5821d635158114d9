// Package ratelimit paces outbound vendor requests for polling adapters (the
// historical backfill service uses a fixed sleep instead). It wraps
// golang.org/x/time/rate rather than hand-rolling a token bucket, since this
// layer only needs a standard limiter -- contrast with the streaming
// adapter's fixed-period keepalive ticker, which has no burst/refill
// semantics worth a library.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces requests to at most one per `every`, with the given burst.
type Limiter struct {
	rl *rate.Limiter
}

// New builds a Limiter allowing one request every `every` with `burst`
// allowed to queue up front.
func New(every time.Duration, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{rl: rate.NewLimiter(rate.Every(every), burst)}
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// Allow reports whether a request may proceed right now, without blocking.
func (l *Limiter) Allow() bool {
	return l.rl.Allow()
}
