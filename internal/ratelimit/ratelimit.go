// Package ratelimit implements a token-bucket guard in front of the LLM
// provider for environments with hard requests-per-minute quotas.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a continuous-refill token bucket. Tokens refill at a rate of
// (limit / window) per second, capped at limit.
type Limiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	tokens    float64
	lastCheck time.Time
}

// New creates a limiter allowing `limit` operations per window. A limit of
// zero disables limiting.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:     limit,
		window:    window,
		tokens:    float64(limit),
		lastCheck: time.Now(),
	}
}

// Allow consumes one token if available.
func (l *Limiter) Allow() bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.lastCheck)
	l.lastCheck = now

	rate := float64(l.limit) / l.window.Seconds()
	l.tokens += elapsed.Seconds() * rate
	if l.tokens > float64(l.limit) {
		l.tokens = float64(l.limit)
	}

	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// Wait blocks until a token is available or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limit <= 0 {
		return nil
	}
	for {
		if l.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
