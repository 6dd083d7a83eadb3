package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may be sent right now, consuming the slot if so
	Allow() bool
	// Wait blocks until the next request may be sent or ctx is done
	Wait(ctx context.Context) error
	// Reset forgets past requests so the next one goes out immediately
	Reset()
}

// Politeness enforces a minimum interval between consecutive requests.
// It is a token bucket of size one refilled once per delay.
type Politeness struct {
	mu      sync.Mutex
	delay   time.Duration
	limiter *rate.Limiter
}

// NewPoliteness creates a limiter spacing requests at least delay apart.
// A zero delay disables pacing.
func NewPoliteness(delay time.Duration) *Politeness {
	p := &Politeness{delay: delay}
	p.limiter = newLimiter(delay)
	return p
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Allow checks if a request can proceed
func (p *Politeness) Allow() bool {
	return p.current().Allow()
}

// Wait blocks until the minimum delay since the previous request has passed
func (p *Politeness) Wait(ctx context.Context) error {
	return p.current().Wait(ctx)
}

// Reset restores the limiter to its initial, ready state
func (p *Politeness) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limiter = newLimiter(p.delay)
}

// Delay returns the configured minimum interval
func (p *Politeness) Delay() time.Duration {
	return p.delay
}

func (p *Politeness) current() *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limiter
}
