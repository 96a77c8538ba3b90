package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// RetryPolicy bounds repeated attempts of one call. MaxAttempts of 1 disables retries.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// Backoff is the pause after failed attempt n, counted from 1.
func (p RetryPolicy) Backoff(n int) time.Duration {
	wait := p.InitialBackoff
	for i := 1; i < n; i++ {
		wait = time.Duration(float64(wait) * p.Multiplier)
		if wait >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return min(wait, p.MaxBackoff)
}

// BreakerPolicy opens an operation's circuit once FailureRatio of at least
// MinRequests calls in the current window have tripped.
type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

func (p BreakerPolicy) shouldOpen(counts gobreaker.Counts) bool {
	if counts.Requests < p.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= p.FailureRatio
}

type Config struct {
	Retry   RetryPolicy
	Breaker BreakerPolicy
}

// DefaultConfig suits calls to local services: no retries, a breaker that
// opens on a sustained outage.
func DefaultConfig() Config {
	return Config{
		Retry: RetryPolicy{
			MaxAttempts:    1,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     time.Second,
			Multiplier:     2,
		},
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      5,
			FailureRatio:     0.6,
			OpenTimeout:      30 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	r, b := c.Retry, c.Breaker

	r.MaxAttempts = positiveOr(r.MaxAttempts, def.Retry.MaxAttempts)
	r.InitialBackoff = positiveOr(r.InitialBackoff, def.Retry.InitialBackoff)
	r.MaxBackoff = max(r.MaxBackoff, r.InitialBackoff)
	if r.Multiplier < 1 {
		r.Multiplier = def.Retry.Multiplier
	}

	b.MinRequests = positiveOr(b.MinRequests, def.Breaker.MinRequests)
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		b.FailureRatio = def.Breaker.FailureRatio
	}
	b.OpenTimeout = positiveOr(b.OpenTimeout, def.Breaker.OpenTimeout)
	b.HalfOpenMaxCalls = positiveOr(b.HalfOpenMaxCalls, def.Breaker.HalfOpenMaxCalls)

	return Config{Retry: r, Breaker: b}
}

func positiveOr[T int | uint32 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}
