package segment

import (
	"math/rand"
	"time"
)

const (
	defaultRetryDelay    = 500 * time.Millisecond
	defaultRetryMaxDelay = 10 * time.Second
)

// RetryPolicy controls how failed segment fetches are retried. A zero
// MaxAttempts retries until the fetch succeeds or the context is done.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Delay:    defaultRetryDelay,
		MaxDelay: defaultRetryMaxDelay,
	}
}

// Exhausted reports whether attempts failed fetches use up the policy.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return p.MaxAttempts > 0 && attempts >= p.MaxAttempts
}

// Backoff returns the wait before the next attempt after attempts failures:
// Delay doubled per failure with +/- 10% jitter, capped at MaxDelay.
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	if p.Delay <= 0 || attempts <= 0 {
		return 0
	}

	shift := min(attempts-1, 30)
	delay := p.Delay * (1 << uint(shift))

	jitter := time.Duration(rand.Float64() * float64(delay) * 0.2)
	finalDelay := delay + jitter - (time.Duration(float64(delay) * 0.1))

	if p.MaxDelay > 0 && (finalDelay > p.MaxDelay || finalDelay < 0) {
		finalDelay = p.MaxDelay
	}

	return finalDelay
}
