package services

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// Backoff is the retry policy of queued writes.
type Backoff struct {
	Base       time.Duration
	Max        time.Duration
	MaxRetries int
}

func DefaultBackoff() Backoff {
	return Backoff{Base: time.Second, Max: 5 * time.Minute, MaxRetries: 8}
}

// Delay returns the wait before attempt number attempt (1-based): Base,
// 2*Base, 4*Base and so on, capped at Max.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := b.Base
	if base <= 0 {
		base = time.Second
	}

	var bo retry.Backoff = retry.NewExponential(base)
	if b.Max > 0 {
		bo = retry.WithCappedDuration(b.Max, bo)
	}

	var d time.Duration
	for i := 0; i < attempt; i++ {
		d, _ = bo.Next()
	}
	return d
}

// Exhausted reports whether retryCount attempts use up the budget.
func (b Backoff) Exhausted(retryCount int) bool {
	return b.MaxRetries > 0 && retryCount >= b.MaxRetries
}
