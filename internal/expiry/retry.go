package expiry

import (
	"context"
	"time"
)

// RetryPolicy controls how remote calls inside a pass are retried.
// The zero value and NoRetry both make a single attempt.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// NoRetry makes exactly one attempt per call.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// Do calls fn until it succeeds, the attempts run out or ctx is cancelled.
// Backoff doubles after each failure, capped at MaxBackoff when set.
// The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.MaxAttempts, 1)
	backoff := p.InitialBackoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if backoff > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return err
			}
			backoff *= 2
			if p.MaxBackoff > 0 {
				backoff = min(backoff, p.MaxBackoff)
			}
		}
	}
	return err
}
