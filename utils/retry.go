package utils

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryPolicy is a fixed-delay bounded retry policy.
// MaxRetries counts retries after the first attempt.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// Attempts returns the total number of attempts the policy allows
func (p RetryPolicy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Retry runs op until it succeeds or the policy is exhausted, sleeping Delay between attempts.
// op receives the 1-based attempt number. The last error is returned.
func Retry(ctx context.Context, policy RetryPolicy, op func(attempt int) error) error {
	attempts := policy.Attempts()

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		log.WithFields(log.Fields{
			"attempt": attempt,
			"max":     attempts,
			"delay":   policy.Delay,
		}).Debugf("retrying after error: %v", err)

		if sleepErr := Sleep(ctx, policy.Delay); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

// Sleep waits for d or until ctx is done. A non-positive d returns immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
