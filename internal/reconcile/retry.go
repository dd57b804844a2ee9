package reconcile

import (
	"context"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
)

// RetryTransient runs fn with bounded exponential backoff. Only
// transient failures (network/5xx) are retried: validation and
// stale-state outcomes return immediately, since retrying would
// resubmit stale intent.
func RetryTransient(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	var err error
	delay := base
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !models.IsTransient(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
