package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/jonboulle/clockwork"
)

// MaxAttempts bounds how often a transient failure is tried.
const MaxAttempts = 3

// DelayFunc waits before the next attempt. attempt is the number of failed
// attempts so far, starting at 1.
type DelayFunc func(ctx context.Context, attempt int) error

// Retry runs op until it succeeds, fails with a non-transient error, or
// MaxAttempts is reached. The last error is returned on exhaustion.
func Retry(ctx context.Context, delay DelayFunc, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = op(ctx)
		if err == nil || !domain.IsRetryable(err) {
			return err
		}
		if attempt == MaxAttempts {
			break
		}
		if delay != nil {
			if delayErr := delay(ctx, attempt); delayErr != nil {
				return delayErr
			}
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", MaxAttempts, err)
}

// BackoffDelay doubles base for every failed attempt.
func BackoffDelay(clock clockwork.Clock, base time.Duration) DelayFunc {
	return func(ctx context.Context, attempt int) error {
		d := base << (attempt - 1)
		select {
		case <-clock.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
