package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const maxRetryDelay = 30 * time.Second

// RetryIf runs fn up to attempts times, doubling delay between tries.
// Errors rejected by retryable are returned immediately; nil retries everything.
func RetryIf(ctx context.Context, attempts int, delay time.Duration, retryable func(error) bool, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			zerolog.Ctx(ctx).Debug().Int("attempt", i+1).Dur("delay", delay).Msg("retrying request")

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry aborted after %d attempts: %w", i, err)
			case <-timer.C:
			}

			delay *= 2
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
	}
	if attempts == 1 {
		return err
	}
	return fmt.Errorf("after %d attempts, last error: %w", attempts, err)
}
