// Package common — retry.go: the retry policy for storage faults.
package common

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryBackoff is the pause before the single retry of a failed
// storage operation.
const RetryBackoff = 200 * time.Millisecond

// RetryOnce runs op and retries exactly once on a transient fault.
// Business outcomes (IsBusinessOutcome) are returned immediately and
// never retried; a second transient failure is wrapped in
// ErrLedgerUnavailable for the handler to surface as "try again".
func RetryOnce(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || IsBusinessOutcome(err) {
		return err
	}

	log.WithError(err).Warn("storage operation failed, retrying once")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(RetryBackoff):
	}

	if err = op(); err == nil || IsBusinessOutcome(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
}
