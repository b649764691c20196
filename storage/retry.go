package storage

import (
	"fmt"
	"time"

	"github.com/elastic/elastic-agent-libs/logp"
)

// retryWithBackoff runs f up to maxAttempts times, sleeping
// baseDelay*2^(attempt-1) between attempts (spec §4.4). Exhaustion wraps
// the last error and surfaces as a storage error to the caller (spec §7
// StorageIoTransient once attempts are exhausted).
func retryWithBackoff(maxAttempts int, baseDelay time.Duration, log *logp.Logger, op string, f func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = f()
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		delay := baseDelay * time.Duration(uint64(1)<<uint(attempt-1))
		log.Warnf("%s failed (attempt %d/%d), retrying in %s: %v", op, attempt, maxAttempts, delay, lastErr)
		time.Sleep(delay)
	}
	return fmt.Errorf("%s: exhausted %d attempts: %w", op, maxAttempts, lastErr)
}
