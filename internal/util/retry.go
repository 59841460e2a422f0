// ABOUTME: Retry utilities for API calls with randomized exponential backoff
// ABOUTME: Shared by the embedding and summarization calls for consistent retry behavior
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// RandomExponentialBackoff returns the wait before retry number attempt (1-based).
// The upper bound starts at minWait and doubles per attempt, capped at maxWait;
// the returned wait is drawn uniformly from [minWait, upper].
func RandomExponentialBackoff(minWait, maxWait time.Duration, attempt int) time.Duration {
	if attempt <= 0 || maxWait <= 0 {
		return 0
	}
	if minWait < 0 {
		minWait = 0
	}
	if minWait > maxWait {
		minWait = maxWait
	}

	upper := max(minWait, time.Millisecond)
	for i := 1; i < attempt && upper < maxWait; i++ {
		upper *= 2
	}
	if upper > maxWait {
		upper = maxWait
	}
	if upper <= minWait {
		return minWait
	}
	return minWait + time.Duration(rand.Int64N(int64(upper-minWait)+1))
}

// Sleep waits for d or until ctx is done, whichever comes first
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
