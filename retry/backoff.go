// Package retry retries calls to a remote with exponential back-off and
// jitter. Which errors are retried is up to the caller.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// backoff returns the delay after the given 0-indexed attempt, capped at
// cfg.MaxDelay when set.
func backoff(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if limit := float64(cfg.MaxDelay); limit > 0 && delay > limit {
		delay = limit
	}
	if cfg.Jitter > 0 {
		delay += delay * cfg.Jitter * (rand.Float64()*2 - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
