package pet

import "time"

const day = 24 * time.Hour

// AgeDays returns the whole days elapsed since the lifecycle started. Clock
// skew that puts now before StartedAt yields 0.
func AgeDays(s State, now time.Time) int {
	elapsed := now.Sub(s.StartedAt)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / day)
}

// IsExpired reports whether the pet has reached its maximum lifespan.
func IsExpired(s State, now time.Time, maxLifespanDays int) bool {
	return AgeDays(s, now) >= maxLifespanDays
}
