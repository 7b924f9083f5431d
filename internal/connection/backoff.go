package connection

import "time"

// ReconnectDelay returns min(base * 2^attempt, max). Negative inputs are
// treated as zero.
func ReconnectDelay(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 || max <= 0 {
		return 0
	}
	if base >= max {
		return max
	}

	wait := base
	for i := 0; i < attempt; i++ {
		wait *= 2
		if wait >= max {
			return max
		}
	}
	return wait
}
