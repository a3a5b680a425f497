// Package backoff computes truncated binary exponential backoff delays for
// retry loops, mainly around the database connection.
package backoff

import (
	"math/rand"
	"time"
)

const int64Max = 1<<63 - 1

// Duration returns a random backoff in [0, slotTime*(2^retries)), capped at
// maximum. Zero for non-positive inputs.
func Duration(retries int64, slotTime time.Duration, maximum time.Duration) (backoff time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			backoff = maximum
		}
	}()

	if slotTime <= 0 || retries <= 0 {
		return time.Duration(0)
	}
	umax := uint64(1) << retries
	if umax > int64Max || umax == 0 {
		return maximum
	}
	n := rand.Int63n(int64(umax))

	// Prevents overflow
	u64Time := uint64(slotTime.Nanoseconds()) * uint64(n)
	if u64Time > int64Max {
		return maximum
	}

	backoff = time.Duration(n) * slotTime
	if backoff > maximum {
		backoff = maximum
	}
	return backoff
}

// Sleep blocks for the computed backoff.
func Sleep(retries int64, slotTime time.Duration, maximum time.Duration) {
	time.Sleep(Duration(retries, slotTime, maximum))
}
