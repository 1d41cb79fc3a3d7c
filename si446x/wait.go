// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package si446x

import "time"

// Reset pulse timing. These are minimums: the chip needs its SDN line high for at least
// resetPulse to discharge, and then resetSettle after it goes low before it accepts POWER_UP.
// Waiting longer is harmless.
const (
	resetPulse  = 300 * time.Microsecond
	resetSettle = 5 * time.Millisecond
)

// Wait blocks for at least d. It sleeps for the bulk of the interval and busy-waits for the
// tail against the monotonic clock, so it never returns early even if the scheduler wakes the
// goroutine before the sleep is over, and overshoots by little for sub-millisecond waits.
func Wait(d time.Duration) {
	deadline := time.Now().Add(d)
	for {
		left := time.Until(deadline)
		switch {
		case left <= 0:
			return
		case left > 2*time.Millisecond:
			time.Sleep(left - time.Millisecond)
		}
	}
}
