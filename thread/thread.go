// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// The thread package gives the goroutine that polls a radio a kernel thread of its own with
// realtime priority, so the CTS handshake and the reset timing are not stretched by other
// processes.
package thread

// Policy is a kernel scheduling policy.
type Policy uint32

const (
	FIFO Policy = 1 // fifo scheduling policy
	RR   Policy = 2 // round-robin scheduling policy
)

// DefaultPriority is somewhere in the lower middle of the realtime range.
const DefaultPriority = 10

// Realtime locks the calling goroutine to its own kernel thread and elevates that thread's
// priority to realtime using the round-robin policy at DefaultPriority.
func Realtime() error {
	return SetScheduler(RR, DefaultPriority)
}
