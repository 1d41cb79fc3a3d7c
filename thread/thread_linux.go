// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package thread

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// SetScheduler locks the calling goroutine to its kernel thread and sets that thread's
// scheduling policy and priority. The goroutine stays locked even if the call fails.
func SetScheduler(policy Policy, priority int) error {
	if priority < 1 || priority > 99 {
		return fmt.Errorf("thread: realtime priority %d out of range", priority)
	}
	runtime.LockOSThread()
	attr := unix.SchedAttr{Policy: uint32(policy), Priority: uint32(priority)}
	if err := unix.SchedSetAttr(unix.Gettid(), &attr, 0); err != nil {
		return fmt.Errorf("thread: sched_setattr: %v", err)
	}
	return nil
}
