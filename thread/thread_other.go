// Copyright 2016 by Thorsten von Eicken, see LICENSE file

//go:build !linux

package thread

import "errors"

// SetScheduler is only supported on linux.
func SetScheduler(policy Policy, priority int) error {
	return errors.New("thread: realtime scheduling not supported on this platform")
}
