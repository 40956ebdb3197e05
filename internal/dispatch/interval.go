package dispatch

import "time"

// intervalDuration converts a settings buffer_interval (whole seconds)
// into a time.Duration, treating a non-positive value as an immediate
// (1-tick) flush rather than a busy loop.
func intervalDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return time.Second
	}
	return time.Duration(seconds) * time.Second
}
