package poller

import "time"

// targetState holds the per-target watermarks §4.6 requires: the
// high-water mark up to which activity has been consumed, and the last
// time a silence (or liveness heartbeat) was reported, so repeated quiet
// polls don't spam the log every interval.
type targetState struct {
	lastActivity      time.Time
	lastSilenceReport time.Time
	lastHeartbeat     time.Time
}

func newTargetState(now time.Time, pollingDelay time.Duration) *targetState {
	return &targetState{
		lastActivity:      now.Add(-pollingDelay),
		lastSilenceReport: now,
		lastHeartbeat:     now,
	}
}

// dueForSilenceReport reports whether at least taskCheckInterval has
// elapsed since the last silence log, advancing the watermark if so.
func (s *targetState) dueForSilenceReport(now time.Time, taskCheckInterval time.Duration) bool {
	if taskCheckInterval <= 0 {
		return false
	}
	if now.Sub(s.lastSilenceReport) < taskCheckInterval {
		return false
	}
	s.lastSilenceReport = now
	return true
}

// ReportHeartbeat logs a "poller alive" line on the same cadence as the
// silence report, distinguishing a quiet-but-running poller from one
// that died silently.
func (s *targetState) ReportHeartbeat(now time.Time, taskCheckInterval time.Duration) bool {
	if taskCheckInterval <= 0 {
		return false
	}
	if now.Sub(s.lastHeartbeat) < taskCheckInterval {
		return false
	}
	s.lastHeartbeat = now
	return true
}
