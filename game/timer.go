package game

import "time"

// roundTimer is the per-room countdown. It is advisory: it never ends a
// round by itself, the room actor does that when Expired reports true.
// The state is just an absolute start plus a duration, so any observer
// (including a client reconnecting mid-round) can recompute the remaining
// time instead of restarting a fresh countdown.
type roundTimer struct {
	start    time.Time
	duration time.Duration
}

func newRoundTimer(start time.Time, duration time.Duration) roundTimer {
	return roundTimer{start: start, duration: duration}
}

func (t roundTimer) Elapsed(now time.Time) time.Duration {
	elapsed := now.Sub(t.start)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func (t roundTimer) Remaining(now time.Time) time.Duration {
	remaining := t.duration - t.Elapsed(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (t roundTimer) Expired(now time.Time) bool {
	return t.Remaining(now) == 0
}
