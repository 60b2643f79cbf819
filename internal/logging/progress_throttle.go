package logging

import "time"

// progressThrottle suppresses repetitive progress output while preserving
// signal: it fires once the interval has elapsed since the last emission, and
// once more the first time the counter reaches its total.
type progressThrottle struct {
	interval time.Duration
	last     time.Time
	reached  bool
}

func newProgressThrottle(interval time.Duration, start time.Time) *progressThrottle {
	return &progressThrottle{interval: interval, last: start}
}

// ShouldEmit reports whether output is due at now. A non-positive total
// means the total is unknown and only the interval applies.
func (t *progressThrottle) ShouldEmit(now time.Time, current, total int64) bool {
	if t == nil {
		return true
	}
	if total > 0 && current >= total && !t.reached {
		t.reached = true
		t.last = now
		return true
	}
	if now.Sub(t.last) >= t.interval {
		t.last = now
		return true
	}
	return false
}
