// Package timer implements the polled tick scheduler used by the control
// loop. A Timer is pure state (period + last-fire timestamp) driven by an
// injected current time, so the same logic runs against the wall clock in
// production and a synthetic clock in tests.
package timer

import "time"

// Timer is a poll-style periodic timer. It never blocks and owns no
// goroutine; the caller asks it whether its period has elapsed.
//
// Two querying styles are supported, mirroring the firmware timers this
// replaces: OnRestart for free-running periodic work (the trial clock and
// the report window) and Restart/OnExpired for one-shot holds that are
// re-armed on demand (the pulse indicator).
type Timer struct {
	period time.Duration
	last   time.Time
	armed  bool
}

// New returns a timer whose period is measured from now. The one-shot side
// starts disarmed; OnExpired reports nothing until Restart is called.
func New(period time.Duration, now time.Time) *Timer {
	return &Timer{period: period, last: now}
}

// Period returns the configured period.
func (t *Timer) Period() time.Duration { return t.period }

// Restart re-arms the timer, measuring the next expiry from now.
func (t *Timer) Restart(now time.Time) {
	t.last = now
	t.armed = true
}

// OnRestart reports whether the period has elapsed since the last fire and,
// if so, restarts the measurement from now. Successive fires therefore
// space themselves by at least one period; polling jitter is absorbed, not
// accumulated into extra fires.
func (t *Timer) OnRestart(now time.Time) bool {
	if now.Sub(t.last) < t.period {
		return false
	}
	t.last = now
	return true
}

// OnExpired reports true exactly once after the period has elapsed
// following a Restart, then disarms until the next Restart.
func (t *Timer) OnExpired(now time.Time) bool {
	if !t.armed || now.Sub(t.last) < t.period {
		return false
	}
	t.armed = false
	return true
}
