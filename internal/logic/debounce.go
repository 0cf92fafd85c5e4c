package logic

import "time"

// Debouncer turns the noisy sampled level of the rate-select button into
// clean press edges. A level change must hold for the configured duration
// before it is accepted; bounce around a transition therefore yields at
// most one edge, and an accepted edge is reported exactly once.
//
// The first stable level observed becomes the baseline without emitting an
// edge, so a button held during startup does not toggle the rate.
type Debouncer struct {
	hold       time.Duration
	baselined  bool
	stable     bool // accepted level, true = pressed
	pending    bool
	hasPending bool
	since      time.Time // when the pending level was first observed
}

// NewDebouncer creates a debouncer requiring the given stability duration.
func NewDebouncer(hold time.Duration) *Debouncer {
	return &Debouncer{hold: hold}
}

// Process takes one raw sample (true = pressed) and reports whether a
// debounced press edge occurred. Release edges are absorbed silently; only
// the released-to-pressed transition toggles the rate.
func (d *Debouncer) Process(pressed bool, now time.Time) bool {
	if !d.baselined {
		if !d.hasPending || d.pending != pressed {
			// start (or restart) observing
			d.pending = pressed
			d.hasPending = true
			d.since = now
			return false
		}
		if now.Sub(d.since) >= d.hold {
			d.stable = pressed
			d.baselined = true
			d.hasPending = false
		}
		return false
	}

	if pressed == d.stable {
		// back at the accepted level: any bounce in flight is discarded
		d.hasPending = false
		return false
	}

	if !d.hasPending || d.pending != pressed {
		d.pending = pressed
		d.hasPending = true
		d.since = now
		return false
	}

	if now.Sub(d.since) < d.hold {
		return false
	}

	d.stable = pressed
	d.hasPending = false
	return d.stable
}

// Pressed returns the current accepted level.
func (d *Debouncer) Pressed() bool { return d.baselined && d.stable }

// Baselined reports whether an initial stable level has been established.
func (d *Debouncer) Baselined() bool { return d.baselined }
