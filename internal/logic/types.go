// Package logic contains the pure pulse-scheduling core: Bernoulli trials
// against a threshold, rate-preset switching, debounced button input, and
// minute-windowed counting. This package has NO external dependencies (no
// GPIO, serial, MQTT, OS, or time.Sleep). Time is always injectable via
// time.Time parameters.
package logic

import (
	"math"
	"time"
)

// Setting identifies the active rate preset.
type Setting string

const (
	SettingFast Setting = "FAST"
	SettingSlow Setting = "SLOW"
)

// ScaleConstant converts a target counts-per-minute figure into a trial
// threshold: threshold = cpm * ScaleConstant. With 10 ms trials this scales
// the per-trial hit probability threshold/2^32 to realize the target rate.
const ScaleConstant uint32 = math.MaxUint32 >> 18

// Source produces uniformly distributed 32-bit values. It must already be
// seeded; the engine draws exactly one value per trial.
type Source interface {
	Uint32() uint32
}

// Config holds the emulation constants. These mirror the firmware's
// compile-time configuration; deployment wiring (pins, transports) is
// configured elsewhere.
type Config struct {
	TrialPeriod   time.Duration // one Bernoulli trial per period
	PulseWidth    time.Duration // pulse line held low this long
	IndicatorHold time.Duration // LED stays lit this long after a pulse
	ReportWindow  time.Duration // counting window for one CSV record
	Debounce      time.Duration // button stability requirement
	FastCPM       uint32
	SlowCPM       uint32
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		TrialPeriod:   10 * time.Millisecond,
		PulseWidth:    1000 * time.Microsecond,
		IndicatorHold: 20 * time.Millisecond,
		ReportWindow:  60000 * time.Millisecond,
		Debounce:      30 * time.Millisecond,
		FastCPM:       45,
		SlowCPM:       12,
	}
}

// Input is one control-loop sample.
type Input struct {
	// RawPressed is the instantaneous button level, true = pressed
	// (already inverted from the active-low line by the GPIO layer).
	RawPressed bool
	Time       time.Time
}

// Output describes the externally visible effects of one Step. Zero value
// means nothing observable happened.
type Output struct {
	Toggled bool    // a debounced press flipped the preset this step
	Setting Setting // preset active after this step

	Pulse        bool // assert the pulse line (and light the indicator)
	PulseEnd     bool // pulse-width hold elapsed, deassert the pulse line
	IndicatorOff bool // indicator hold elapsed, turn the LED off

	Report *Record // non-nil when a report window closed this step
}

// Record is one statistics report: elapsed time since engine start and the
// number of pulses counted in the window just closed.
type Record struct {
	Elapsed time.Duration
	Count   uint32
	Setting Setting
}

// Millis returns the elapsed time in milliseconds, as printed in the
// "millis,cpm" CSV stream.
func (r Record) Millis() int64 { return r.Elapsed.Milliseconds() }

// Totals accumulates lifetime counters for status reporting.
type Totals struct {
	Pulses  uint64
	Toggles uint64
	Windows uint64
}
