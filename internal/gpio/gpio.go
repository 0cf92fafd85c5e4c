// Package gpio provides the hardware surface of the pulse emulator with
// abstraction for testing. The real implementation uses the Linux GPIO
// character device; the fake implementation allows testing without
// hardware.
package gpio

// IO bundles the three lines the control loop touches every iteration.
type IO interface {
	// Pressed returns the logical button level, true = pressed. The raw
	// line is active-low (pulled up, open circuit = released); the
	// inversion happens here so callers never see raw levels.
	Pressed() (bool, error)

	// SetPulse drives the pulse output. The line idles high; active=true
	// pulls it low to signal one detected event to downstream hardware.
	SetPulse(active bool) error

	// SetIndicator drives the visual pulse indicator LED.
	SetIndicator(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// Pin defaults (BCM numbering). Pulse and LED follow the original board
// wiring; the button is free on the header.
const (
	DefaultPinButton = 16
	DefaultPinPulse  = 7
	DefaultPinLED    = 13
)
