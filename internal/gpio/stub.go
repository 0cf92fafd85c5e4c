//go:build !linux

package gpio

import "errors"

// RealIO is not available on non-Linux platforms.
type RealIO struct{}

// NewRealIO returns an error on non-Linux platforms.
func NewRealIO(pinButton, pinPulse, pinLED int) (*RealIO, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Pressed is not implemented on non-Linux platforms.
func (r *RealIO) Pressed() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// SetPulse is not implemented on non-Linux platforms.
func (r *RealIO) SetPulse(active bool) error {
	return errors.New("gpio: not supported")
}

// SetIndicator is not implemented on non-Linux platforms.
func (r *RealIO) SetIndicator(on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealIO) Close() error {
	return nil
}
