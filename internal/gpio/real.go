//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealIO drives actual hardware through the Linux GPIO character device.
type RealIO struct {
	chip      *gpiocdev.Chip
	button    *gpiocdev.Line
	pulse     *gpiocdev.Line
	indicator *gpiocdev.Line
}

// NewRealIO opens gpiochip0 and claims the three lines. The pulse line is
// requested already high so downstream hardware never sees a spurious
// falling edge during startup.
func NewRealIO(pinButton, pinPulse, pinLED int) (*RealIO, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	button, err := chip.RequestLine(pinButton, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pinButton, err)
	}

	pulse, err := chip.RequestLine(pinPulse, gpiocdev.AsOutput(1))
	if err != nil {
		button.Close()
		chip.Close()
		return nil, fmt.Errorf("request pulse pin %d: %w", pinPulse, err)
	}

	led, err := chip.RequestLine(pinLED, gpiocdev.AsOutput(0))
	if err != nil {
		pulse.Close()
		button.Close()
		chip.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pinLED, err)
	}

	return &RealIO{
		chip:      chip,
		button:    button,
		pulse:     pulse,
		indicator: led,
	}, nil
}

// Pressed returns the logical button level.
// Inverts raw GPIO: the line is pulled up, so raw 0 = pressed.
func (r *RealIO) Pressed() (bool, error) {
	v, err := r.button.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	return v == 0, nil
}

// SetPulse drives the pulse line: active pulls it low, idle returns it high.
func (r *RealIO) SetPulse(active bool) error {
	v := 1
	if active {
		v = 0
	}
	if err := r.pulse.SetValue(v); err != nil {
		return fmt.Errorf("write pulse pin: %w", err)
	}
	return nil
}

// SetIndicator drives the LED.
func (r *RealIO) SetIndicator(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := r.indicator.SetValue(v); err != nil {
		return fmt.Errorf("write LED pin: %w", err)
	}
	return nil
}

// Close parks the outputs in their idle states (pulse high, LED off)
// before releasing the lines, so a daemon restart never leaves a pulse
// asserted at the downstream counter.
func (r *RealIO) Close() error {
	var errs []error

	if r.pulse != nil {
		if err := r.pulse.SetValue(1); err != nil {
			errs = append(errs, fmt.Errorf("idle pulse pin: %w", err))
		}
		if err := r.pulse.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pulse pin: %w", err))
		}
	}
	if r.indicator != nil {
		if err := r.indicator.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("idle LED pin: %w", err))
		}
		if err := r.indicator.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED pin: %w", err))
		}
	}
	if r.button != nil {
		if err := r.button.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
