package gpio

import "errors"

// FakeIO is a test double that returns scripted button levels and records
// every output transition.
type FakeIO struct {
	// Samples contains scripted logical button levels (true = pressed).
	// Each call to Pressed() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// PulseWrites records every SetPulse call in order.
	PulseWrites []bool

	// IndicatorWrites records every SetIndicator call in order.
	IndicatorWrites []bool

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Pressed()
	ReadError error

	// WriteError, if set, will be returned by SetPulse and SetIndicator
	WriteError error
}

// NewFakeIO creates a FakeIO with the given button samples.
func NewFakeIO(samples []bool) *FakeIO {
	return &FakeIO{Samples: samples}
}

// Pressed returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeIO) Pressed() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// SetPulse records the pulse transition.
func (f *FakeIO) SetPulse(active bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.PulseWrites = append(f.PulseWrites, active)
	return nil
}

// SetIndicator records the LED transition.
func (f *FakeIO) SetIndicator(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.IndicatorWrites = append(f.IndicatorWrites, on)
	return nil
}

// Close marks the fake as closed.
func (f *FakeIO) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the samples and clears recorded writes.
func (f *FakeIO) Reset() {
	f.index = 0
	f.PulseWrites = nil
	f.IndicatorWrites = nil
	f.Closed = false
}
