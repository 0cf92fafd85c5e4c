package gpio

import (
	"errors"
	"testing"
)

func TestFakeIOPressed(t *testing.T) {
	f := NewFakeIO([]bool{true, false, true})

	// Read first sample
	pressed, err := f.Pressed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pressed {
		t.Errorf("sample 0: expected pressed, got released")
	}

	// Read second sample
	pressed, err = f.Pressed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pressed {
		t.Errorf("sample 1: expected released, got pressed")
	}

	// Read third sample
	pressed, err = f.Pressed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pressed {
		t.Errorf("sample 2: expected pressed, got released")
	}

	// Fourth read should repeat last sample
	pressed, err = f.Pressed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pressed {
		t.Errorf("sample 3 (repeat): expected pressed, got released")
	}
}

func TestFakeIONoSamples(t *testing.T) {
	f := NewFakeIO(nil)

	_, err := f.Pressed()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeIOReadError(t *testing.T) {
	f := NewFakeIO([]bool{true})
	f.ReadError = errors.New("simulated error")

	_, err := f.Pressed()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeIORecordsWrites(t *testing.T) {
	f := NewFakeIO([]bool{false})

	if err := f.SetPulse(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.SetPulse(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.SetIndicator(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.PulseWrites) != 2 || !f.PulseWrites[0] || f.PulseWrites[1] {
		t.Errorf("pulse writes: expected [true false], got %v", f.PulseWrites)
	}
	if len(f.IndicatorWrites) != 1 || !f.IndicatorWrites[0] {
		t.Errorf("indicator writes: expected [true], got %v", f.IndicatorWrites)
	}
}

func TestFakeIOWriteError(t *testing.T) {
	f := NewFakeIO([]bool{false})
	f.WriteError = errors.New("simulated error")

	if err := f.SetPulse(true); err == nil {
		t.Error("expected SetPulse error")
	}
	if err := f.SetIndicator(true); err == nil {
		t.Error("expected SetIndicator error")
	}
	if len(f.PulseWrites) != 0 || len(f.IndicatorWrites) != 0 {
		t.Error("failed writes should not be recorded")
	}
}

func TestFakeIOClose(t *testing.T) {
	f := NewFakeIO([]bool{true})

	if f.Closed {
		t.Error("should not be closed initially")
	}

	err := f.Close()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeIOReset(t *testing.T) {
	f := NewFakeIO([]bool{true, false})

	// Consume first sample and record a write
	f.Pressed()
	f.SetPulse(true)

	f.Reset()

	pressed, _ := f.Pressed()
	if !pressed {
		t.Errorf("after reset: expected pressed, got released")
	}
	if len(f.PulseWrites) != 0 {
		t.Errorf("after reset: expected no recorded writes, got %v", f.PulseWrites)
	}
}
