package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/louisbertrand/pulsemaker/internal/gpio"
	"github.com/louisbertrand/pulsemaker/internal/logic"
	"github.com/louisbertrand/pulsemaker/internal/mqtt"
	"github.com/louisbertrand/pulsemaker/internal/report"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// scriptedSource returns scripted draw values, repeating the last one when
// exhausted.
type scriptedSource struct {
	vals []uint32
	i    int
}

func (s *scriptedSource) Uint32() uint32 {
	v := s.vals[s.i]
	if s.i < len(s.vals)-1 {
		s.i++
	}
	return v
}

// repeat returns n copies of sample.
func repeat(sample bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

// faultIO wraps a FakeIO and returns errors for a range of Pressed() calls.
// No shared mutable state — the fault range is fixed at construction.
type faultIO struct {
	inner      *gpio.FakeIO
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (f *faultIO) Pressed() (bool, error) {
	i := f.call
	f.call++
	if i >= f.faultStart && i < f.faultEnd {
		return false, errors.New("gpio fault")
	}
	return f.inner.Pressed()
}

func (f *faultIO) SetPulse(active bool) error { return f.inner.SetPulse(active) }
func (f *faultIO) SetIndicator(on bool) error { return f.inner.SetIndicator(on) }
func (f *faultIO) Close() error { return f.inner.Close() }

// testConfig shortens the report window so tests stay small. Trial cadence
// and pulse width keep their production ratios.
func testConfig() logic.Config {
	cfg := logic.DefaultConfig()
	cfg.ReportWindow = 50 * time.Millisecond
	cfg.Debounce = 5 * time.Millisecond
	return cfg
}

// driveLoop runs runLoop for nTicks 1ms ticks and then delivers the signal,
// returning runLoop's error.
func driveLoop(t *testing.T, io gpio.IO, src logic.Source, cfg logic.Config, sink report.Sink, pub *mqtt.FakePublisher, nTicks int, signal os.Signal) error {
	t.Helper()
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Millisecond)
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(io, src, cfg, sink, pub, pub, nil, clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

const high = ^uint32(0)

func TestRunLoopEmitsPulseAndReport(t *testing.T) {
	// One below-threshold draw on the first trial (10ms), then misses.
	// 50 ticks at 1ms cover five trials and one 50ms report window.
	src := &scriptedSource{vals: []uint32{0, high}}
	io := gpio.NewFakeIO([]bool{false})
	pub := mqtt.NewFakePublisher()
	sink := report.NewFakeSink()

	err := driveLoop(t, io, src, testConfig(), sink, pub, 50, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// Pulse asserted at the hit, deasserted one tick later
	if len(io.PulseWrites) != 2 {
		t.Fatalf("expected 2 pulse writes, got %v", io.PulseWrites)
	}
	if !io.PulseWrites[0] || io.PulseWrites[1] {
		t.Errorf("pulse writes: expected [true false], got %v", io.PulseWrites)
	}

	// Indicator lit with the pulse, off after its hold
	if len(io.IndicatorWrites) != 2 {
		t.Fatalf("expected 2 indicator writes, got %v", io.IndicatorWrites)
	}
	if !io.IndicatorWrites[0] || io.IndicatorWrites[1] {
		t.Errorf("indicator writes: expected [true false], got %v", io.IndicatorWrites)
	}

	// One window closed, counting the single hit
	if len(sink.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.Records))
	}
	if sink.Records[0].Millis() != 50 {
		t.Errorf("record millis: got %d, want 50", sink.Records[0].Millis())
	}
	if sink.Records[0].Count != 1 {
		t.Errorf("record count: got %d, want 1", sink.Records[0].Count)
	}

	// The same record went to MQTT
	if len(pub.Events) != 1 {
		t.Fatalf("expected 1 published report, got %d", len(pub.Events))
	}
	if pub.Events[0].Record.Count != 1 {
		t.Errorf("published count: got %d, want 1", pub.Events[0].Record.Count)
	}
}

func TestRunLoopCoarsePollKeepsPulseAsserted(t *testing.T) {
	// At a 10ms poll every tick is a trial, so a tick can end the previous
	// pulse hold and start a new pulse at once. The line must stay asserted
	// through back-to-back hits; the stale deassert must not wipe the fresh
	// pulse.
	src := &scriptedSource{vals: []uint32{0, 0, 0, high}}
	io := gpio.NewFakeIO([]bool{false})
	pub := mqtt.NewFakePublisher()
	sink := report.NewFakeSink()

	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 10*time.Millisecond)
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(io, src, testConfig(), sink, pub, pub, nil, clock, tick, sig)
	}()
	for i := 0; i < 5; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM
	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// Three back-to-back hits at 10/20/30ms, then a miss: asserted on each
	// hit, deasserted once after the last hold expires.
	want := []bool{true, true, true, false}
	if len(io.PulseWrites) != len(want) {
		t.Fatalf("pulse writes: got %v, want %v", io.PulseWrites, want)
	}
	for i := range want {
		if io.PulseWrites[i] != want[i] {
			t.Fatalf("pulse writes: got %v, want %v", io.PulseWrites, want)
		}
	}

	if len(sink.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.Records))
	}
	if sink.Records[0].Count != 3 {
		t.Errorf("record count: got %d, want 3", sink.Records[0].Count)
	}
}

func TestRunLoopNoHitsMeansQuietWindow(t *testing.T) {
	src := &scriptedSource{vals: []uint32{high}}
	io := gpio.NewFakeIO([]bool{false})
	pub := mqtt.NewFakePublisher()
	sink := report.NewFakeSink()

	err := driveLoop(t, io, src, testConfig(), sink, pub, 50, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(io.PulseWrites) != 0 {
		t.Errorf("expected no pulse writes, got %v", io.PulseWrites)
	}
	if len(sink.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.Records))
	}
	if sink.Records[0].Count != 0 {
		t.Errorf("record count: got %d, want 0", sink.Records[0].Count)
	}
}

func TestRunLoopButtonTogglesRate(t *testing.T) {
	// Button released for 10 ticks, then held. The debounced press edge
	// flips the preset and publishes a RATE_CHANGE system event.
	src := &scriptedSource{vals: []uint32{high}}
	io := gpio.NewFakeIO(append(repeat(false, 10), true))
	pub := mqtt.NewFakePublisher()
	sink := report.NewFakeSink()

	err := driveLoop(t, io, src, testConfig(), sink, pub, 25, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var changes []mqtt.SystemEvent
	for _, se := range pub.SystemEvents {
		if se.Event == "RATE_CHANGE" {
			changes = append(changes, se)
		}
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 RATE_CHANGE event, got %d", len(changes))
	}
	if changes[0].Reason != "SLOW" {
		t.Errorf("RATE_CHANGE reason: got %q, want SLOW", changes[0].Reason)
	}
}

func TestRunLoopGPIOReadError(t *testing.T) {
	// 2 valid reads then 2 faults. Loop should continue past errors
	// and still publish SHUTDOWN.
	io := &faultIO{
		inner:      gpio.NewFakeIO([]bool{false}),
		faultStart: 2, // calls 2,3 return error
		faultEnd:   4,
	}
	src := &scriptedSource{vals: []uint32{high}}
	pub := mqtt.NewFakePublisher()
	sink := report.NewFakeSink()

	err := driveLoop(t, io, src, testConfig(), sink, pub, 6, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	found := false
	for _, se := range pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event after GPIO errors")
	}
}

func TestRunLoopPublishError(t *testing.T) {
	// A window closes but Publish returns an error — the loop continues
	// and the CSV stream still gets the record.
	src := &scriptedSource{vals: []uint32{high}}
	io := gpio.NewFakeIO([]bool{false})
	pub := mqtt.NewFakePublisher()
	pub.PublishError = fmt.Errorf("broker unavailable")
	sink := report.NewFakeSink()

	err := driveLoop(t, io, src, testConfig(), sink, pub, 50, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(sink.Records) != 1 {
		t.Fatalf("expected 1 record despite publish failure, got %d", len(sink.Records))
	}

	found := false
	for _, se := range pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event despite publish errors")
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	src := &scriptedSource{vals: []uint32{high}}
	io := gpio.NewFakeIO([]bool{false})
	pub := mqtt.NewFakePublisher()
	sink := report.NewFakeSink()

	err := driveLoop(t, io, src, testConfig(), sink, pub, 4, syscall.SIGINT)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	se := pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", se.Reason)
	}
	if !se.Retained {
		t.Error("expected Retained=true for SHUTDOWN")
	}
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	src := &scriptedSource{vals: []uint32{high}}
	io := gpio.NewFakeIO([]bool{false})
	pub := mqtt.NewFakePublisher()
	sink := report.NewFakeSink()

	err := driveLoop(t, io, src, testConfig(), sink, pub, 4, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	se := pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", se.Reason)
	}
	if !se.Retained {
		t.Error("expected Retained=true for SHUTDOWN")
	}
}

func TestParseSeed(t *testing.T) {
	got, err := parseSeed(DefaultSeed)
	if err != nil {
		t.Fatalf("parseSeed(DefaultSeed) returned error: %v", err)
	}
	if got != 0x43313337 {
		t.Errorf("parseSeed(DefaultSeed) = %#x, want 0x43313337", got)
	}

	if got, err := parseSeed(1 << 32); err == nil {
		t.Errorf("parseSeed(1<<32) = %d, want out-of-range error", got)
	}
}

func TestRunLoopRequiresSource(t *testing.T) {
	io := gpio.NewFakeIO([]bool{false})
	pub := mqtt.NewFakePublisher()
	sink := report.NewFakeSink()
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Millisecond)

	err := runLoop(io, nil, testConfig(), sink, pub, pub, nil, clock, nil, nil)
	if !errors.Is(err, logic.ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
}
