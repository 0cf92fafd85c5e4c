// Package status provides a thread-safe status tracker for the pulsemaker daemon.
// It is read by HTTP handlers and snapshotted into MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/louisbertrand/pulsemaker/internal/logic"
)

// historyCap bounds the recent-window list kept for the status page.
const historyCap = 60

// Config contains daemon configuration for display.
type Config struct {
	PollMs         int64
	DebounceMs     int64
	ReportWindowMs int64
	Broker         string
	HTTPPort       string
	SerialDevice   string
	PinButton      int
	PinPulse       int
	PinLED         int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Setting       logic.Setting
	TargetCPM     uint32
	Threshold     uint32
	Baselined     bool
	WindowCount   uint32
	LastReport    *logic.Record
	Recent        []logic.Record
	Totals        logic.Totals
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the rate state, baseline status, in-progress window count,
// and running totals. Called from runLoop on every tick.
func (t *Tracker) Update(setting logic.Setting, targetCPM, threshold uint32, baselined bool, windowCount uint32, totals logic.Totals) {
	t.mu.Lock()
	t.snap.Setting = setting
	t.snap.TargetCPM = targetCPM
	t.snap.Threshold = threshold
	t.snap.Baselined = baselined
	t.snap.WindowCount = windowCount
	t.snap.Totals = totals
	t.mu.Unlock()
}

// RecordReport appends a closed window to the history and remembers it
// as the most recent report.
func (t *Tracker) RecordReport(rec logic.Record) {
	t.mu.Lock()
	r := rec
	t.snap.LastReport = &r
	t.snap.Recent = append(t.snap.Recent, rec)
	if len(t.snap.Recent) > historyCap {
		t.snap.Recent = t.snap.Recent[len(t.snap.Recent)-historyCap:]
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Recent = append([]logic.Record(nil), t.snap.Recent...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
