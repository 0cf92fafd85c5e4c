// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/louisbertrand/pulsemaker/internal/logic"
)

// Topic is the MQTT topic for per-window pulse reports.
const Topic = "sensors/pulsemaker/reports"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "sensors/pulsemaker/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a window report to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event ReportEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ReportEvent pairs one window record with the wall-clock time it closed.
type ReportEvent struct {
	Timestamp time.Time
	Record    logic.Record
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, rate change).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "RATE_CHANGE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Pulse PulsePayload `json:"pulse"`
}

// PulsePayload contains the window report details.
type PulsePayload struct {
	Timestamp string `json:"timestamp"`
	Millis    int64  `json:"millis"`
	CPM       uint32 `json:"cpm"`
	Setting   string `json:"setting"`
}

// FormatPayload creates the JSON payload for a window report.
func FormatPayload(event ReportEvent) ([]byte, error) {
	payload := Payload{
		Pulse: PulsePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Millis:    event.Record.Millis(),
			CPM:       event.Record.Count,
			Setting:   string(event.Record.Setting),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RATE_CHANGE) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
