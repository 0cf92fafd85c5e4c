package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Setting       string       `json:"setting"`
	TargetCPM     uint32       `json:"target_cpm"`
	Threshold     uint32       `json:"threshold"`
	Ready         bool         `json:"ready"`
	WindowCount   uint32       `json:"window_count"`
	LastReport    *ReportJSON  `json:"last_report,omitempty"`
	Totals        TotalsJSON   `json:"totals"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ReportJSON is the JSON representation of one closed window.
type ReportJSON struct {
	Millis  int64  `json:"millis"`
	CPM     uint32 `json:"cpm"`
	Setting string `json:"setting"`
}

// TotalsJSON is the JSON representation of running totals.
type TotalsJSON struct {
	Pulses  uint64 `json:"pulses"`
	Toggles uint64 `json:"toggles"`
	Windows uint64 `json:"windows"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs         int64  `json:"poll_ms"`
	DebounceMs     int64  `json:"debounce_ms"`
	ReportWindowMs int64  `json:"report_window_ms"`
	Broker         string `json:"broker"`
	HTTPPort       string `json:"http_port"`
	SerialDevice   string `json:"serial_device,omitempty"`
	PinButton      int    `json:"pin_button"`
	PinPulse       int    `json:"pin_pulse"`
	PinLED         int    `json:"pin_led"`
}

func buildInner(snap Snapshot) StatusInner {
	setting := string(snap.Setting)
	if setting == "" {
		setting = "UNKNOWN"
	}

	inner := StatusInner{
		Setting:       setting,
		TargetCPM:     snap.TargetCPM,
		Threshold:     snap.Threshold,
		Ready:         snap.Baselined,
		WindowCount:   snap.WindowCount,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Totals: TotalsJSON{
			Pulses:  snap.Totals.Pulses,
			Toggles: snap.Totals.Toggles,
			Windows: snap.Totals.Windows,
		},
		Config: ConfigJSON{
			PollMs:         snap.Config.PollMs,
			DebounceMs:     snap.Config.DebounceMs,
			ReportWindowMs: snap.Config.ReportWindowMs,
			Broker:         snap.Config.Broker,
			HTTPPort:       snap.Config.HTTPPort,
			SerialDevice:   snap.Config.SerialDevice,
			PinButton:      snap.Config.PinButton,
			PinPulse:       snap.Config.PinPulse,
			PinLED:         snap.Config.PinLED,
		},
	}

	if snap.LastReport != nil {
		inner.LastReport = &ReportJSON{
			Millis:  snap.LastReport.Millis(),
			CPM:     snap.LastReport.Count,
			Setting: string(snap.LastReport.Setting),
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
