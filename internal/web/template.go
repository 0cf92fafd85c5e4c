package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/louisbertrand/pulsemaker/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"settingOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"millis": func(d time.Duration) int64 {
		return d.Milliseconds()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Pulsemaker</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.fast { color: green; font-weight: bold; }
.slow { color: #888; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Pulsemaker</h1>

<h2>Rate</h2>
<table>
<tr><th>Setting</th><td class="{{if eq (settingOrUnknown (printf "%s" .Setting)) "FAST"}}fast{{else if eq (settingOrUnknown (printf "%s" .Setting)) "SLOW"}}slow{{else}}unknown{{end}}">{{settingOrUnknown (printf "%s" .Setting)}}</td></tr>
<tr><th>Target</th><td>{{.TargetCPM}} cpm</td></tr>
<tr><th>Threshold</th><td>{{.Threshold}}</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Current window</th><td>{{.WindowCount}}</td></tr>
{{if .LastReport}}<tr><th>Last report</th><td>{{millis .LastReport.Elapsed}},{{.LastReport.Count}} ({{.LastReport.Setting}})</td></tr>{{end}}
<tr><th>Total pulses</th><td>{{.Totals.Pulses}}</td></tr>
<tr><th>Total toggles</th><td>{{.Totals.Toggles}}</td></tr>
<tr><th>Windows reported</th><td>{{.Totals.Windows}}</td></tr>
</table>

{{if .Recent}}<h2>Recent Windows</h2>
<table>
<tr><th>millis</th><td>cpm</td></tr>
{{range .Recent}}<tr><th>{{millis .Elapsed}}</th><td>{{.Count}}</td></tr>
{{end}}</table>{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Report window</th><td>{{.Config.ReportWindowMs}}ms</td></tr>
<tr><th>Serial</th><td>{{if .Config.SerialDevice}}{{.Config.SerialDevice}}{{else}}disabled{{end}}</td></tr>
<tr><th>Pins</th><td>button {{.Config.PinButton}}, pulse {{.Config.PinPulse}}, led {{.Config.PinLED}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
