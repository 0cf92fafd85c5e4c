// Package report renders the line-oriented diagnostic and CSV output
// stream: a short generator fingerprint at startup, a header, then one
// row per reporting window.
package report

import "github.com/louisbertrand/pulsemaker/internal/logic"

// DiagnosticDraws is how many generator values are printed at startup
// so a captured log can be checked against the reference sequence.
const DiagnosticDraws = 5

// Header is the column header emitted once, after the diagnostics.
const Header = "millis,cpm"

// Sink receives the output stream. Implementations write to stdout, a
// serial port, or a test buffer.
type Sink interface {
	// WriteDiagnostic emits one raw generator value on its own line.
	WriteDiagnostic(v uint32) error

	// WriteHeader emits the CSV header line.
	WriteHeader() error

	// WriteRecord emits one window report as "<elapsed_ms>,<count>".
	WriteRecord(rec logic.Record) error

	Close() error
}

// WriteStartup drains DiagnosticDraws values from the source into the
// sink and follows them with the header. It must run before the engine
// starts drawing, so the fingerprint is the true head of the sequence.
func WriteStartup(s Sink, src logic.Source) error {
	for i := 0; i < DiagnosticDraws; i++ {
		if err := s.WriteDiagnostic(src.Uint32()); err != nil {
			return err
		}
	}
	return s.WriteHeader()
}
