package report

import (
	"fmt"
	"io"

	"github.com/louisbertrand/pulsemaker/internal/logic"
)

// Writer renders the stream as plain text onto any io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter wraps an io.Writer as a Sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteDiagnostic emits one generator value on its own line.
func (wr *Writer) WriteDiagnostic(v uint32) error {
	if _, err := fmt.Fprintf(wr.w, "%d\n", v); err != nil {
		return fmt.Errorf("write diagnostic: %w", err)
	}
	return nil
}

// WriteHeader emits the CSV header line.
func (wr *Writer) WriteHeader() error {
	if _, err := fmt.Fprintf(wr.w, "%s\n", Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// WriteRecord emits one window row.
func (wr *Writer) WriteRecord(rec logic.Record) error {
	if _, err := fmt.Fprintf(wr.w, "%d,%d\n", rec.Millis(), rec.Count); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Close closes the underlying writer when it supports closing.
func (wr *Writer) Close() error {
	if c, ok := wr.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MultiSink fans each line out to several sinks, typically stdout plus
// a serial port. The first error stops the fan-out.
type MultiSink []Sink

func (m MultiSink) WriteDiagnostic(v uint32) error {
	for _, s := range m {
		if err := s.WriteDiagnostic(v); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) WriteHeader() error {
	for _, s := range m {
		if err := s.WriteHeader(); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) WriteRecord(rec logic.Record) error {
	for _, s := range m {
		if err := s.WriteRecord(rec); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and returns the first error seen.
func (m MultiSink) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
