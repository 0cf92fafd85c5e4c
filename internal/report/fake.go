package report

import "github.com/louisbertrand/pulsemaker/internal/logic"

// FakeSink records everything written to it, for tests.
type FakeSink struct {
	Diagnostics []uint32
	HeaderCount int
	Records     []logic.Record
	Closed      bool

	// WriteError, if set, is returned by every write method.
	WriteError error
}

// NewFakeSink creates an empty FakeSink.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

func (f *FakeSink) WriteDiagnostic(v uint32) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Diagnostics = append(f.Diagnostics, v)
	return nil
}

func (f *FakeSink) WriteHeader() error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.HeaderCount++
	return nil
}

func (f *FakeSink) WriteRecord(rec logic.Record) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Records = append(f.Records, rec)
	return nil
}

func (f *FakeSink) Close() error {
	f.Closed = true
	return nil
}
