package report

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the downstream logger's UART configuration.
const DefaultBaudRate = 38400

// SerialSink writes the stream to a UART device, 8N1 at the configured
// baud rate.
type SerialSink struct {
	*Writer
	port serial.Port
}

// OpenSerial opens the named device and returns a sink over it.
func OpenSerial(device string, baudRate int) (*SerialSink, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}

	return &SerialSink{
		Writer: NewWriter(port),
		port:   port,
	}, nil
}

// Ports lists the serial devices available on this host.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

// Close closes the port.
func (s *SerialSink) Close() error {
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}
