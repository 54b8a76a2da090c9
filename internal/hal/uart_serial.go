// Package hal: serial-port backed UART, grounded in the teacher's
// internal/gps NewNMEASerial, which opens go.bug.st/serial the same way
// (8N1, no parity) and scans lines off the port.
package hal

import (
	"bufio"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialUART implements UART over a real serial port.
type SerialUART struct {
	port    serial.Port
	scanner *bufio.Scanner
}

// OpenSerialUART opens portName at baud, 8 data bits, no parity, one stop
// bit — the NMEA-0183 standard framing.
func OpenSerialUART(portName string, baud int) (*SerialUART, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("hal: open GPS serial port %s: %w", portName, err)
	}
	return &SerialUART{
		port:    port,
		scanner: bufio.NewScanner(port),
	}, nil
}

// Init matches the HAL contract; the port is already open with the
// requested baud rate from OpenSerialUART, so this only re-applies it.
func (s *SerialUART) Init(baud int) error {
	return s.port.SetMode(&serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	})
}

// ReadLine blocks for up to timeout waiting for one line. It returns
// ("", nil) on a read timeout, matching hal_uart_read_line's -1-length
// timeout signal translated into Go's (string, error) idiom.
func (s *SerialUART) ReadLine(timeout time.Duration) (string, error) {
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return "", fmt.Errorf("hal: set serial read timeout: %w", err)
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", fmt.Errorf("hal: serial read: %w", err)
		}
		return "", nil
	}
	return s.scanner.Text(), nil
}

func (s *SerialUART) Close() error {
	return s.port.Close()
}
