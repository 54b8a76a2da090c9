//go:build !linux

// Non-Linux stub for the real GPIO HAL, mirroring the teacher's
// rtlsdr_stub.go: present so the module still builds on a development
// host, returning an error rather than silently pretending to work.
package hal

import "errors"

// RPIOGPIO is unavailable outside Linux.
type RPIOGPIO struct{}

func OpenRPIOGPIO() (*RPIOGPIO, error) {
	return nil, errors.New("hal: gpio is only supported on linux")
}

func (g *RPIOGPIO) InitInput(pin int) error { return errors.New("hal: gpio unsupported on this platform") }

func (g *RPIOGPIO) Read(pin int) (bool, error) {
	return false, errors.New("hal: gpio unsupported on this platform")
}

func (g *RPIOGPIO) SetIRQ(pin int, edge EdgeMask, cb func(pin int, events EdgeMask)) error {
	return errors.New("hal: gpio unsupported on this platform")
}

func (g *RPIOGPIO) Close() error { return nil }
