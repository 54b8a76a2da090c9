// Package power tracks imminent power loss via a GPIO edge callback, the
// Go port of original_source/src/power_mgmt.c: a falling edge on the VBUS
// monitor pin sets a flag the event loop polls once per iteration.
package power

import (
	"sync/atomic"

	"trackrecorder/internal/hal"
)

// VBUSPin is the GPIO line monitoring the external power rail, matching
// POWER_MGMT_VBUS_GPIO.
const VBUSPin = 24

// ShutdownGraceMs carries the value of POWER_SHUTDOWN_TIMEOUT_MS. Neither
// this package nor the event loop reads it; no grace period is enforced
// after a power-loss signal.
const ShutdownGraceMs = 500

// Monitor owns the power-loss flag set by the GPIO callback.
type Monitor struct {
	gpio hal.GPIO
	lost atomic.Bool
}

// New creates a monitor bound to a GPIO HAL; call Init to arm it.
func New(gpio hal.GPIO) *Monitor {
	return &Monitor{gpio: gpio}
}

// Init configures the VBUS pin as an input and arms the falling-edge
// callback that sets the shutdown-requested flag.
func (m *Monitor) Init() error {
	m.lost.Store(false)
	if err := m.gpio.InitInput(VBUSPin); err != nil {
		return err
	}
	return m.gpio.SetIRQ(VBUSPin, hal.EdgeFall, func(pin int, events hal.EdgeMask) {
		m.lost.Store(true)
	})
}

// IsShutdownRequested reports whether a power-loss edge has been seen.
func (m *Monitor) IsShutdownRequested() bool {
	return m.lost.Load()
}

// IsVBUSPresent reads the current VBUS line level directly, independent
// of whether an edge has already latched the shutdown flag.
func (m *Monitor) IsVBUSPresent() (bool, error) {
	return m.gpio.Read(VBUSPin)
}
