//go:build linux

// Real GPIO backed by github.com/stianeikeland/go-rpio/v4, mirroring the
// build-tag split the teacher uses between its rtlsdr.go and
// rtlsdr_stub.go, and grounded on EdgeFlow's internal/hal/rpi.go, which
// opens the same library for its own GPIO lines.
package hal

import (
	"fmt"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPIOGPIO is the real GPIO HAL on Linux single-board computers.
type RPIOGPIO struct {
	mu      sync.Mutex
	pins    map[int]rpio.Pin
	stopCh  map[int]chan struct{}
	opened  bool
}

// OpenRPIOGPIO memory-maps /dev/gpiomem via go-rpio.
func OpenRPIOGPIO() (*RPIOGPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("hal: open gpio: %w", err)
	}
	return &RPIOGPIO{
		pins:   make(map[int]rpio.Pin),
		stopCh: make(map[int]chan struct{}),
		opened: true,
	}, nil
}

func (g *RPIOGPIO) InitInput(pin int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := rpio.Pin(pin)
	p.Input()
	p.PullUp()
	g.pins[pin] = p
	return nil
}

func (g *RPIOGPIO) Read(pin int) (bool, error) {
	g.mu.Lock()
	p, ok := g.pins[pin]
	g.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("hal: gpio pin %d not initialized", pin)
	}
	return p.Read() == rpio.High, nil
}

// SetIRQ polls the pin's edge-detect state at a fixed interval in a
// background goroutine, the idiomatic Go stand-in for a hardware falling
// edge interrupt: go-rpio exposes Detect/EdgeDetected polling rather than
// a blocking callback.
func (g *RPIOGPIO) SetIRQ(pin int, edge EdgeMask, cb func(pin int, events EdgeMask)) error {
	g.mu.Lock()
	p, ok := g.pins[pin]
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("hal: gpio pin %d not initialized", pin)
	}
	if edge&EdgeFall != 0 {
		p.Detect(rpio.FallEdge)
	}
	stop := make(chan struct{})
	g.stopCh[pin] = stop
	g.mu.Unlock()

	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if p.EdgeDetected() {
					cb(pin, EdgeFall)
				}
			}
		}
	}()
	return nil
}

func (g *RPIOGPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, stop := range g.stopCh {
		close(stop)
	}
	if !g.opened {
		return nil
	}
	g.opened = false
	return rpio.Close()
}
