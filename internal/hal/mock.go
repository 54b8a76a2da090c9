package hal

import (
	"errors"
	"time"
)

// Mock is an in-memory HAL used by tests, the Go port of
// original_source/src/hal/hal_mock.c: a fake UART line queue, fake GPIO
// pins with a single registered callback each, a fake filesystem rooted in
// memory, and a settable clock.
type Mock struct {
	uartLines []string
	uartPos   int

	gpioInit  map[int]bool
	gpioValue map[int]bool
	gpioEdge  map[int]EdgeMask
	gpioCB    map[int]func(pin int, events EdgeMask)

	timeMs uint32

	mounted bool
	files   map[string]*mockFileData
}

type mockFileData struct {
	data []byte
}

// NewMock creates a reset mock HAL.
func NewMock() *Mock {
	return &Mock{
		gpioInit:  make(map[int]bool),
		gpioValue: make(map[int]bool),
		gpioEdge:  make(map[int]EdgeMask),
		gpioCB:    make(map[int]func(int, EdgeMask)),
		files:     make(map[string]*mockFileData),
	}
}

// --- control API, mirrors hal_mock_* ---

// SetUARTLines queues lines to be returned one at a time by ReadLine.
func (m *Mock) SetUARTLines(lines []string) {
	m.uartLines = lines
	m.uartPos = 0
}

// SetGPIO sets the current level of a monitored pin.
func (m *Mock) SetGPIO(pin int, value bool) {
	m.gpioValue[pin] = value
}

// TriggerGPIOIRQ invokes the registered callback for pin as if an edge
// matching events occurred.
func (m *Mock) TriggerGPIOIRQ(pin int, events EdgeMask) {
	if cb, ok := m.gpioCB[pin]; ok {
		cb(pin, events)
	}
}

// GPIOInitialized reports whether InitInput was called for pin.
func (m *Mock) GPIOInitialized(pin int) bool {
	return m.gpioInit[pin]
}

// GPIOEdgeMask returns the edge mask registered for pin via SetIRQ.
func (m *Mock) GPIOEdgeMask(pin int) EdgeMask {
	return m.gpioEdge[pin]
}

// SetTimeMs sets the mock clock.
func (m *Mock) SetTimeMs(ms uint32) {
	m.timeMs = ms
}

// AdvanceTimeMs advances the mock clock.
func (m *Mock) AdvanceTimeMs(ms uint32) {
	m.timeMs += ms
}

// PutFile seeds an in-memory file with content, as if it pre-existed on
// the medium before Init.
func (m *Mock) PutFile(path string, content []byte) {
	m.files[path] = &mockFileData{data: append([]byte(nil), content...)}
}

// FileContent returns the current content of path, for assertions.
func (m *Mock) FileContent(path string) ([]byte, bool) {
	f, ok := m.files[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), f.data...), true
}

// --- Clock ---

func (m *Mock) NowMs() uint32 { return m.timeMs }
func (m *Mock) Sleep(d time.Duration) {
	m.timeMs += uint32(d.Milliseconds())
}

// --- UART ---

func (m *Mock) Init(baud int) error { return nil }

func (m *Mock) ReadLine(timeout time.Duration) (string, error) {
	if m.uartPos >= len(m.uartLines) {
		return "", nil
	}
	line := m.uartLines[m.uartPos]
	m.uartPos++
	return line, nil
}

func (m *Mock) Close() error { return nil }

// --- GPIO ---

func (m *Mock) InitInput(pin int) error {
	m.gpioInit[pin] = true
	return nil
}

func (m *Mock) Read(pin int) (bool, error) {
	return m.gpioValue[pin], nil
}

func (m *Mock) SetIRQ(pin int, edge EdgeMask, cb func(pin int, events EdgeMask)) error {
	m.gpioEdge[pin] = edge
	m.gpioCB[pin] = cb
	return nil
}

// --- Filesystem ---

func (m *Mock) Mount() error {
	m.mounted = true
	return nil
}

func (m *Mock) Unmount() error {
	m.mounted = false
	return nil
}

func (m *Mock) Exists(path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *Mock) Remove(path string) error {
	delete(m.files, path)
	return nil
}

func (m *Mock) Open(path string, mode Mode) (File, error) {
	if !m.mounted {
		return nil, errors.New("hal: mock filesystem not mounted")
	}
	f, ok := m.files[path]
	switch mode {
	case ModeRead:
		if !ok {
			return nil, errors.New("hal: mock file not found")
		}
	case ModeWrite:
		f = &mockFileData{}
		m.files[path] = f
	case ModeAppend:
		if !ok {
			f = &mockFileData{}
			m.files[path] = f
		}
	}
	return &mockFile{data: f, mode: mode}, nil
}

type mockFile struct {
	data *mockFileData
	mode Mode
}

func (f *mockFile) Write(p []byte) (int, error) {
	if f.mode == ModeRead {
		return 0, errors.New("hal: mock file not writable")
	}
	f.data.data = append(f.data.data, p...)
	return len(p), nil
}

func (f *mockFile) Read(p []byte) (int, error) {
	n := copy(p, f.data.data)
	return n, nil
}

func (f *mockFile) Sync() error { return nil }
func (f *mockFile) Close() error { return nil }

func (f *mockFile) Size() (int64, error) {
	return int64(len(f.data.data)), nil
}

func (f *mockFile) ReadByteAtEnd() (byte, error) {
	if len(f.data.data) == 0 {
		return 0, errors.New("hal: empty file")
	}
	return f.data.data[len(f.data.data)-1], nil
}
