package hal

import "time"

// SystemClock is the real Clock HAL, backed by the monotonic wall clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock starts the millisecond counter at the current time.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) NowMs() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

func (c *SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
