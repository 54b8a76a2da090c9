//go:build !linux

// Non-Linux stub for the POSIX filesystem HAL, mirroring gpio_stub.go:
// golang.org/x/sys/unix.Statfs's Statfs_t.Type field is Linux-specific, so
// the real implementation is built only under linux.
package hal

import (
	"errors"
	"time"
)

// PosixFilesystem is unavailable outside Linux.
type PosixFilesystem struct{}

func NewPosixFilesystem(root string, waitForMount time.Duration) *PosixFilesystem {
	return &PosixFilesystem{}
}

func (p *PosixFilesystem) Mount() error {
	return errors.New("hal: posix filesystem is only supported on linux")
}

func (p *PosixFilesystem) Unmount() error { return nil }

func (p *PosixFilesystem) Exists(name string) bool { return false }

func (p *PosixFilesystem) Remove(name string) error {
	return errors.New("hal: posix filesystem unsupported on this platform")
}

func (p *PosixFilesystem) Open(name string, mode Mode) (File, error) {
	return nil, errors.New("hal: posix filesystem unsupported on this platform")
}
