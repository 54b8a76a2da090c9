//go:build linux

// Real filesystem HAL over a POSIX mount point, the host-side analogue of
// original_source/src/hal/hw_config.c's SD-card-over-SPI setup: Mount
// verifies the medium is actually a FAT-formatted volume via
// golang.org/x/sys/unix.Statfs, optionally waiting for it to be inserted
// by watching for its mount point to appear with fsnotify.
package hal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"
)

// msdosSuperMagic is the f_type value Statfs reports for vfat/msdos
// filesystems on Linux.
const msdosSuperMagic = 0x4d44

// PosixFilesystem is the real Filesystem HAL rooted at a mount point that
// is expected to hold a FAT-formatted removable medium.
type PosixFilesystem struct {
	root         string
	waitForMount time.Duration
}

// NewPosixFilesystem roots the HAL at root. waitForMount is how long
// Mount will wait for root to appear before giving up; zero means don't
// wait.
func NewPosixFilesystem(root string, waitForMount time.Duration) *PosixFilesystem {
	return &PosixFilesystem{root: root, waitForMount: waitForMount}
}

func (p *PosixFilesystem) path(name string) string {
	return filepath.Join(p.root, name)
}

// Mount waits (if configured) for the mount point to appear, then
// verifies it is actually a FAT volume rather than, say, the root
// filesystem showing through an empty directory.
func (p *PosixFilesystem) Mount() error {
	if _, err := os.Stat(p.root); err != nil {
		if p.waitForMount <= 0 {
			return fmt.Errorf("hal: mount point %s not present: %w", p.root, err)
		}
		if err := p.waitForMountPoint(); err != nil {
			return err
		}
	}

	var st unix.Statfs_t
	if err := unix.Statfs(p.root, &st); err != nil {
		return fmt.Errorf("hal: statfs %s: %w", p.root, err)
	}
	if int64(st.Type) != msdosSuperMagic {
		return fmt.Errorf("hal: %s is not a FAT-formatted medium", p.root)
	}
	return nil
}

func (p *PosixFilesystem) waitForMountPoint() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("hal: create medium watcher: %w", err)
	}
	defer watcher.Close()

	parent := filepath.Dir(p.root)
	if err := watcher.Add(parent); err != nil {
		return fmt.Errorf("hal: watch %s for medium insertion: %w", parent, err)
	}

	deadline := time.After(p.waitForMount)
	for {
		select {
		case ev := <-watcher.Events:
			if ev.Op&fsnotify.Create != 0 && ev.Name == p.root {
				return nil
			}
		case err := <-watcher.Errors:
			return fmt.Errorf("hal: watching for medium insertion: %w", err)
		case <-deadline:
			return fmt.Errorf("hal: timed out waiting for medium at %s", p.root)
		}
	}
}

func (p *PosixFilesystem) Unmount() error {
	return nil
}

func (p *PosixFilesystem) Exists(name string) bool {
	_, err := os.Stat(p.path(name))
	return err == nil
}

func (p *PosixFilesystem) Remove(name string) error {
	err := os.Remove(p.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (p *PosixFilesystem) Open(name string, mode Mode) (File, error) {
	var flag int
	switch mode {
	case ModeRead:
		flag = os.O_RDONLY
	case ModeWrite:
		flag = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case ModeAppend:
		flag = os.O_RDWR | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(p.path(name), flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("hal: open %s: %w", name, err)
	}
	return &posixFile{f: f}, nil
}

type posixFile struct {
	f *os.File
}

func (pf *posixFile) Write(b []byte) (int, error) { return pf.f.Write(b) }
func (pf *posixFile) Read(b []byte) (int, error)  { return pf.f.Read(b) }
func (pf *posixFile) Sync() error                 { return pf.f.Sync() }
func (pf *posixFile) Close() error                 { return pf.f.Close() }

func (pf *posixFile) Size() (int64, error) {
	info, err := pf.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (pf *posixFile) ReadByteAtEnd() (byte, error) {
	size, err := pf.Size()
	if err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, fmt.Errorf("hal: empty file")
	}
	var b [1]byte
	if _, err := pf.f.ReadAt(b[:], size-1); err != nil {
		return 0, err
	}
	return b[0], nil
}
