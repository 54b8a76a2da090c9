// Package storage is the crash-safe, append-only CSV log store described in
// original_source/src/data_storage.c: file selection, rotation driven by a
// dirty-marker protocol and a trailing-newline consistency check, CSV
// formatting, and periodic sync.
package storage

import (
	"fmt"
	"strings"

	"trackrecorder/internal/fix"
	"trackrecorder/internal/hal"
)

// Err is the result of a storage operation.
type Err int

const (
	OK Err = iota
	ErrMount
	ErrOpen
	ErrWrite
	ErrSync
	ErrFull
	ErrTooManyFiles
)

func (e Err) Error() string {
	switch e {
	case OK:
		return "ok"
	case ErrMount:
		return "mount failed"
	case ErrOpen:
		return "open failed"
	case ErrWrite:
		return "write failed"
	case ErrSync:
		return "sync failed"
	case ErrFull:
		return "medium full"
	case ErrTooManyFiles:
		return "too many rotated files"
	default:
		return "unknown storage error"
	}
}

const (
	SyncIntervalMs  = 5000
	MaxFileNumber   = 999
	DirtyFilename   = "_dirty"
	BaseFilename    = "track"
	CSVHeader       = "timestamp,latitude,longitude,speed_kmh,altitude_m,course_deg,satellites,hdop,fix_quality\n"
)

// Options lets the compile-time constants above be overridden, the way
// config.Config overrides the teacher's DefaultConfig().
type Options struct {
	SyncIntervalMs int
	MaxFileNumber  int
	DirtyFilename  string
	BaseFilename   string
}

// DefaultOptions mirrors the spec's compile-time constants.
func DefaultOptions() Options {
	return Options{
		SyncIntervalMs: SyncIntervalMs,
		MaxFileNumber:  MaxFileNumber,
		DirtyFilename:  DirtyFilename,
		BaseFilename:   BaseFilename,
	}
}

// State is the storage engine's owned state: the active file handle,
// active filename, last-sync wall-clock milliseconds, and an open flag.
type State struct {
	fs   hal.Filesystem
	opts Options

	file       hal.File
	filename   string
	lastSyncMs uint32
	isOpen     bool
}

// New creates a storage engine bound to the given filesystem HAL.
func New(fs hal.Filesystem, opts Options) *State {
	return &State{fs: fs, opts: opts}
}

func (s *State) makeFilename(n int) string {
	if n == 0 {
		return s.opts.BaseFilename + ".csv"
	}
	return fmt.Sprintf("%s_%d.csv", s.opts.BaseFilename, n)
}

func (s *State) findHighestFileNumber() int {
	highest := -1
	if s.fs.Exists(s.makeFilename(0)) {
		highest = 0
	}
	for i := 1; i <= s.opts.MaxFileNumber; i++ {
		if s.fs.Exists(s.makeFilename(i)) {
			highest = i
		}
	}
	return highest
}

func (s *State) fileIsEmpty(name string) bool {
	f, err := s.fs.Open(name, hal.ModeRead)
	if err != nil {
		return true
	}
	defer f.Close()
	size, err := f.Size()
	if err != nil {
		return true
	}
	return size == 0
}

func (s *State) fileEndsWithNewline(name string) bool {
	f, err := s.fs.Open(name, hal.ModeRead)
	if err != nil {
		return false
	}
	defer f.Close()
	size, err := f.Size()
	if err != nil || size <= 0 {
		return size == 0
	}
	b, err := f.ReadByteAtEnd()
	if err != nil {
		return false
	}
	return b == '\n'
}

// Init mounts the medium, selects or creates the active file, writes the
// header if needed, places the dirty marker, and records the sync clock.
func (s *State) Init(nowMs uint32) Err {
	if err := s.fs.Mount(); err != nil {
		return ErrMount
	}

	highest := s.findHighestFileNumber()
	dirty := s.fs.Exists(s.opts.DirtyFilename)
	needNewFile := false
	needHeader := false

	switch {
	case highest < 0:
		highest = 0
		needNewFile = true
		needHeader = true
	case dirty:
		needNewFile = true
		needHeader = true
		s.fs.Remove(s.opts.DirtyFilename)
	default:
		name := s.makeFilename(highest)
		if s.fileIsEmpty(name) {
			needHeader = true
		} else if !s.fileEndsWithNewline(name) {
			needNewFile = true
			needHeader = true
		}
	}

	if needNewFile {
		highest = s.findHighestFileNumber() + 1
	}
	if highest > s.opts.MaxFileNumber {
		return ErrTooManyFiles
	}

	s.filename = s.makeFilename(highest)

	f, err := s.fs.Open(s.filename, hal.ModeAppend)
	if err != nil {
		return ErrOpen
	}
	s.file = f
	s.isOpen = true

	if needHeader {
		if _, err := f.Write([]byte(CSVHeader)); err != nil {
			return ErrWrite
		}
	}

	if marker, err := s.fs.Open(s.opts.DirtyFilename, hal.ModeWrite); err == nil {
		marker.Close()
	}

	s.lastSyncMs = nowMs
	return OK
}

// WriteFix appends one CSV row and may trigger a periodic sync.
func (s *State) WriteFix(f fix.Fix, nowMs uint32) Err {
	if !s.isOpen {
		return ErrWrite
	}

	row := FormatRow(f)
	if _, err := s.file.Write([]byte(row)); err != nil {
		return ErrWrite
	}

	if nowMs-s.lastSyncMs >= uint32(s.opts.SyncIntervalMs) {
		if err := s.file.Sync(); err != nil {
			return ErrSync
		}
		s.lastSyncMs = nowMs
	}
	return OK
}

// Shutdown syncs, closes, removes the dirty marker, and unmounts.
func (s *State) Shutdown() Err {
	if !s.isOpen {
		return ErrWrite
	}
	s.file.Sync()
	s.file.Close()
	s.file = nil
	s.isOpen = false

	s.fs.Remove(s.opts.DirtyFilename)
	s.fs.Unmount()
	return OK
}

// Filename returns the active file's name.
func (s *State) Filename() string {
	return s.filename
}

// FormatRow renders one fix as the nine-field CSV row described in
// spec.md §4.4. Fields whose flag is unset are rendered empty.
func FormatRow(f fix.Fix) string {
	var b strings.Builder

	if f.Flags.Has(fix.HasDate) && f.Flags.Has(fix.HasTime) {
		fmt.Fprintf(&b, "%04d-%02d-%02dT%02d:%02d:%02dZ", f.Year, f.Month, f.Day, f.Hour, f.Minute, f.Second)
	}
	b.WriteByte(',')

	if f.Flags.Has(fix.HasLatLon) {
		fmt.Fprintf(&b, "%.6f", f.Latitude)
	}
	b.WriteByte(',')

	if f.Flags.Has(fix.HasLatLon) {
		fmt.Fprintf(&b, "%.6f", f.Longitude)
	}
	b.WriteByte(',')

	if f.Flags.Has(fix.HasSpeed) {
		fmt.Fprintf(&b, "%.2f", f.SpeedKmh)
	}
	b.WriteByte(',')

	if f.Flags.Has(fix.HasAltitude) {
		fmt.Fprintf(&b, "%.1f", f.AltitudeM)
	}
	b.WriteByte(',')

	if f.Flags.Has(fix.HasCourse) {
		fmt.Fprintf(&b, "%.1f", f.CourseDeg)
	}
	b.WriteByte(',')

	if f.Flags.Has(fix.HasLatLon) {
		fmt.Fprintf(&b, "%d", f.Satellites)
	}
	b.WriteByte(',')

	if f.Flags.Has(fix.HasHDOP) {
		fmt.Fprintf(&b, "%.2f", f.HDOP)
	}
	b.WriteByte(',')

	fmt.Fprintf(&b, "%d", f.FixQuality)
	b.WriteByte('\n')

	return b.String()
}
