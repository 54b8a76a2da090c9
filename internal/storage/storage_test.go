package storage

import (
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"
	"trackrecorder/internal/fix"
	"trackrecorder/internal/hal"
)

func sampleFix() fix.Fix {
	return fix.Fix{
		Flags:      fix.Valid | fix.HasLatLon | fix.HasSpeed | fix.HasAltitude | fix.HasCourse | fix.HasHDOP | fix.HasDate | fix.HasTime,
		Hour:       9, Minute: 27, Second: 25,
		Day: 1, Month: 6, Year: 2026,
		Latitude: 47.285233, Longitude: 8.565265,
		SpeedKmh: 12.34, AltitudeM: 499.6, CourseDeg: 84.4,
		FixQuality: 1, Satellites: 8, HDOP: 1.01,
	}
}

// TestS5ReusesHeaderOnlyFile is spec.md scenario S5.
func TestS5ReusesHeaderOnlyFile(t *testing.T) {
	mock := hal.NewMock()
	mock.PutFile("track.csv", []byte(CSVHeader))

	s := New(mock, DefaultOptions())
	if err := s.Init(0); err != OK {
		t.Fatalf("Init: %v", err)
	}
	if s.Filename() != "track.csv" {
		t.Fatalf("filename: got %q, want track.csv", s.Filename())
	}
	content, _ := mock.FileContent("track.csv")
	if string(content) != CSVHeader {
		t.Fatalf("header was rewritten: %q", content)
	}
}

// TestS6RotatesOnMissingTrailingNewline is spec.md scenario S6.
func TestS6RotatesOnMissingTrailingNewline(t *testing.T) {
	mock := hal.NewMock()
	mock.PutFile("track.csv", []byte(CSVHeader+"47.28,8.56"))

	s := New(mock, DefaultOptions())
	if err := s.Init(0); err != OK {
		t.Fatalf("Init: %v", err)
	}
	if s.Filename() != "track_1.csv" {
		t.Fatalf("filename: got %q, want track_1.csv", s.Filename())
	}
	content, ok := mock.FileContent("track_1.csv")
	if !ok || string(content) != CSVHeader {
		t.Fatalf("track_1.csv header: got %q", content)
	}
}

// TestS7RotatesAndReplacesDirtyMarkerOnCrash is spec.md scenario S7.
func TestS7RotatesAndReplacesDirtyMarkerOnCrash(t *testing.T) {
	mock := hal.NewMock()
	mock.PutFile("track.csv", []byte(CSVHeader+"2026-06-01T09:27:25Z,47.285233,8.565265,12.34,499.6,84.4,8,1.01,1\n"))
	mock.PutFile(DirtyFilename, nil)

	s := New(mock, DefaultOptions())
	if err := s.Init(0); err != OK {
		t.Fatalf("Init: %v", err)
	}
	if s.Filename() != "track_1.csv" {
		t.Fatalf("filename: got %q, want track_1.csv", s.Filename())
	}
	if !mock.Exists(DirtyFilename) {
		t.Fatalf("new dirty marker not created")
	}
	content, ok := mock.FileContent("track_1.csv")
	if !ok || string(content) != CSVHeader {
		t.Fatalf("track_1.csv header: got %q", content)
	}
}

// TestS8PeriodicSyncTriggersOnce is spec.md scenario S8.
func TestS8PeriodicSyncTriggersOnce(t *testing.T) {
	mock := hal.NewMock()
	s := New(mock, DefaultOptions())
	if err := s.Init(0); err != OK {
		t.Fatalf("Init: %v", err)
	}

	if err := s.WriteFix(sampleFix(), 0); err != OK {
		t.Fatalf("first WriteFix: %v", err)
	}
	before := s.lastSyncMs

	mock.AdvanceTimeMs(6000)
	if err := s.WriteFix(sampleFix(), mock.NowMs()); err != OK {
		t.Fatalf("second WriteFix: %v", err)
	}
	if s.lastSyncMs == before {
		t.Fatalf("lastSyncMs not updated after periodic sync")
	}
	if s.lastSyncMs != mock.NowMs() {
		t.Fatalf("lastSyncMs: got %d, want %d", s.lastSyncMs, mock.NowMs())
	}
}

func TestNewFilesystemCreatesHeaderAndDirtyMarker(t *testing.T) {
	mock := hal.NewMock()
	s := New(mock, DefaultOptions())
	if err := s.Init(0); err != OK {
		t.Fatalf("Init: %v", err)
	}
	if s.Filename() != "track.csv" {
		t.Fatalf("filename: got %q, want track.csv", s.Filename())
	}
	if !mock.Exists(DirtyFilename) {
		t.Fatalf("dirty marker not created")
	}
	content, _ := mock.FileContent("track.csv")
	if string(content) != CSVHeader {
		t.Fatalf("header: got %q", content)
	}
}

func TestShutdownRemovesDirtyMarkerAndClosesFile(t *testing.T) {
	mock := hal.NewMock()
	s := New(mock, DefaultOptions())
	s.Init(0)
	s.WriteFix(sampleFix(), 0)

	if err := s.Shutdown(); err != OK {
		t.Fatalf("Shutdown: %v", err)
	}
	if mock.Exists(DirtyFilename) {
		t.Fatalf("dirty marker still present after clean shutdown")
	}
	if err := s.WriteFix(sampleFix(), 0); err != ErrWrite {
		t.Fatalf("write after shutdown: got %v, want ErrWrite", err)
	}
}

func TestTooManyFilesIsRejected(t *testing.T) {
	mock := hal.NewMock()
	opts := DefaultOptions()
	opts.MaxFileNumber = 1
	mock.PutFile("track.csv", []byte(CSVHeader+"x\n"))
	mock.PutFile("track_1.csv", []byte(CSVHeader+"x"))

	s := New(mock, opts)
	if err := s.Init(0); err != ErrTooManyFiles {
		t.Fatalf("Init: got %v, want ErrTooManyFiles", err)
	}
}

// TestFormatRowCommaCountIsEight is property #2.
func TestFormatRowCommaCountIsEight(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := fix.Fix{
			Flags: fix.Flag(rapid.IntRange(0, 0xFF).Draw(t, "flags")),
		}
		row := FormatRow(f)
		if strings.Count(row, ",") != 8 {
			t.Fatalf("row %q has %d commas, want 8", row, strings.Count(row, ","))
		}
		if !strings.HasSuffix(row, "\n") {
			t.Fatalf("row %q does not end in newline", row)
		}
	})
}

// TestCleanShutdownLeavesTrailingNewline is property #3.
func TestCleanShutdownLeavesTrailingNewline(t *testing.T) {
	mock := hal.NewMock()
	s := New(mock, DefaultOptions())
	s.Init(0)
	for i := 0; i < 5; i++ {
		s.WriteFix(sampleFix(), uint32(i*100))
	}
	name := s.Filename()
	s.Shutdown()

	content, ok := mock.FileContent(name)
	if !ok || len(content) == 0 {
		t.Fatalf("file missing or empty after shutdown")
	}
	if content[len(content)-1] != '\n' {
		t.Fatalf("file does not end with newline: %q", content)
	}
}

// TestDirtyMarkerExistsIffOpen is property #4.
func TestDirtyMarkerExistsIffOpen(t *testing.T) {
	mock := hal.NewMock()
	s := New(mock, DefaultOptions())

	if mock.Exists(DirtyFilename) {
		t.Fatalf("dirty marker present before Init")
	}
	s.Init(0)
	if !mock.Exists(DirtyFilename) {
		t.Fatalf("dirty marker absent after Init")
	}
	s.Shutdown()
	if mock.Exists(DirtyFilename) {
		t.Fatalf("dirty marker present after Shutdown")
	}
}

// TestCoordinateRoundTripPrecision is property #8: formatting a coordinate
// to six decimals and parsing it back preserves the value to 1e-6 degrees.
func TestCoordinateRoundTripPrecision(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lat := rapid.Float64Range(-90, 90).Draw(t, "lat")
		f := fix.Fix{Flags: fix.HasLatLon, Latitude: lat, Longitude: 0}
		row := FormatRow(f)
		fields := strings.Split(row, ",")
		got, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			t.Fatalf("parse formatted latitude %q: %v", fields[1], err)
		}
		if diff := got - lat; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("round trip %v -> %q -> %v, diff %v exceeds 1e-6", lat, fields[1], got, diff)
		}
	})
}
