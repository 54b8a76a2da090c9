package filter

import (
	"testing"

	"pgregory.net/rapid"
	"trackrecorder/internal/fix"
)

const metersPerDegreeLat = 111194.9

func baseFix(second uint8, speedKmh float64, latOffsetMeters float64) fix.Fix {
	return fix.Fix{
		Flags:     fix.Valid | fix.HasLatLon | fix.HasSpeed | fix.HasDate | fix.HasTime,
		Hour:      10,
		Minute:    0,
		Second:    second,
		Day:       1,
		Month:     1,
		Year:      2026,
		Latitude:  47.0 + latOffsetMeters/metersPerDegreeLat,
		Longitude: 8.0,
		SpeedKmh:  speedKmh,
	}
}

// TestS3MovingStoppedSequence is spec.md scenario S3.
func TestS3MovingStoppedSequence(t *testing.T) {
	f := New()

	got := f.Process(baseFix(0, 1, 0))
	if got != RejectStationary {
		t.Fatalf("fix0: got %v, want RejectStationary", got)
	}

	got = f.Process(baseFix(1, 1, 0))
	if got != RejectStationary {
		t.Fatalf("fix1: got %v, want RejectStationary", got)
	}

	got = f.Process(baseFix(2, 20, 2))
	if got != Accept || f.Track() != Moving {
		t.Fatalf("fix2: got %v/%v, want Accept/Moving", got, f.Track())
	}

	got = f.Process(baseFix(3, 40, 22))
	if got != Accept || f.Track() != Moving {
		t.Fatalf("fix3: got %v/%v, want Accept/Moving", got, f.Track())
	}

	got = f.Process(baseFix(4, 1, 43))
	if got != Accept || f.Track() != Stopped {
		t.Fatalf("fix4: got %v/%v, want Accept/Stopped", got, f.Track())
	}
}

// TestS4OutlierRejected is spec.md scenario S4.
func TestS4OutlierRejected(t *testing.T) {
	f := New()

	first := fix.Fix{
		Flags: fix.Valid | fix.HasLatLon | fix.HasSpeed | fix.HasDate | fix.HasTime,
		Hour: 10, Second: 0, Day: 1, Month: 1, Year: 2026,
		Latitude: 0, Longitude: 0, SpeedKmh: 20,
	}
	if got := f.Process(first); got != Accept {
		t.Fatalf("first fix: got %v, want Accept", got)
	}

	second := first
	second.Second = 1
	second.Latitude = 1.0
	if got := f.Process(second); got != RejectOutlier {
		t.Fatalf("second fix 1 degree away in 1s: got %v, want RejectOutlier", got)
	}
}

func TestInvalidFixRejected(t *testing.T) {
	f := New()
	if got := f.Process(fix.Fix{}); got != RejectInvalid {
		t.Fatalf("empty fix: got %v, want RejectInvalid", got)
	}
	validNoLatLon := fix.Fix{Flags: fix.Valid}
	if got := f.Process(validNoLatLon); got != RejectInvalid {
		t.Fatalf("valid without latlon: got %v, want RejectInvalid", got)
	}
}

func TestNoTimeDeltaRejected(t *testing.T) {
	f := New()
	first := baseFix(10, 20, 0)
	f.Process(first)

	same := baseFix(10, 20, 50)
	if got := f.Process(same); got != RejectNoTimeDelta {
		t.Fatalf("same timestamp: got %v, want RejectNoTimeDelta", got)
	}

	earlier := baseFix(5, 20, 0)
	if got := f.Process(earlier); got != RejectNoTimeDelta {
		t.Fatalf("earlier timestamp: got %v, want RejectNoTimeDelta", got)
	}
}

// TestStateWalkIsValid is spec.md property #6: the filter state sequence is
// a valid walk of COLD_START -> MOVING <-> STOPPED, and COLD_START is never
// re-entered once left.
func TestStateWalkIsValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := New()
		hasLeftColdStart := false

		n := rapid.IntRange(1, 30).Draw(t, "n")
		for i := 0; i < n; i++ {
			second := uint8(i % 60)
			speed := rapid.Float64Range(0, 300).Draw(t, "speed")
			latOffset := rapid.Float64Range(-50, 50).Draw(t, "latOffset")
			valid := rapid.Bool().Draw(t, "valid")

			in := baseFix(second, speed, latOffset)
			if !valid {
				in.Flags &^= fix.Valid
			}

			before := f.Track()
			f.Process(in)
			after := f.Track()

			if before == ColdStart && after != ColdStart && after != Moving {
				t.Fatalf("illegal transition from ColdStart to %v", after)
			}
			if hasLeftColdStart && after == ColdStart {
				t.Fatalf("re-entered ColdStart after leaving it (before=%v)", before)
			}
			if before != ColdStart {
				hasLeftColdStart = true
			}
		}
	})
}
