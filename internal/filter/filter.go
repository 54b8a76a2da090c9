// Package filter implements the three-state (cold-start/moving/stopped)
// movement classifier described in original_source/src/gps_filter.c: it
// rejects stationary noise and implausible jumps while keeping exactly the
// waypoints needed to reconstruct a track.
package filter

import (
	"trackrecorder/internal/fix"
	"trackrecorder/internal/geo"
)

// Result is the outcome of Process.
type Result int

const (
	Accept Result = iota
	RejectInvalid
	RejectStationary
	RejectOutlier
	RejectNoTimeDelta
)

func (r Result) String() string {
	switch r {
	case Accept:
		return "ACCEPT"
	case RejectInvalid:
		return "REJECT_INVALID"
	case RejectStationary:
		return "REJECT_STATIONARY"
	case RejectOutlier:
		return "REJECT_OUTLIER"
	case RejectNoTimeDelta:
		return "REJECT_NO_TIME_DELTA"
	default:
		return "UNKNOWN"
	}
}

// TrackState is the filter's position in the cold-start/moving/stopped
// walk.
type TrackState int

const (
	ColdStart TrackState = iota
	Moving
	Stopped
)

func (s TrackState) String() string {
	switch s {
	case ColdStart:
		return "COLD_START"
	case Moving:
		return "MOVING"
	case Stopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

const (
	// StationaryThresholdKmh is the speed below which a fix is treated as
	// stationary (or when speed is unknown).
	StationaryThresholdKmh = 3.0
	// MaxSpeedKmh is the implied ground speed above which a fix is
	// rejected as an outlier.
	MaxSpeedKmh = 250.0
)

// State is the filter's owned state: the current classifier state and the
// last accepted fix. Initial state is ColdStart.
type State struct {
	track       TrackState
	lastFix     fix.Fix
	hasLastFix  bool
}

// New creates a filter in ColdStart, equivalent to gps_filter_init().
func New() *State {
	return &State{track: ColdStart}
}

// Track reports the filter's current state.
func (s *State) Track() TrackState {
	return s.track
}

func isStationary(f *fix.Fix) bool {
	if !f.Flags.Has(fix.HasSpeed) {
		return true
	}
	return f.SpeedKmh < StationaryThresholdKmh
}

// epochSecondsProxy is a coarse, monotonic-within-a-day calendar-arithmetic
// stand-in for a true epoch conversion (original_source's
// fix_to_epoch_seconds): it overestimates month/year boundaries but
// produces correct small deltas, which is all the outlier gate needs.
func epochSecondsProxy(f *fix.Fix) float64 {
	var s float64
	if f.Flags.Has(fix.HasDate) {
		s += float64(f.Year) * 365.25 * 86400.0
		s += float64(f.Month) * 30.44 * 86400.0
		s += float64(f.Day) * 86400.0
	}
	s += float64(f.Hour) * 3600.0
	s += float64(f.Minute) * 60.0
	s += float64(f.Second)
	s += float64(f.Centisecond) / 100.0
	return s
}

// Process classifies one fix, updating the filter's state as a side
// effect. It never blocks or retries.
func (s *State) Process(f fix.Fix) Result {
	if !f.Flags.Has(fix.Valid) || !f.Flags.Has(fix.HasLatLon) {
		return RejectInvalid
	}

	stationary := isStationary(&f)

	switch s.track {
	case ColdStart:
		if stationary {
			return RejectStationary
		}
		s.track = Moving
		s.lastFix = f
		s.hasLastFix = true
		return Accept

	case Moving:
		if s.hasLastFix {
			dt := epochSecondsProxy(&f) - epochSecondsProxy(&s.lastFix)
			if dt <= 0.0 {
				return RejectNoTimeDelta
			}
			if dt >= 0.5 {
				dist := geo.HaversineMeters(s.lastFix.Latitude, s.lastFix.Longitude, f.Latitude, f.Longitude)
				impliedKmh := (dist / dt) * 3.6
				if impliedKmh > MaxSpeedKmh {
					return RejectOutlier
				}
			}
		}
		if stationary {
			s.track = Stopped
			s.lastFix = f
			return Accept
		}
		s.lastFix = f
		return Accept

	case Stopped:
		if !stationary {
			s.track = Moving
			s.lastFix = f
			return Accept
		}
		return RejectStationary
	}

	return RejectInvalid
}
