// Package telemetry holds the single authoritative view of the car state.
// Exactly one State exists per running device; the scheduler loop owns it
// and is the only writer.
package telemetry

import (
	"time"

	"shiftlight-service/internal/types"
)

// State is the current telemetry condition: the last accepted sample, a
// smoothed RPM and a staleness clock. Not safe for concurrent use; the
// scheduler serializes all access.
type State struct {
	alpha      float64
	staleAfter time.Duration

	sample     types.TelemetrySample
	smoothed   float64
	lastUpdate time.Time
	haveSample bool
	stale      bool
}

// View is an immutable snapshot handed to the shift policy. When Live is
// false the numeric fields are the defined idle values, not leftovers of
// the last sample.
type View struct {
	Live     bool
	Rpm      float64 // smoothed
	RawRpm   float64
	RpmMax   float64
	ShiftRpm float64
	Gear     int8
	HasGear  bool
	Speed    float64
	Source   types.Protocol
}

func New(alpha float64, staleAfter time.Duration) *State {
	return &State{
		alpha:      alpha,
		staleAfter: staleAfter,
	}
}

// Ingest commits one decoded sample. Samples whose sequence is not newer
// than the held one are discarded, so reordered UDP delivery can never
// regress the visible state; discarded samples still count as feed
// activity for the staleness clock. Returns whether the sample was
// accepted.
//
// A stale state accepts any sequence: games reset their clocks between
// sessions, and the staleness window is how a reset is recognized.
func (s *State) Ingest(sample types.TelemetrySample, now time.Time) bool {
	if sample.Rpm < 0 {
		sample.Rpm = 0
	}

	if s.haveSample && !s.stale &&
		sample.Source == s.sample.Source &&
		sample.HasSequence && s.sample.HasSequence &&
		sample.Sequence <= s.sample.Sequence {
		// Rejected for ordering, but still a valid packet from the feed.
		// The staleness clock keeps running; games freeze their sequence
		// on pause screens and pre-stage countdowns while broadcasting.
		s.lastUpdate = now
		return false
	}

	if !s.haveSample || s.stale {
		s.smoothed = sample.Rpm
	} else {
		s.smoothed += s.alpha * (sample.Rpm - s.smoothed)
	}

	s.sample = sample
	s.haveSample = true
	s.stale = false
	s.lastUpdate = now
	return true
}

// Tick runs the staleness clock. Called once per scheduler iteration
// whether or not a sample arrived.
func (s *State) Tick(now time.Time) {
	if !s.haveSample {
		return
	}
	if now.Sub(s.lastUpdate) > s.staleAfter {
		s.stale = true
	}
}

// Stale reports whether the staleness window has elapsed.
func (s *State) Stale() bool {
	return s.stale
}

// View snapshots the state for the shift policy.
func (s *State) View() View {
	if !s.haveSample || s.stale {
		// Idle: RPM reads as zero and the gear is unknown, but the last
		// source selection survives for when telemetry resumes.
		return View{
			Live:   false,
			Source: s.sample.Source,
		}
	}
	return View{
		Live:     true,
		Rpm:      s.smoothed,
		RawRpm:   s.sample.Rpm,
		RpmMax:   s.sample.RpmMax,
		ShiftRpm: s.sample.ShiftRpm,
		Gear:     s.sample.Gear,
		HasGear:  s.sample.HasGear,
		Speed:    s.sample.Speed,
		Source:   s.sample.Source,
	}
}
