package telemetry

import (
	"testing"
	"time"

	"shiftlight-service/internal/types"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleAt(seq uint64, rpm float64) types.TelemetrySample {
	return types.TelemetrySample{
		Rpm:         rpm,
		RpmMax:      7000,
		Sequence:    seq,
		HasSequence: true,
		Source:      types.ProtocolDirtRally,
	}
}

func TestIngestFirstSample(t *testing.T) {
	s := New(0.5, 2*time.Second)

	if !s.Ingest(sampleAt(1, 4000), t0) {
		t.Fatal("First sample should be accepted")
	}
	v := s.View()
	if !v.Live {
		t.Fatal("Expected live view after ingest")
	}
	if v.Rpm != 4000 {
		t.Errorf("First sample should seed the smoother directly, got %v", v.Rpm)
	}
}

func TestIngestSmoothing(t *testing.T) {
	s := New(0.5, 2*time.Second)
	s.Ingest(sampleAt(1, 4000), t0)
	s.Ingest(sampleAt(2, 6000), t0.Add(16*time.Millisecond))

	v := s.View()
	if v.Rpm != 5000 {
		t.Errorf("Expected EMA 5000 with alpha 0.5, got %v", v.Rpm)
	}
	if v.RawRpm != 6000 {
		t.Errorf("Expected raw rpm 6000, got %v", v.RawRpm)
	}
}

func TestIngestRejectsRegression(t *testing.T) {
	s := New(1.0, 2*time.Second)
	s.Ingest(sampleAt(5, 4000), t0)

	if s.Ingest(sampleAt(3, 9000), t0.Add(time.Millisecond)) {
		t.Error("Older sequence should be rejected")
	}
	if v := s.View(); v.Rpm != 4000 {
		t.Errorf("Stored RPM should still reflect sequence 5, got %v", v.Rpm)
	}
}

func TestIngestRejectsEqualSequence(t *testing.T) {
	s := New(1.0, 2*time.Second)
	s.Ingest(sampleAt(5, 4000), t0)

	if s.Ingest(sampleAt(5, 5000), t0.Add(time.Millisecond)) {
		t.Error("Equal sequence should be a no-op")
	}
}

func TestIngestIncreasingSequencesAlwaysUpdate(t *testing.T) {
	s := New(1.0, 2*time.Second)
	for seq := uint64(1); seq <= 10; seq++ {
		if !s.Ingest(sampleAt(seq, float64(seq)*100), t0.Add(time.Duration(seq)*time.Millisecond)) {
			t.Fatalf("Sample %d should be accepted", seq)
		}
		if v := s.View(); v.Rpm != float64(seq)*100 {
			t.Fatalf("Stored RPM should track sample %d, got %v", seq, v.Rpm)
		}
	}
}

func TestIngestAcrossSources(t *testing.T) {
	s := New(1.0, 2*time.Second)
	s.Ingest(sampleAt(100, 4000), t0)

	other := types.TelemetrySample{
		Rpm:         5000,
		Sequence:    1, // different game, unrelated clock
		HasSequence: true,
		Source:      types.ProtocolForza,
	}
	if !s.Ingest(other, t0.Add(time.Millisecond)) {
		t.Error("Samples from a different source should not be ordered against the old clock")
	}
}

func TestIngestWithoutSequence(t *testing.T) {
	s := New(1.0, 2*time.Second)
	a := types.TelemetrySample{Rpm: 3000, Source: types.ProtocolGenericJSON}
	b := types.TelemetrySample{Rpm: 3300, Source: types.ProtocolGenericJSON}

	if !s.Ingest(a, t0) || !s.Ingest(b, t0.Add(time.Millisecond)) {
		t.Error("Sequence-less samples cannot be ordered and must always be accepted")
	}
	if v := s.View(); v.Rpm != 3300 {
		t.Errorf("Expected latest rpm 3300, got %v", v.Rpm)
	}
}

func TestIngestClampsNegativeRpm(t *testing.T) {
	s := New(1.0, 2*time.Second)
	s.Ingest(types.TelemetrySample{Rpm: -500, Source: types.ProtocolGenericJSON}, t0)

	if v := s.View(); v.Rpm != 0 {
		t.Errorf("Negative RPM should clamp to 0, got %v", v.Rpm)
	}
}

func TestFrozenSequenceFeedStaysLive(t *testing.T) {
	s := New(0.5, 2*time.Second)
	s.Ingest(sampleAt(0, 1200), t0)

	// A paused game keeps broadcasting at 60 Hz with the sequence stuck.
	// Five seconds of that must never read as a dead feed.
	now := t0
	for i := 0; i < 300; i++ {
		now = now.Add(16 * time.Millisecond)
		if s.Ingest(sampleAt(0, 1200), now) {
			t.Fatalf("Frozen sequence must not be committed (iteration %d)", i)
		}
		s.Tick(now)
		if !s.View().Live {
			t.Fatalf("Went idle at iteration %d while packets were arriving", i)
		}
	}

	// Once the packets actually stop, staleness applies as usual.
	s.Tick(now.Add(2100 * time.Millisecond))
	if s.View().Live {
		t.Error("Expected idle after the feed really stopped")
	}
}

func TestStalenessTransition(t *testing.T) {
	s := New(0.5, 2*time.Second)
	s.Ingest(sampleAt(1, 6000), t0)

	s.Tick(t0.Add(1900 * time.Millisecond))
	if s.Stale() {
		t.Fatal("Should not be stale inside the window")
	}

	s.Tick(t0.Add(2100 * time.Millisecond))
	if !s.Stale() {
		t.Fatal("Should be stale after the window")
	}

	v := s.View()
	if v.Live {
		t.Error("Stale view must not present as live")
	}
	if v.Rpm != 0 || v.HasGear {
		t.Errorf("Stale view should report zero RPM and unknown gear, got %+v", v)
	}
	if v.Source != types.ProtocolDirtRally {
		t.Error("Profile selection should survive staleness")
	}
}

func TestStaleStateRevives(t *testing.T) {
	s := New(0.5, 2*time.Second)
	s.Ingest(sampleAt(500, 6000), t0)
	s.Tick(t0.Add(3 * time.Second))
	if !s.Stale() {
		t.Fatal("Precondition: stale")
	}

	// New session: the game clock restarted below the old sequence.
	if !s.Ingest(sampleAt(2, 3000), t0.Add(4*time.Second)) {
		t.Fatal("A stale state should accept a reset sequence")
	}
	v := s.View()
	if !v.Live {
		t.Fatal("Expected live after revival")
	}
	if v.Rpm != 3000 {
		t.Errorf("Smoother should reseed on revival, got %v", v.Rpm)
	}
}

func TestTickWithoutSamples(t *testing.T) {
	s := New(0.5, 2*time.Second)
	s.Tick(t0.Add(time.Hour)) // must not panic or go live

	if v := s.View(); v.Live {
		t.Error("View should be idle before any sample arrives")
	}
}
