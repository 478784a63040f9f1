package render

import (
	"testing"

	"shiftlight-service/internal/config"
	"shiftlight-service/internal/logger"
	"shiftlight-service/internal/types"
)

type mockRing struct {
	pixels  []types.Color
	shows   int
	showErr error
}

func newMockRing(n int) *mockRing {
	return &mockRing{pixels: make([]types.Color, n)}
}

func (m *mockRing) Len() int                 { return len(m.pixels) }
func (m *mockRing) Set(i int, c types.Color) { m.pixels[i] = c }
func (m *mockRing) Show() error              { m.shows++; return m.showErr }

func (m *mockRing) litCount() int {
	n := 0
	for _, p := range m.pixels {
		if p != (types.Color{}) {
			n++
		}
	}
	return n
}

type mockDisplay struct {
	w, h    int
	pixels  map[[2]int]bool
	clears  int
	shows   int
	showErr error
}

func newMockDisplay() *mockDisplay {
	return &mockDisplay{w: 128, h: 64, pixels: make(map[[2]int]bool)}
}

func (m *mockDisplay) Size() (int, int) { return m.w, m.h }
func (m *mockDisplay) Clear()           { m.clears++; m.pixels = make(map[[2]int]bool) }
func (m *mockDisplay) Show() error      { m.shows++; return m.showErr }
func (m *mockDisplay) SetPixel(x, y int, on bool) {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return
	}
	if on {
		m.pixels[[2]int{x, y}] = true
	} else {
		delete(m.pixels, [2]int{x, y})
	}
}

func newTestRenderer(ring *mockRing, disp Display) *Renderer {
	cfg := config.Default()
	cfg.Ring.LedCount = ring.Len()
	cfg.Ring.Brightness = 1.0 // keep colors exact in assertions
	return New(ring, disp, cfg, logger.NewLogger(nil, logger.LogLevelNone))
}

func TestRenderFillMapsToLitPixels(t *testing.T) {
	ring := newMockRing(24)
	r := newTestRenderer(ring, nil)

	r.Render(types.DisplayIntent{FillRatio: 0.5, Color: types.Color{G: 255}}, 0)
	if got := ring.litCount(); got != 12 {
		t.Errorf("Expected 12 lit pixels at fill 0.5, got %d", got)
	}
	if ring.pixels[0] != (types.Color{G: 255}) {
		t.Errorf("Lit pixels should carry the intent color, got %+v", ring.pixels[0])
	}
	if ring.pixels[23] != (types.Color{}) {
		t.Error("Unlit pixels should be off")
	}
}

func TestRenderLitLengthMonotonic(t *testing.T) {
	ring := newMockRing(24)
	r := newTestRenderer(ring, nil)

	prev := -1
	for fill := 0.0; fill <= 1.0; fill += 0.01 {
		r.Render(types.DisplayIntent{FillRatio: fill, Color: types.Color{R: 255}}, 0)
		lit := ring.litCount()
		if lit < prev {
			t.Fatalf("Lit length decreased from %d to %d at fill %v", prev, lit, fill)
		}
		prev = lit
	}
	if prev != 24 {
		t.Errorf("Full fill should light the whole ring, got %d", prev)
	}
}

func TestRenderFlashingAlternatesOnTickClock(t *testing.T) {
	ring := newMockRing(24)
	r := newTestRenderer(ring, nil)
	intent := types.DisplayIntent{FillRatio: 1, Color: types.Color{R: 255}, Flashing: true}

	// Default config: 60 Hz tick, 10 Hz flash, so the half period is 3 ticks.
	r.Render(intent, 0)
	if ring.litCount() != 24 {
		t.Errorf("Tick 0 should be the on phase, got %d lit", ring.litCount())
	}
	r.Render(intent, 3)
	if ring.litCount() != 0 {
		t.Errorf("Tick 3 should be the off phase, got %d lit", ring.litCount())
	}
	r.Render(intent, 6)
	if ring.litCount() != 24 {
		t.Errorf("Tick 6 should be the on phase again, got %d lit", ring.litCount())
	}
}

func TestRenderIdleAllOffWithoutAnimations(t *testing.T) {
	ring := newMockRing(24)
	cfg := config.Default()
	cfg.Ring.LedCount = 24
	cfg.Ring.IdleAnimations = false
	r := New(ring, nil, cfg, logger.NewLogger(nil, logger.LogLevelNone))

	for tick := uint64(0); tick < 10; tick++ {
		r.Render(types.DisplayIntent{Idle: true}, tick)
		if ring.litCount() != 0 {
			t.Fatalf("Idle without animations must be dark, got %d lit at tick %d", ring.litCount(), tick)
		}
	}
}

func TestRenderIdleBreathes(t *testing.T) {
	ring := newMockRing(24)
	r := newTestRenderer(ring, nil)
	intent := types.DisplayIntent{Idle: true}

	r.Render(intent, 0)
	dark := ring.pixels[0]
	r.Render(intent, 60) // half way through the breath cycle
	bright := ring.pixels[0]
	if !(bright.G > dark.G) {
		t.Errorf("Breathing should peak mid-cycle: start %+v, peak %+v", dark, bright)
	}
}

func TestRenderSurvivesSinkErrors(t *testing.T) {
	ring := newMockRing(24)
	ring.showErr = errFailed
	disp := newMockDisplay()
	disp.showErr = errFailed
	r := newTestRenderer(ring, disp)

	// Must not panic, must still attempt subsequent ticks.
	for tick := uint64(0); tick < 3; tick++ {
		r.Render(types.DisplayIntent{FillRatio: 0.5, Color: types.Color{G: 255}, TextLines: []string{"3", "5000"}}, tick)
	}
	if ring.shows != 3 {
		t.Errorf("Expected 3 ring write attempts, got %d", ring.shows)
	}
}

func TestDrawTextOnlyOnChange(t *testing.T) {
	ring := newMockRing(24)
	disp := newMockDisplay()
	r := newTestRenderer(ring, disp)
	intent := types.DisplayIntent{FillRatio: 0.5, Color: types.Color{G: 255}, TextLines: []string{"3", "5000"}}

	r.Render(intent, 0)
	r.Render(intent, 1)
	r.Render(intent, 2)
	if disp.shows != 1 {
		t.Errorf("Unchanged text should draw once, got %d draws", disp.shows)
	}

	intent.TextLines = []string{"4", "3500"}
	r.Render(intent, 3)
	if disp.shows != 2 {
		t.Errorf("Changed text should redraw, got %d draws", disp.shows)
	}
	if len(disp.pixels) == 0 {
		t.Error("Redraw should have set glyph pixels")
	}
}

func TestGlyphsCoverGearLabels(t *testing.T) {
	for _, ch := range "0123456789NR-" {
		if _, ok := glyphs[ch]; !ok {
			t.Errorf("Missing glyph for %q", ch)
		}
	}
}

var errFailed = errTest("sink failed")

type errTest string

func (e errTest) Error() string { return string(e) }
