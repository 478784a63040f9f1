// Package render turns display intents into LED ring and display writes.
// The renderer is the only component that touches the output sinks.
package render

import (
	"strings"

	"shiftlight-service/internal/config"
	"shiftlight-service/internal/logger"
	"shiftlight-service/internal/types"
)

// PixelRing is an addressable linear pixel array. Hardware provides it;
// tests mock it.
type PixelRing interface {
	Len() int
	Set(i int, c types.Color)
	Show() error
}

// Display is a monochrome pixel surface. May be absent on ring-only builds.
type Display interface {
	Size() (w, h int)
	Clear()
	SetPixel(x, y int, on bool)
	Show() error
}

type Renderer struct {
	ring PixelRing
	disp Display // nil when the display is disabled
	log  *logger.Logger

	brightness     float64
	flashHalfTicks uint64
	idleAnimations bool
	idleCycleTicks uint64

	lastText  string
	dispDirty bool
}

func New(ring PixelRing, disp Display, cfg *config.Config, log *logger.Logger) *Renderer {
	half := uint64(cfg.Ring.TickHz / (cfg.Ring.FlashHz * 2))
	if half == 0 {
		half = 1
	}
	return &Renderer{
		ring:           ring,
		disp:           disp,
		log:            log.WithTag("render"),
		brightness:     cfg.Ring.Brightness,
		flashHalfTicks: half,
		idleAnimations: cfg.Ring.IdleAnimations,
		idleCycleTicks: uint64(2 * cfg.Ring.TickHz), // one breath in, one out
		dispDirty:      true,
	}
}

// SetBrightness adjusts the global ring brightness, clamped to [0,1].
func (r *Renderer) SetBrightness(b float64) {
	if b < 0 {
		b = 0
	} else if b > 1 {
		b = 1
	}
	r.brightness = b
}

func (r *Renderer) Brightness() float64 {
	return r.brightness
}

// Render writes one intent to the sinks. tick is the scheduler's wall-clock
// tick counter: flash and idle animation phases key off it, not off packet
// arrival, so their rates stay stable whatever the telemetry rate does.
// Sink write failures are logged and swallowed; the next tick retries.
func (r *Renderer) Render(intent types.DisplayIntent, tick uint64) {
	if intent.Idle {
		r.renderIdle(tick)
		return
	}

	count := r.ring.Len()
	lit := litCount(intent.FillRatio, count)
	if intent.Flashing {
		// Full ring on, then dark, alternating on the tick clock.
		if (tick/r.flashHalfTicks)%2 == 0 {
			lit = count
		} else {
			lit = 0
		}
	}

	color := intent.Color.Scale(r.brightness)
	for i := 0; i < count; i++ {
		if i < lit {
			r.ring.Set(i, color)
		} else {
			r.ring.Set(i, types.Color{})
		}
	}
	if err := r.ring.Show(); err != nil {
		r.log.Warnf("ring write failed: %v", err)
	}

	r.drawText(intent.TextLines)
}

// litCount maps fill ratio to illuminated pixels. Floor rounding keeps it
// monotonic: a larger fill never lights fewer pixels.
func litCount(fill float64, count int) int {
	lit := int(fill * float64(count))
	if lit > count {
		lit = count
	}
	if lit < 0 {
		lit = 0
	}
	return lit
}

func (r *Renderer) renderIdle(tick uint64) {
	level := 0.0
	if r.idleAnimations {
		// Triangle wave breathing, half brightness like the handheld's
		// idle loop.
		level = triangle(tick%r.idleCycleTicks, r.idleCycleTicks) * 0.5
	}
	color := types.Color{R: 0, G: 150, B: 150}.Scale(r.brightness * level)
	for i := 0; i < r.ring.Len(); i++ {
		r.ring.Set(i, color)
	}
	if err := r.ring.Show(); err != nil {
		r.log.Warnf("ring write failed: %v", err)
	}

	r.drawText(nil)
}

func triangle(pos, period uint64) float64 {
	if period == 0 {
		return 0
	}
	half := period / 2
	if pos < half {
		return float64(pos) / float64(half)
	}
	return float64(period-pos) / float64(half)
}

// drawText redraws the display when the text actually changed. Line 0 is
// the gear glyph, drawn large on the left; line 1 is the RPM readout along
// the right edge.
func (r *Renderer) drawText(lines []string) {
	if r.disp == nil {
		return
	}
	joined := strings.Join(lines, "\n")
	if joined == r.lastText && !r.dispDirty {
		return
	}
	r.lastText = joined
	r.dispDirty = false

	r.disp.Clear()
	w, h := r.disp.Size()

	if len(lines) > 0 && lines[0] != "" {
		gearW := w / 2
		scaleX := gearW / glyphWidth
		scaleY := h / glyphHeight
		r.drawGlyph([]rune(lines[0])[0], 0, 0, scaleX, scaleY)
	}
	if len(lines) > 1 {
		x := w/2 + 4
		for _, ch := range lines[1] {
			if x+glyphWidth > w {
				break
			}
			r.drawGlyph(ch, x, (h-glyphHeight*2)/2, 1, 2)
			x += glyphWidth + 2
		}
	}

	if err := r.disp.Show(); err != nil {
		r.log.Warnf("display write failed: %v", err)
		r.dispDirty = true // retry next change
	}
}

func (r *Renderer) drawGlyph(ch rune, x, y, scaleX, scaleY int) {
	if scaleX < 1 {
		scaleX = 1
	}
	if scaleY < 1 {
		scaleY = 1
	}
	rows := glyphFor(ch)
	for gy, row := range rows {
		for gx := 0; gx < glyphWidth; gx++ {
			if row&(1<<(glyphWidth-1-gx)) == 0 {
				continue
			}
			for dy := 0; dy < scaleY; dy++ {
				for dx := 0; dx < scaleX; dx++ {
					r.disp.SetPixel(x+gx*scaleX+dx, y+gy*scaleY+dy, true)
				}
			}
		}
	}
}
