// Package policy maps a telemetry view to a display intent. ComputeIntent
// is pure and deterministic: same view and tuning in, same intent out.
package policy

import (
	"fmt"
	"math"

	"shiftlight-service/internal/config"
	"shiftlight-service/internal/telemetry"
	"shiftlight-service/internal/types"
)

// Band maps the top of a fill-ratio range to a color. Bands come from
// configuration, ordered by ascending UpTo; the last band also covers
// everything above its boundary.
type Band struct {
	UpTo  float64
	Color types.Color
}

// Tuning is the declarative tuning table the policy consumes. Profile
// tuning happens here, never in decoding or rendering code.
type Tuning struct {
	LowRpm          float64
	RedlineFraction float64
	FallbackMaxRpm  float64
	Bands           []Band
	IdleColor       types.Color
}

// TuningFromConfig resolves the configured band table into colors.
func TuningFromConfig(cfg *config.Config) (Tuning, error) {
	t := Tuning{
		LowRpm:          cfg.Telemetry.LowRpm,
		RedlineFraction: cfg.Telemetry.RedlineFraction,
		FallbackMaxRpm:  cfg.Telemetry.FallbackMaxRpm,
		IdleColor:       types.Color{R: 0, G: 150, B: 150},
	}
	for _, entry := range cfg.Telemetry.Bands {
		c, err := config.ParseColor(entry.Color)
		if err != nil {
			return Tuning{}, fmt.Errorf("invalid band color: %w", err)
		}
		t.Bands = append(t.Bands, Band{UpTo: entry.UpTo, Color: c})
	}
	return t, nil
}

// ShiftPoint returns the RPM at which the driver should shift: the
// game-supplied value when present, else a fraction of the rev limit,
// else the configured fallback scale.
func (t Tuning) ShiftPoint(v telemetry.View) float64 {
	if v.ShiftRpm > 0 {
		return v.ShiftRpm
	}
	if v.RpmMax > 0 {
		return t.RedlineFraction * v.RpmMax
	}
	return t.FallbackMaxRpm
}

// ComputeIntent derives the rendering decision for one tick.
func ComputeIntent(v telemetry.View, t Tuning) types.DisplayIntent {
	if !v.Live {
		// Terminal idle pattern; nothing here derives from stale numbers.
		return types.DisplayIntent{
			Idle:  true,
			Color: t.IdleColor,
		}
	}

	shift := t.ShiftPoint(v)
	fill := 0.0
	if span := shift - t.LowRpm; span > 0 {
		fill = clamp((v.Rpm - t.LowRpm) / span)
	} else if v.Rpm >= shift {
		fill = 1
	}

	return types.DisplayIntent{
		FillRatio: fill,
		Color:     t.colorFor(fill),
		Flashing:  v.Rpm >= shift,
		TextLines: []string{GearLabel(v.Gear, v.HasGear), fmt.Sprintf("%d", int(math.Round(v.Rpm)))},
	}
}

func (t Tuning) colorFor(fill float64) types.Color {
	for _, b := range t.Bands {
		if fill < b.UpTo {
			return b.Color
		}
	}
	if len(t.Bands) > 0 {
		return t.Bands[len(t.Bands)-1].Color
	}
	return types.Color{}
}

// GearLabel renders a gear number the way the display shows it.
func GearLabel(gear int8, has bool) string {
	switch {
	case !has:
		return "-"
	case gear < 0:
		return "R"
	case gear == 0:
		return "N"
	case gear <= 9:
		return string(rune('0' + gear))
	default:
		return "-"
	}
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
