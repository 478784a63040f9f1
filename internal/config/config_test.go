package config

import (
	"os"
	"path/filepath"
	"testing"

	"shiftlight-service/internal/types"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration must validate, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no games", func(c *Config) { c.Telemetry.Games = nil }},
		{"alpha zero", func(c *Config) { c.Telemetry.SmoothingAlpha = 0 }},
		{"alpha above one", func(c *Config) { c.Telemetry.SmoothingAlpha = 1.5 }},
		{"staleness zero", func(c *Config) { c.Telemetry.StalenessMs = 0 }},
		{"negative low rpm", func(c *Config) { c.Telemetry.LowRpm = -100 }},
		{"redline fraction zero", func(c *Config) { c.Telemetry.RedlineFraction = 0 }},
		{"no bands", func(c *Config) { c.Telemetry.Bands = nil }},
		{"non-increasing bands", func(c *Config) {
			c.Telemetry.Bands = []BandEntry{{UpTo: 0.8, Color: "green"}, {UpTo: 0.5, Color: "red"}}
		}},
		{"unknown band color", func(c *Config) {
			c.Telemetry.Bands = []BandEntry{{UpTo: 1.0, Color: "mauve"}}
		}},
		{"zero leds", func(c *Config) { c.Ring.LedCount = 0 }},
		{"brightness above one", func(c *Config) { c.Ring.Brightness = 1.2 }},
		{"flash faster than ticks", func(c *Config) { c.Ring.FlashHz = 40; c.Ring.TickHz = 60 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
telemetry:
  games: [forza]
  smoothingAlpha: 0.3
ring:
  ledCount: 16
  brightness: 0.5
redis:
  enabled: false
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Telemetry.Games) != 1 || cfg.Telemetry.Games[0] != "forza" {
		t.Errorf("expected games [forza], got %v", cfg.Telemetry.Games)
	}
	if cfg.Telemetry.SmoothingAlpha != 0.3 {
		t.Errorf("expected alpha 0.3, got %v", cfg.Telemetry.SmoothingAlpha)
	}
	if cfg.Ring.LedCount != 16 || cfg.Ring.Brightness != 0.5 {
		t.Errorf("ring overrides not applied: %+v", cfg.Ring)
	}
	if cfg.Redis.Enabled {
		t.Error("expected redis disabled")
	}
	// Untouched fields keep their defaults.
	if cfg.Ring.TickHz != 60 {
		t.Errorf("expected default tickHz 60, got %d", cfg.Ring.TickHz)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SHIFTLIGHT_GAMES", "generic-json, forza")
	t.Setenv("SHIFTLIGHT_BRIGHTNESS", "0.7")
	t.Setenv("SHIFTLIGHT_REDIS_DISABLED", "1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"generic-json", "forza"}
	if len(cfg.Telemetry.Games) != 2 || cfg.Telemetry.Games[0] != want[0] || cfg.Telemetry.Games[1] != want[1] {
		t.Errorf("expected games %v, got %v", want, cfg.Telemetry.Games)
	}
	if cfg.Ring.Brightness != 0.7 {
		t.Errorf("expected brightness 0.7, got %v", cfg.Ring.Brightness)
	}
	if cfg.Redis.Enabled {
		t.Error("expected redis disabled via env")
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("yellow")
	if err != nil {
		t.Fatal(err)
	}
	if c != (types.Color{R: 255, G: 255, B: 0}) {
		t.Errorf("unexpected yellow: %+v", c)
	}

	c, err = ParseColor("#102030")
	if err != nil {
		t.Fatal(err)
	}
	if c != (types.Color{R: 0x10, G: 0x20, B: 0x30}) {
		t.Errorf("unexpected hex color: %+v", c)
	}

	if _, err := ParseColor("not-a-color"); err == nil {
		t.Error("expected error for unknown color")
	}
}
