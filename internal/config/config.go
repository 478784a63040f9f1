package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"shiftlight-service/internal/types"
)

// Config is the full device configuration. All of it is read-only input to
// the core; nothing in here is mutated at runtime.
type Config struct {
	Network   NetworkConfig   `yaml:"network"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Ring      RingConfig      `yaml:"ring"`
	Display   DisplayConfig   `yaml:"display"`
	Button    ButtonConfig    `yaml:"button"`
	Redis     RedisConfig     `yaml:"redis"`
}

// NetworkConfig holds UDP ingress settings.
type NetworkConfig struct {
	// BindAddress is the local address datagram sockets bind to.
	// Empty means all interfaces, which is what a broadcast listener wants.
	BindAddress string `yaml:"bindAddress"`
}

// TelemetryConfig holds ingestion and shift-policy tuning.
type TelemetryConfig struct {
	// Games lists the active protocol profiles in priority order.
	// Normally one entry; more than one enables auto-detect.
	Games []string `yaml:"games"`

	SmoothingAlpha float64 `yaml:"smoothingAlpha"` // EMA coefficient in (0,1]
	StalenessMs    int     `yaml:"stalenessMs"`    // idle after this long without a sample

	LowRpm          float64     `yaml:"lowRpm"`          // ramp base; ring is dark below this
	RedlineFraction float64     `yaml:"redlineFraction"` // shift point as fraction of max RPM when the game gives no shift RPM
	FallbackMaxRpm  float64     `yaml:"fallbackMaxRpm"`  // last-resort shift scale when the game gives neither
	Bands           []BandEntry `yaml:"bands"`
}

// BandEntry maps the top of a fill-ratio band to a ring color.
type BandEntry struct {
	UpTo  float64 `yaml:"upTo"`
	Color string  `yaml:"color"` // "green", "yellow", "red", "cyan" or "#rrggbb"
}

// RingConfig holds LED ring settings.
type RingConfig struct {
	LedCount       int     `yaml:"ledCount"`
	Brightness     float64 `yaml:"brightness"` // 0..1
	FlashHz        int     `yaml:"flashHz"`
	IdleAnimations bool    `yaml:"idleAnimations"`
	TickHz         int     `yaml:"tickHz"`
	SpiDevice      string  `yaml:"spiDevice"`
}

// DisplayConfig holds the monochrome display settings.
type DisplayConfig struct {
	Enabled   bool   `yaml:"enabled"`
	I2CDevice string `yaml:"i2cDevice"`
	I2CAddr   int    `yaml:"i2cAddr"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
}

// ButtonConfig holds the profile-cycle button settings.
type ButtonConfig struct {
	Enabled bool   `yaml:"enabled"`
	Chip    string `yaml:"chip"`
	Line    int    `yaml:"line"`
}

// RedisConfig holds the messaging settings.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, then validates it. path may be empty; the
// SHIFTLIGHT_CONFIG environment variable is honored either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("SHIFTLIGHT_CONFIG")
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration. The tuning values the source
// games leave unspecified (smoothing, staleness, flash rate) are chosen
// here and overridable everywhere.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			BindAddress: "",
		},
		Telemetry: TelemetryConfig{
			Games:           []string{string(types.ProtocolDirtRally)},
			SmoothingAlpha:  0.5,
			StalenessMs:     2000,
			LowRpm:          0,
			RedlineFraction: 0.95,
			FallbackMaxRpm:  7000,
			Bands: []BandEntry{
				{UpTo: 0.6, Color: "green"},
				{UpTo: 0.85, Color: "yellow"},
				{UpTo: 1.0, Color: "red"},
			},
		},
		Ring: RingConfig{
			LedCount:       24,
			Brightness:     0.3,
			FlashHz:        10,
			IdleAnimations: true,
			TickHz:         60,
			SpiDevice:      "/dev/spidev0.0",
		},
		Display: DisplayConfig{
			Enabled:   true,
			I2CDevice: "/dev/i2c-1",
			I2CAddr:   0x3C,
			Width:     128,
			Height:    64,
		},
		Button: ButtonConfig{
			Enabled: false,
			Chip:    "gpiochip0",
			Line:    4,
		},
		Redis: RedisConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    6379,
		},
	}
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHIFTLIGHT_GAMES"); v != "" {
		cfg.Telemetry.Games = splitList(v)
	}
	if v := os.Getenv("SHIFTLIGHT_BRIGHTNESS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Ring.Brightness = f
		}
	}
	if v := os.Getenv("SHIFTLIGHT_LED_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ring.LedCount = n
		}
	}
	if v := os.Getenv("SHIFTLIGHT_REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("SHIFTLIGHT_REDIS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.Port = n
		}
	}
	if v := os.Getenv("SHIFTLIGHT_REDIS_DISABLED"); v == "1" || v == "true" {
		cfg.Redis.Enabled = false
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects configurations the scheduler or renderer cannot run with.
func (c *Config) Validate() error {
	if len(c.Telemetry.Games) == 0 {
		return fmt.Errorf("at least one game profile must be active")
	}
	if c.Telemetry.SmoothingAlpha <= 0 || c.Telemetry.SmoothingAlpha > 1 {
		return fmt.Errorf("smoothingAlpha must be in (0,1], got %v", c.Telemetry.SmoothingAlpha)
	}
	if c.Telemetry.StalenessMs <= 0 {
		return fmt.Errorf("stalenessMs must be positive, got %d", c.Telemetry.StalenessMs)
	}
	if c.Telemetry.LowRpm < 0 {
		return fmt.Errorf("lowRpm must not be negative, got %v", c.Telemetry.LowRpm)
	}
	if c.Telemetry.RedlineFraction <= 0 || c.Telemetry.RedlineFraction > 1 {
		return fmt.Errorf("redlineFraction must be in (0,1], got %v", c.Telemetry.RedlineFraction)
	}
	if c.Telemetry.FallbackMaxRpm <= 0 {
		return fmt.Errorf("fallbackMaxRpm must be positive, got %v", c.Telemetry.FallbackMaxRpm)
	}
	if len(c.Telemetry.Bands) == 0 {
		return fmt.Errorf("at least one color band is required")
	}
	prev := 0.0
	for i, b := range c.Telemetry.Bands {
		if b.UpTo <= prev && i > 0 {
			return fmt.Errorf("band boundaries must be strictly increasing, got %v after %v", b.UpTo, prev)
		}
		if _, err := ParseColor(b.Color); err != nil {
			return err
		}
		prev = b.UpTo
	}
	if c.Ring.LedCount <= 0 {
		return fmt.Errorf("ledCount must be positive, got %d", c.Ring.LedCount)
	}
	if c.Ring.Brightness < 0 || c.Ring.Brightness > 1 {
		return fmt.Errorf("brightness must be in [0,1], got %v", c.Ring.Brightness)
	}
	if c.Ring.FlashHz <= 0 {
		return fmt.Errorf("flashHz must be positive, got %d", c.Ring.FlashHz)
	}
	if c.Ring.TickHz <= 0 {
		return fmt.Errorf("tickHz must be positive, got %d", c.Ring.TickHz)
	}
	if c.Ring.FlashHz*2 > c.Ring.TickHz {
		return fmt.Errorf("flashHz %d is too fast for tickHz %d", c.Ring.FlashHz, c.Ring.TickHz)
	}
	return nil
}

var namedColors = map[string]types.Color{
	"green":  {R: 0, G: 255, B: 0},
	"yellow": {R: 255, G: 255, B: 0},
	"red":    {R: 255, G: 0, B: 0},
	"cyan":   {R: 0, G: 150, B: 150},
	"off":    {},
}

// ParseColor resolves a named color or a "#rrggbb" literal.
func ParseColor(s string) (types.Color, error) {
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		n, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return types.Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
		}
	}
	return types.Color{}, fmt.Errorf("unknown color %q", s)
}
