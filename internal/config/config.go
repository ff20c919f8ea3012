package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	MinThreshold = 0.5
	MaxThreshold = 0.95
	MinCooldown  = 1.0
	MaxCooldown  = 5.0
)

type Config struct {
	LogLevel        string      `json:"log_level"`
	Hotkey          string      `json:"hotkey"`
	HotkeyDarwin    string      `json:"hotkey_darwin"`
	Template        string      `json:"template"`  // path to the splash WAV, empty = assets/ next to the binary
	Threshold       float64     `json:"threshold"` // similarity needed to trigger
	CooldownSeconds float64     `json:"cooldown_seconds"`
	MinVolume       float64     `json:"min_volume"` // frames quieter than this score 0
	Notify          bool        `json:"notify"`
	Audio           AudioConfig `json:"audio"`
	Click           ClickConfig `json:"click"`
}

type AudioConfig struct {
	DeviceID         string   `json:"device_id"`
	SampleRate       int      `json:"sample_rate"`
	LoopbackKeywords []string `json:"loopback_keywords"`
}

type ClickConfig struct {
	HoldMs        int `json:"hold_ms"`
	RecastDelayMs int `json:"recast_delay_ms"`
	StartDelayMs  int `json:"start_delay_ms"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		Hotkey:          "Alt+F",
		HotkeyDarwin:    "Ctrl+F",
		Template:        "",
		Threshold:       0.7,
		CooldownSeconds: 2.0,
		MinVolume:       0.01,
		Notify:          false,
		Audio: AudioConfig{
			DeviceID:   "",
			SampleRate: 44100,
			LoopbackKeywords: []string{
				"loopback", "monitor", "stereo mix", "blackhole", "vb-cable", "what u hear",
			},
		},
		Click: ClickConfig{
			HoldMs:        50,
			RecastDelayMs: 500,
			StartDelayMs:  1000,
		},
	}
}

// Load reads the config from disk on top of the defaults.
// Settings changed at runtime are never written back.
func Load() (*Config, error) {
	return LoadFile(configPath())
}

// LoadFile is Load with an explicit path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate clamps the tunables into their slider ranges and rejects
// values that cannot be clamped.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.Audio.SampleRate)
	}
	if c.MinVolume < 0 {
		return fmt.Errorf("invalid min volume: %v", c.MinVolume)
	}
	if c.Click.HoldMs < 0 || c.Click.RecastDelayMs < 0 || c.Click.StartDelayMs < 0 {
		return fmt.Errorf("click delays must not be negative")
	}
	c.Threshold = ClampThreshold(c.Threshold)
	c.CooldownSeconds = ClampCooldown(c.CooldownSeconds)
	return nil
}

func ClampThreshold(v float64) float64 {
	return clamp(v, MinThreshold, MaxThreshold)
}

func ClampCooldown(v float64) float64 {
	return clamp(v, MinCooldown, MaxCooldown)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CooldownDuration converts a cooldown in seconds to a clamped duration
func CooldownDuration(seconds float64) time.Duration {
	return time.Duration(ClampCooldown(seconds) * float64(time.Second))
}

// PlatformHotkey returns the appropriate hotkey for the current platform
func (c *Config) PlatformHotkey() string {
	if runtime.GOOS == "darwin" && c.HotkeyDarwin != "" {
		return c.HotkeyDarwin
	}
	return c.Hotkey
}

// TemplatePath resolves the splash template location. Relative paths are
// taken relative to the executable's directory.
func (c *Config) TemplatePath() string {
	path := c.Template
	if path == "" {
		path = filepath.Join("assets", "splash_template.wav")
	}
	if filepath.IsAbs(path) {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	return filepath.Join(filepath.Dir(exe), path)
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "fishing-tray", "config.json")
}
