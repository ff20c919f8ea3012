package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Threshold != 0.7 {
		t.Errorf("expected default threshold 0.7, got %v", cfg.Threshold)
	}
	if cfg.CooldownSeconds != 2 {
		t.Errorf("expected default cooldown 2s, got %v", cfg.CooldownSeconds)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", cfg.Audio.SampleRate)
	}
}

func TestLoadFileOverridesAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"threshold": 0.99, "cooldown_seconds": 0.2, "audio": {"device_id": "Monitor of Speakers"}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Threshold != MaxThreshold {
		t.Errorf("expected threshold clamped to %v, got %v", MaxThreshold, cfg.Threshold)
	}
	if cfg.CooldownSeconds != MinCooldown {
		t.Errorf("expected cooldown clamped to %v, got %v", MinCooldown, cfg.CooldownSeconds)
	}
	if cfg.Audio.DeviceID != "Monitor of Speakers" {
		t.Errorf("expected device override, got %q", cfg.Audio.DeviceID)
	}
	// untouched nested fields keep their defaults
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("expected default sample rate to survive, got %d", cfg.Audio.SampleRate)
	}
}

func TestLoadFileRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }, true},
		{"negative volume", func(c *Config) { c.MinVolume = -1 }, true},
		{"negative hold", func(c *Config) { c.Click.HoldMs = -5 }, true},
		{"threshold below range", func(c *Config) { c.Threshold = 0.1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTemplatePathAbsolute(t *testing.T) {
	cfg := Default()
	abs := filepath.Join(t.TempDir(), "splash.wav")
	cfg.Template = abs

	if got := cfg.TemplatePath(); got != abs {
		t.Errorf("expected %s, got %s", abs, got)
	}
}

func TestTemplatePathDefaultIsNextToBinary(t *testing.T) {
	cfg := Default()
	got := cfg.TemplatePath()

	if filepath.Base(got) != "splash_template.wav" {
		t.Errorf("unexpected template file name: %s", got)
	}
	if filepath.Base(filepath.Dir(got)) != "assets" {
		t.Errorf("expected template under assets/, got %s", got)
	}
}

func TestCooldownDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    time.Duration
	}{
		{2, 2 * time.Second},
		{1.5, 1500 * time.Millisecond},
		{0, time.Second},
		{9, 5 * time.Second},
	}

	for _, tt := range tests {
		if got := CooldownDuration(tt.seconds); got != tt.want {
			t.Errorf("CooldownDuration(%v) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}
