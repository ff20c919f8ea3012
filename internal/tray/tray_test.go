package tray

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/fishing-tray/internal/app"
	"github.com/petems/fishing-tray/internal/audio"
	"github.com/petems/fishing-tray/internal/config"
	"github.com/petems/fishing-tray/internal/template"
)

func TestPresets(t *testing.T) {
	thresholds := thresholdPresets()
	if len(thresholds) != 10 {
		t.Fatalf("expected 10 threshold presets, got %d: %v", len(thresholds), thresholds)
	}
	if thresholds[0] != 0.5 || thresholds[len(thresholds)-1] != 0.95 {
		t.Errorf("unexpected threshold range: %v", thresholds)
	}

	cooldowns := cooldownPresets()
	if len(cooldowns) != 9 {
		t.Fatalf("expected 9 cooldown presets, got %d: %v", len(cooldowns), cooldowns)
	}
	if cooldowns[0] != 1 || cooldowns[len(cooldowns)-1] != 5 {
		t.Errorf("unexpected cooldown range: %v", cooldowns)
	}
}

func TestPresetIndex(t *testing.T) {
	values := thresholdPresets()

	tests := []struct {
		v    float64
		want int
	}{
		{0.5, 0},
		{0.7, 4},
		{0.95, 9},
		{0.72, -1}, // between presets: nothing ticked
		{0.1, -1},
	}
	for _, tt := range tests {
		if got := presetIndex(values, tt.v); got != tt.want {
			t.Errorf("presetIndex(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestPresetTitle(t *testing.T) {
	if got := presetTitle("Similarity Threshold", "%.2f", 0.72); got != "Similarity Threshold: 0.72" {
		t.Errorf("unexpected title %q", got)
	}
	if got := presetTitle("Cooldown", "%.1fs", 2.5); got != "Cooldown: 2.5s" {
		t.Errorf("unexpected title %q", got)
	}
}

func TestStatsTextStopped(t *testing.T) {
	text := statsText(app.Stats{Threshold: 0.7, CooldownSeconds: 2})
	if !strings.Contains(text, "stopped") {
		t.Errorf("expected stopped state in %q", text)
	}
	if strings.Contains(text, "Device:") {
		t.Errorf("expected no device before the first start, got %q", text)
	}
}

func TestStatusTitle(t *testing.T) {
	tests := []struct {
		name  string
		state string
		level float64
		want  string
	}{
		{"idle", "idle", 0, "🎣 ⚪️"},
		{"listening shows meter", "listening", 42, "🎣 🔵  42%"},
		{"caught hides meter", "caught", 100, "🎣 🐟"},
		{"error", "error", 0, "🎣 🔴"},
		{"unknown falls back to idle", "weird", 0, "🎣 ⚪️"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusTitle(tt.state, tt.level); got != tt.want {
				t.Errorf("statusTitle(%q, %v) = %q, want %q", tt.state, tt.level, got, tt.want)
			}
		})
	}
}

func TestStatsText(t *testing.T) {
	text := statsText(app.Stats{
		Running:         true,
		Catches:         12,
		LastSimilarity:  0.834,
		Threshold:       0.7,
		CooldownSeconds: 2,
		Device:          "Monitor of Speakers",
	})

	for _, want := range []string{"Catches: 12", "Last similarity: 0.83", "Threshold: 0.70", "Cooldown: 2.0s", "running", "Device: Monitor of Speakers"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
}

// Before the tray is ready, status updates only track state
func TestStateTransitionsBeforeReady(t *testing.T) {
	cfg := config.Default()
	u := New(nil, cfg, zerolog.Nop(), "test", "none")

	u.SetListening()
	u.SetLevel(55)
	u.mu.Lock()
	if u.state != "listening" || u.level != 55 {
		t.Errorf("expected listening at 55, got %s at %v", u.state, u.level)
	}
	u.mu.Unlock()

	u.SetCaught(1, 0.9)
	u.mu.Lock()
	if u.state != "caught" || u.level != 0 {
		t.Errorf("expected caught with cleared meter, got %s at %v", u.state, u.level)
	}
	u.mu.Unlock()

	// no app wired, so the transient state settles to idle
	time.Sleep(caughtDisplay + 200*time.Millisecond)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != "idle" {
		t.Errorf("expected caught to settle to idle, got %s", u.state)
	}
}

// idleCapture delivers no audio until stopped
type idleCapture struct{}

func (idleCapture) Resolve(string) (audio.AudioDevice, error) {
	return audio.AudioDevice{ID: "loopback", Name: "Loopback"}, nil
}

func (idleCapture) Start(ctx context.Context, _ string, _ int, out chan<- []float32) error {
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return nil
}

func (idleCapture) Stop() error { return nil }
func (idleCapture) ListDevices() ([]audio.AudioDevice, error) { return nil, nil }
func (idleCapture) Close() error { return nil }

type nopClicker struct{}

func (nopClicker) Click(context.Context) error { return nil }

func TestResetSettlesToListeningWhileRunning(t *testing.T) {
	cfg := config.Default()
	cfg.Click.StartDelayMs = 0

	u := New(nil, cfg, zerolog.Nop(), "test", "none")
	a := app.New(app.Config{
		Audio:         idleCapture{},
		Clicker:       nopClicker{},
		Template:      &template.Template{Samples: []float64{0, 1, 0, -1}, SampleRate: 44100},
		Config:        cfg,
		Logger:        zerolog.Nop(),
		StatusUpdater: u,
	})
	u.SetApp(a)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		a.Shutdown(ctx)
	})

	if err := a.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a.Reset()
	u.mu.Lock()
	if u.state != "reset" {
		t.Errorf("expected reset state, got %s", u.state)
	}
	u.mu.Unlock()

	time.Sleep(resetDisplay + 200*time.Millisecond)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != "listening" {
		t.Errorf("expected reset to settle to listening while running, got %s", u.state)
	}
}
