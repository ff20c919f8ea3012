package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/fishing-tray/internal/audio"
	"github.com/petems/fishing-tray/internal/clicker"
	"github.com/petems/fishing-tray/internal/config"
	"github.com/petems/fishing-tray/internal/detect"
	"github.com/petems/fishing-tray/internal/notify"
	"github.com/petems/fishing-tray/internal/template"
)

// Capture chunks buffered between the audio callback and the worker
const chunkBuffer = 64

var (
	ErrRunning    = errors.New("already fishing")
	ErrNoTemplate = errors.New("splash template not loaded")
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetListening()
	SetCaught(catches int, similarity float64)
	SetLevel(progress float64)
	SetReset()
	SetError(message string)
}

type Config struct {
	Audio         audio.Capture
	Clicker       clicker.Clicker
	Template      *template.Template // nil when loading failed; Start then reports it
	Notifier      notify.Notifier    // Optional
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater    // Optional - can be nil
	Clock         func() time.Time // Optional, defaults to time.Now
}

// Stats is a snapshot of the current session
type Stats struct {
	Running         bool
	Catches         int
	LastSimilarity  float64
	Threshold       float64
	CooldownSeconds float64
	Device          string
}

type App struct {
	audio    audio.Capture
	clk      clicker.Clicker
	tmpl     *template.Template
	detector *detect.Detector
	notifier notify.Notifier
	cfg      *config.Config
	log      zerolog.Logger
	status   StatusUpdater
	now      func() time.Time
	gate     detect.Gate

	mu             sync.Mutex
	running        bool
	stop           context.CancelFunc
	done           chan struct{}
	catches        int
	lastSimilarity float64
	threshold      float64
	cooldown       float64
	deviceID       string
	deviceName     string
}

func New(cfg Config) *App {
	a := &App{
		audio:     cfg.Audio,
		clk:       cfg.Clicker,
		tmpl:      cfg.Template,
		notifier:  cfg.Notifier,
		cfg:       cfg.Config,
		log:       cfg.Logger,
		status:    cfg.StatusUpdater,
		now:       cfg.Clock,
		threshold: config.ClampThreshold(cfg.Config.Threshold),
		cooldown:  config.ClampCooldown(cfg.Config.CooldownSeconds),
		deviceID:  cfg.Config.Audio.DeviceID,
	}
	if a.status == nil {
		a.status = nopStatus{}
	}
	if a.notifier == nil {
		a.notifier = notify.Nop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.tmpl != nil {
		a.detector = detect.NewDetector(a.tmpl.Samples, cfg.Config.MinVolume)
		if a.tmpl.SampleRate != cfg.Config.Audio.SampleRate {
			a.log.Warn().
				Int("template_rate", a.tmpl.SampleRate).
				Int("capture_rate", cfg.Config.Audio.SampleRate).
				Msg("Template sample rate differs from capture rate")
		}
	}
	return a
}

// SetStatusUpdater wires the UI after construction
func (a *App) SetStatusUpdater(s StatusUpdater) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s == nil {
		s = nopStatus{}
	}
	a.status = s
}

// OnHotkey toggles fishing on key press
func (a *App) OnHotkey(pressed bool) {
	if !pressed {
		return
	}
	if err := a.Toggle(); err != nil {
		a.log.Error().Err(err).Msg("Toggle failed")
	}
}

// Toggle starts fishing when idle and stops it when running
func (a *App) Toggle() error {
	if a.IsRunning() {
		a.Stop()
		return nil
	}
	return a.Start()
}

// Start checks the template and capture device, then launches the worker
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return ErrRunning
	}

	if a.detector == nil {
		a.failLocked("Missing splash template", ErrNoTemplate)
		return ErrNoTemplate
	}

	device, err := a.audio.Resolve(a.deviceID)
	if err != nil {
		a.failLocked("No audio device found", err)
		return fmt.Errorf("resolve capture device: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.running = true
	a.stop = cancel
	a.done = make(chan struct{})
	a.deviceName = device.Name

	a.log.Info().
		Str("device", device.Name).
		Float64("threshold", a.threshold).
		Float64("cooldown", a.cooldown).
		Msg("Starting fishing")
	a.status.SetListening()

	go a.run(ctx, device, a.done)
	return nil
}

// Stop cancels the worker. It does not wait for it to exit.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *App) stopLocked() {
	if !a.running {
		return
	}
	a.log.Info().Int("catches", a.catches).Msg("Stopping fishing")
	a.running = false
	a.stop()
	a.status.SetIdle()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	done := a.done
	a.stopLocked()
	a.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) failLocked(message string, err error) {
	a.log.Error().Err(err).Msg(message)
	a.status.SetError(message)
	a.notify(message)
}

// notify never blocks the caller; desktop backends may shell out
func (a *App) notify(message string) {
	go a.notifier.Notify(message)
}

// fail reports a worker error unless the run was already stopped
func (a *App) fail(ctx context.Context, message string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	a.running = false
	a.stop()
	a.failLocked(message, err)
}

func (a *App) run(ctx context.Context, device audio.AudioDevice, done chan struct{}) {
	defer close(done)

	// Give the user a moment to focus the game window
	if err := sleepCtx(ctx, time.Duration(a.cfg.Click.StartDelayMs)*time.Millisecond); err != nil {
		return
	}
	if err := a.clk.Click(ctx); err != nil {
		a.fail(ctx, "Click failed", err)
		return
	}
	a.gate.Mark(a.now())

	chunks := make(chan []float32, chunkBuffer)
	if err := a.audio.Start(ctx, device.ID, a.cfg.Audio.SampleRate, chunks); err != nil {
		a.fail(ctx, "Audio capture failed", err)
		return
	}

	size := a.detector.FrameSize()
	pending := make([]float64, 0, 2*size)

	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-chunks:
			if !ok {
				a.fail(ctx, "Audio capture stopped", errors.New("capture channel closed"))
				return
			}
			for _, s := range chunk {
				pending = append(pending, float64(s))
			}

			for len(pending) >= size {
				frame := make([]float64, size)
				copy(frame, pending[:size])
				pending = append(pending[:0], pending[size:]...)

				caught, err := a.processFrame(ctx, frame)
				if err != nil {
					if ctx.Err() == nil {
						a.fail(ctx, "Click failed", err)
					}
					return
				}
				if caught {
					pending = pending[:0]
					drain(chunks)
				}
			}
		}
	}
}

// processFrame runs one frame through the cooldown gate and the detector
func (a *App) processFrame(ctx context.Context, frame []float64) (bool, error) {
	threshold, cooldown := a.settings()

	if !a.gate.Ready(a.now(), cooldown) {
		return false, nil
	}

	res := a.detector.Score(frame, threshold)
	a.log.Debug().
		Float64("similarity", res.Similarity).
		Float64("volume", res.Volume).
		Msg("Frame scored")

	a.mu.Lock()
	status := a.status
	a.lastSimilarity = res.Similarity
	a.mu.Unlock()

	status.SetLevel(detect.Progress(res.Similarity, threshold))

	if !res.Triggered {
		return false, nil
	}
	return true, a.reel(ctx, res.Similarity)
}

// reel counts the catch, reels in and recasts
func (a *App) reel(ctx context.Context, similarity float64) error {
	a.mu.Lock()
	a.catches++
	catches := a.catches
	status := a.status
	a.mu.Unlock()

	a.log.Info().Int("catches", catches).Float64("similarity", similarity).Msg("Bite detected")
	status.SetCaught(catches, similarity)

	if err := a.clk.Click(ctx); err != nil {
		return err
	}
	if err := sleepCtx(ctx, time.Duration(a.cfg.Click.RecastDelayMs)*time.Millisecond); err != nil {
		return err
	}
	if err := a.clk.Click(ctx); err != nil {
		return err
	}
	a.gate.Mark(a.now())
	a.notify(fmt.Sprintf("Catch #%d (similarity %.2f)", catches, similarity))
	return nil
}

func (a *App) settings() (float64, time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.threshold, config.CooldownDuration(a.cooldown)
}

// drain drops audio captured while the catch was being handled
func drain(ch <-chan []float32) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tray actions

// SetThreshold applies immediately to the next frame
func (a *App) SetThreshold(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threshold = config.ClampThreshold(v)
	a.log.Info().Float64("threshold", a.threshold).Msg("Changed similarity threshold")
}

// SetCooldown applies immediately to the next frame
func (a *App) SetCooldown(seconds float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cooldown = config.ClampCooldown(seconds)
	a.log.Info().Float64("cooldown", a.cooldown).Msg("Changed cooldown")
}

func (a *App) SetDevice(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("cannot change device while fishing")
	}

	a.deviceID = id
	return nil
}

// Reset zeroes the catch counter
func (a *App) Reset() {
	a.mu.Lock()
	a.catches = 0
	status := a.status
	a.mu.Unlock()

	a.log.Info().Msg("Catch counter reset")
	status.SetReset()
}

func (a *App) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *App) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		Running:         a.running,
		Catches:         a.catches,
		LastSimilarity:  a.lastSimilarity,
		Threshold:       a.threshold,
		CooldownSeconds: a.cooldown,
		Device:          a.deviceName,
	}
}

func (a *App) DeviceID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deviceID
}

func (a *App) ListDevices() ([]audio.AudioDevice, error) {
	return a.audio.ListDevices()
}

type nopStatus struct{}

func (nopStatus) SetIdle() {}
func (nopStatus) SetListening() {}
func (nopStatus) SetCaught(int, float64) {}
func (nopStatus) SetLevel(float64) {}
func (nopStatus) SetReset() {}
func (nopStatus) SetError(string) {}
