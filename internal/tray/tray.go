package tray

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/petems/fishing-tray/internal/app"
	"github.com/petems/fishing-tray/internal/config"
	"github.com/petems/fishing-tray/internal/logging"
)

const (
	caughtDisplay = 800 * time.Millisecond
	resetDisplay  = 1500 * time.Millisecond
)

type UI struct {
	app     *app.App
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	mu     sync.Mutex
	ready  bool
	state  string
	level  float64
	revert *time.Timer

	// Menu items
	mStartStop *systray.MenuItem
	mCatches   *systray.MenuItem
	mThreshold *systray.MenuItem
	mCooldown  *systray.MenuItem
	mDevices   *systray.MenuItem
}

func New(application *app.App, cfg *config.Config, log zerolog.Logger, version, commit string) *UI {
	return &UI{
		app:     application,
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log,
		state:   "idle",
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

// Status update methods for the app to call

func (u *UI) SetIdle() {
	u.setState("idle", 0)
	u.setStartStop(false)
}

func (u *UI) SetListening() {
	u.setState("listening", 0)
	u.setStartStop(true)
}

func (u *UI) SetCaught(catches int, similarity float64) {
	u.setState("caught", caughtDisplay)
	u.setCatches(catches)
}

func (u *UI) SetLevel(progress float64) {
	u.mu.Lock()
	u.level = progress
	u.mu.Unlock()
	u.refresh()
}

func (u *UI) SetReset() {
	u.setState("reset", resetDisplay)
	u.setCatches(0)
}

func (u *UI) SetError(message string) {
	u.setState("error", 0)
	u.setStartStop(false)
	u.mu.Lock()
	ready := u.ready
	u.mu.Unlock()
	if ready {
		systray.SetTooltip(message)
	}
}

// setState switches the displayed state. Transient states fall back to
// whatever the app is doing once hold has passed.
func (u *UI) setState(state string, hold time.Duration) {
	u.mu.Lock()
	if u.revert != nil {
		u.revert.Stop()
		u.revert = nil
	}
	u.state = state
	if state != "listening" {
		u.level = 0
	}
	if hold > 0 {
		u.revert = time.AfterFunc(hold, u.settle)
	}
	u.mu.Unlock()
	u.refresh()
}

func (u *UI) settle() {
	state := "idle"
	if u.app != nil && u.app.IsRunning() {
		state = "listening"
	}
	u.mu.Lock()
	u.revert = nil
	u.state = state
	u.mu.Unlock()
	u.refresh()
}

func (u *UI) refresh() {
	u.mu.Lock()
	ready, state, level := u.ready, u.state, u.level
	u.mu.Unlock()
	if ready {
		systray.SetTitle(statusTitle(state, level))
	}
}

func (u *UI) setStartStop(running bool) {
	u.mu.Lock()
	ready := u.ready
	u.mu.Unlock()
	if !ready {
		return
	}
	if running {
		u.mStartStop.SetTitle("Stop Fishing")
	} else {
		u.mStartStop.SetTitle("Start Fishing")
	}
}

func (u *UI) setCatches(n int) {
	u.mu.Lock()
	ready := u.ready
	u.mu.Unlock()
	if ready {
		u.mCatches.SetTitle(fmt.Sprintf("Catches: %d", n))
	}
}

// Run blocks on the tray event loop - MUST run on main thread
func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	systray.SetTooltip(fmt.Sprintf("Listens for the splash and reels in (%s to start/stop)", u.cfg.PlatformHotkey()))

	u.mStartStop = systray.AddMenuItem("Start Fishing", "Cast and listen for bites")
	u.mCatches = systray.AddMenuItem("Catches: 0", "Catches this session")
	u.mCatches.Disable()
	systray.AddSeparator()

	// The app holds the clamped values actually in use
	stats := u.app.Stats()

	u.mThreshold = systray.AddMenuItem("", "Match needed to reel in")
	u.buildPresetMenu(u.mThreshold, "Similarity Threshold", thresholdPresets(), stats.Threshold, "%.2f", u.app.SetThreshold)

	u.mCooldown = systray.AddMenuItem("", "Pause after each catch")
	u.buildPresetMenu(u.mCooldown, "Cooldown", cooldownPresets(), stats.CooldownSeconds, "%.1fs", u.app.SetCooldown)

	u.mDevices = systray.AddMenuItem("Capture Device", "Select loopback device")
	u.buildDeviceMenu()

	systray.AddSeparator()
	mReset := systray.AddMenuItem("Reset Counter", "Zero the catch counter")
	mCopy := systray.AddMenuItem("Copy Stats", "Copy session stats to clipboard")
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About Fishing Tray")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	u.mu.Lock()
	u.ready = true
	u.mu.Unlock()
	u.refresh()

	// Event loop
	go u.handleEvents(mReset, mCopy, mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(mReset, mCopy, mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mStartStop.ClickedCh:
			if err := u.app.Toggle(); err != nil {
				u.log.Error().Err(err).Msg("Failed to start fishing")
			}
		case <-mReset.ClickedCh:
			u.app.Reset()
		case <-mCopy.ClickedCh:
			u.copyStats()
		case <-mLogs.ClickedCh:
			u.openLogs()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

// buildPresetMenu adds one checkbox per preset; clicking applies the value for this session.
// The parent title always shows the active value, which may sit between presets.
func (u *UI) buildPresetMenu(parent *systray.MenuItem, label string, values []float64, current float64, format string, apply func(float64)) {
	items := make([]*systray.MenuItem, len(values))
	selected := presetIndex(values, current)
	parent.SetTitle(presetTitle(label, format, current))

	for i, v := range values {
		items[i] = parent.AddSubMenuItemCheckbox(fmt.Sprintf(format, v), "", i == selected)

		go func(idx int, value float64) {
			for range items[idx].ClickedCh {
				for j, itm := range items {
					if j != idx {
						itm.Uncheck()
					}
				}
				items[idx].Check()
				parent.SetTitle(presetTitle(label, format, value))
				apply(value)
			}
		}(i, v)
	}
}

func (u *UI) buildDeviceMenu() {
	// Get devices from app
	devices, err := u.app.ListDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list audio devices")
		return
	}

	current := u.app.DeviceID()
	deviceItems := make(map[string]*systray.MenuItem)

	auto := u.mDevices.AddSubMenuItemCheckbox("Automatic (loopback)", "", current == "")
	deviceItems[""] = auto
	go u.watchDevice("", "Automatic", auto, deviceItems)

	for _, dev := range devices {
		item := u.mDevices.AddSubMenuItemCheckbox(dev.Name, "", dev.ID == current)
		deviceItems[dev.ID] = item
		go u.watchDevice(dev.ID, dev.Name, item, deviceItems)
	}
}

func (u *UI) watchDevice(deviceID, deviceName string, menuItem *systray.MenuItem, items map[string]*systray.MenuItem) {
	for range menuItem.ClickedCh {
		if err := u.app.SetDevice(deviceID); err != nil {
			u.log.Warn().Err(err).Str("device", deviceName).Msg("Device not changed")
			menuItem.Uncheck()
			continue
		}
		// Uncheck all other items
		for id, itm := range items {
			if id != deviceID {
				itm.Uncheck()
			}
		}
		menuItem.Check()
		u.log.Info().Str("device", deviceName).Msg("Changed capture device")
	}
}

func (u *UI) copyStats() {
	text := statsText(u.app.Stats())
	if err := clipboard.WriteAll(text); err != nil {
		u.log.Error().Err(err).Msg("Failed to copy stats")
		return
	}
	u.log.Info().Str("stats", text).Msg("Copied stats to clipboard")
}

func (u *UI) openLogs() {
	path := logging.LogPath()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		u.log.Error().Err(err).Str("path", path).Msg("Failed to open logs")
		return
	}
	go cmd.Wait()
}

func (u *UI) showAbout() {
	fmt.Printf("Fishing Tray %s (%s)\nReels in when it hears the splash\n", u.version, u.commit)
}

func (u *UI) onExit() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := u.app.Shutdown(ctx); err != nil {
		u.log.Error().Err(err).Msg("Shutdown error")
	}
}

// statusTitle renders the tray title, including the level meter while listening
func statusTitle(state string, level float64) string {
	title := fmt.Sprintf("🎣 %s", emojiForStatus(state))
	if state == "listening" {
		title += fmt.Sprintf(" %3.0f%%", level)
	}
	return title
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "listening":
		return "🔵" // Blue - waiting for a bite
	case "caught":
		return "🐟" // Fish - bite detected
	case "reset":
		return "✅" // Counter cleared
	case "error":
		return "🔴" // Red - could not start
	default:
		return "⚪️" // White - idle
	}
}

func statsText(s app.Stats) string {
	state := "stopped"
	if s.Running {
		state = "running"
	}
	text := fmt.Sprintf("Catches: %d | Last similarity: %.2f | Threshold: %.2f | Cooldown: %.1fs | %s",
		s.Catches, s.LastSimilarity, s.Threshold, s.CooldownSeconds, state)
	if s.Device != "" {
		text += " | Device: " + s.Device
	}
	return text
}

func thresholdPresets() []float64 {
	return presets(config.MinThreshold, config.MaxThreshold, 0.05)
}

func cooldownPresets() []float64 {
	return presets(config.MinCooldown, config.MaxCooldown, 0.5)
}

// presets lists lo..hi inclusive, rounded to two decimals to avoid drift
func presets(lo, hi, step float64) []float64 {
	var out []float64
	for i := 0; ; i++ {
		v := math.Round((lo+float64(i)*step)*100) / 100
		if v > hi+1e-9 {
			break
		}
		out = append(out, v)
	}
	return out
}

// presetIndex returns the index of the preset equal to v, or -1
func presetIndex(values []float64, v float64) int {
	for i := range values {
		if math.Abs(values[i]-v) < 1e-9 {
			return i
		}
	}
	return -1
}

func presetTitle(label, format string, v float64) string {
	return label + ": " + fmt.Sprintf(format, v)
}
