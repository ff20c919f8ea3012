package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/petems/fishing-tray/internal/app"
	"github.com/petems/fishing-tray/internal/audio"
	"github.com/petems/fishing-tray/internal/clicker"
	"github.com/petems/fishing-tray/internal/config"
	"github.com/petems/fishing-tray/internal/hotkey"
	"github.com/petems/fishing-tray/internal/logging"
	"github.com/petems/fishing-tray/internal/notify"
	"github.com/petems/fishing-tray/internal/permissions"
	"github.com/petems/fishing-tray/internal/template"
	"github.com/petems/fishing-tray/internal/tray"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// macOS requires explicit microphone + accessibility approval before capture or clicks work
	if err := permissions.EnsurePermissions(); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize loopback capture
	capture, err := audio.New(cfg.Audio, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}
	defer capture.Close()

	// A missing template is not fatal; Start reports it from the tray
	tmplPath := cfg.TemplatePath()
	tmpl, err := template.Load(tmplPath)
	if err != nil {
		log.Error().Err(err).Str("path", tmplPath).Msg("Failed to load splash template")
		tmpl = nil
	} else {
		log.Info().
			Str("path", tmpl.Path).
			Int("sample_rate", tmpl.SampleRate).
			Float64("seconds", tmpl.Duration()).
			Msg("Loaded splash template")
	}

	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(nil, cfg, log, Version, Commit) // App reference set below

	application := app.New(app.Config{
		Audio:         capture,
		Clicker:       clicker.New(cfg.Click),
		Template:      tmpl,
		Notifier:      notify.New(cfg.Notify, log),
		Config:        cfg,
		Logger:        log,
		StatusUpdater: trayUI,
	})

	// Set app reference in tray
	trayUI.SetApp(application)

	// The hotkey is a convenience; the tray menu still works without it
	hkManager, err := hotkey.New()
	switch {
	case errors.Is(err, hotkey.ErrUnsupported):
		log.Warn().Msg("Global hotkey not available on this platform")
	case err != nil:
		log.Warn().Err(err).Msg("Failed to initialize hotkeys")
	default:
		defer hkManager.Close()
		if err := hkManager.Register(cfg.PlatformHotkey(), application.OnHotkey); err != nil {
			log.Warn().Err(err).Str("hotkey", cfg.PlatformHotkey()).Msg("Failed to register hotkey")
		} else {
			log.Info().Str("hotkey", cfg.PlatformHotkey()).Msg("Registered hotkey")
		}
	}

	log.Info().
		Float64("threshold", cfg.Threshold).
		Float64("cooldown", cfg.CooldownSeconds).
		Msg("FishingTray starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		if err := application.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}
