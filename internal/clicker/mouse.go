package clicker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/petems/fishing-tray/internal/config"
)

type mouseClicker struct {
	hold time.Duration
	down func() error
	up   func() error
}

// New creates a left-button clicker backed by robotgo
func New(cfg config.ClickConfig) Clicker {
	return &mouseClicker{
		hold: time.Duration(cfg.HoldMs) * time.Millisecond,
		down: func() error { return robotgo.Toggle("left") },
		up:   func() error { return robotgo.Toggle("left", "up") },
	}
}

// Click holds the button briefly so the game registers it as a real press.
// The button is always released, even when ctx ends during the hold.
func (m *mouseClicker) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.down(); err != nil {
		return fmt.Errorf("mouse down: %w", err)
	}

	timer := time.NewTimer(m.hold)
	defer timer.Stop()

	var waitErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	if err := m.up(); err != nil {
		return fmt.Errorf("mouse up: %w", err)
	}
	return waitErr
}
