package clicker

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recorder struct {
	events []string
	downAt time.Time
	upAt   time.Time
	err    error
}

func (r *recorder) clicker(hold time.Duration) *mouseClicker {
	return &mouseClicker{
		hold: hold,
		down: func() error {
			r.events = append(r.events, "down")
			r.downAt = time.Now()
			return r.err
		},
		up: func() error {
			r.events = append(r.events, "up")
			r.upAt = time.Now()
			return nil
		},
	}
}

func TestClickHoldsButton(t *testing.T) {
	rec := &recorder{}
	c := rec.clicker(50 * time.Millisecond)

	if err := c.Click(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.events) != 2 || rec.events[0] != "down" || rec.events[1] != "up" {
		t.Fatalf("expected down/up, got %v", rec.events)
	}
	if held := rec.upAt.Sub(rec.downAt); held < 50*time.Millisecond {
		t.Errorf("button held for %v, expected at least 50ms", held)
	}
}

func TestClickReleasesOnCancel(t *testing.T) {
	rec := &recorder{}
	c := rec.clicker(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Click(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if len(rec.events) != 2 || rec.events[1] != "up" {
		t.Errorf("button must be released after cancel, got %v", rec.events)
	}
}

func TestClickCancelledBeforePress(t *testing.T) {
	rec := &recorder{}
	c := rec.clicker(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Click(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancel error, got %v", err)
	}
	if len(rec.events) != 0 {
		t.Errorf("expected no input events, got %v", rec.events)
	}
}

func TestClickDownFailure(t *testing.T) {
	rec := &recorder{err: errors.New("no display")}
	c := rec.clicker(time.Millisecond)

	if err := c.Click(context.Background()); err == nil {
		t.Fatal("expected error when mouse down fails")
	}
	if len(rec.events) != 1 {
		t.Errorf("expected only the failed press, got %v", rec.events)
	}
}
