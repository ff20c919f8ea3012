package audio

import (
	"context"
	"errors"
)

// ErrNoDevice is returned when no capture device can be found
var ErrNoDevice = errors.New("no audio capture device found")

// Capture defines the interface for loopback audio capture
type Capture interface {
	// Resolve picks the device Start would use for deviceID without opening it
	Resolve(deviceID string) (AudioDevice, error)
	// Start streams mono chunks to out until ctx is done, then closes out
	Start(ctx context.Context, deviceID string, sampleRate int, out chan<- []float32) error
	Stop() error
	ListDevices() ([]AudioDevice, error)
	Close() error
}

// AudioDevice represents an audio input device
type AudioDevice struct {
	ID       string
	Name     string
	Channels int
	Default  bool
}
