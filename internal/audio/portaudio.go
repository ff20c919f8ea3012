package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/petems/fishing-tray/internal/config"
)

const framesPerBuffer = 1024 // ~23ms at 44.1kHz

// inputStream is the part of *portaudio.Stream the read loop drives
type inputStream interface {
	Read() error
	Stop() error
	Close() error
}

type portAudioCapture struct {
	cfg config.AudioConfig
	log zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new PortAudio-based loopback capture
func New(cfg config.AudioConfig, log zerolog.Logger) (Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioCapture{cfg: cfg, log: log}, nil
}

func (p *portAudioCapture) Resolve(deviceID string) (AudioDevice, error) {
	_, dev, err := p.findDevice(deviceID)
	return dev, err
}

func (p *portAudioCapture) findDevice(deviceID string) (*portaudio.DeviceInfo, AudioDevice, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, AudioDevice{}, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	var speaker string
	if out, err := portaudio.DefaultOutputDevice(); err == nil && out != nil {
		speaker = out.Name
	}

	devices := toDevices(infos)
	dev, ok := selectLoopback(devices, deviceID, speaker, p.cfg.LoopbackKeywords)
	if !ok {
		return nil, AudioDevice{}, ErrNoDevice
	}

	for _, info := range infos {
		if info.Name == dev.ID {
			return info, dev, nil
		}
	}
	return nil, AudioDevice{}, ErrNoDevice
}

func (p *portAudioCapture) Start(ctx context.Context, deviceID string, sampleRate int, out chan<- []float32) error {
	info, dev, err := p.findDevice(deviceID)
	if err != nil {
		return err
	}

	channels := dev.Channels
	if channels > 2 {
		channels = 2
	}

	// Interleaved float32 buffer, downmixed to mono after each read
	buffer := make([]float32, framesPerBuffer*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}, buffer)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	p.log.Info().
		Str("device", dev.Name).
		Int("channels", channels).
		Int("sample_rate", sampleRate).
		Msg("Audio capture started")

	p.launch(ctx, stream, buffer, channels, out)
	return nil
}

// launch starts the read loop and records how to stop it
func (p *portAudioCapture) launch(ctx context.Context, s inputStream, buffer []float32, channels int, out chan<- []float32) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.readLoop(ctx, s, buffer, channels, out, done)
}

// readLoop owns the stream: it is the only caller of Read, Stop and Close
func (p *portAudioCapture) readLoop(ctx context.Context, s inputStream, buffer []float32, channels int, out chan<- []float32, done chan struct{}) {
	defer close(done)
	defer close(out)
	defer func() {
		s.Stop()
		s.Close()
	}()

	frames := len(buffer) / channels
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				p.log.Debug().Msg("Audio input overflowed")
				continue
			}
			if ctx.Err() == nil {
				p.log.Error().Err(err).Msg("Audio read failed")
			}
			return
		}

		samples := downmixInterleaved(buffer, channels, frames)

		select {
		case out <- samples:
		case <-ctx.Done():
			return
		default:
			// Drop if channel full (backpressure)
		}
	}
}

// Stop ends the read loop and waits until the stream is closed
func (p *portAudioCapture) Stop() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (p *portAudioCapture) ListDevices() ([]AudioDevice, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return toDevices(infos), nil
}

// Close waits for the read loop before terminating PortAudio
func (p *portAudioCapture) Close() error {
	p.Stop()
	return portaudio.Terminate()
}

func toDevices(infos []*portaudio.DeviceInfo) []AudioDevice {
	defaultDevice, _ := portaudio.DefaultInputDevice()

	result := make([]AudioDevice, 0, len(infos))
	for _, d := range infos {
		if d.MaxInputChannels > 0 {
			result = append(result, AudioDevice{
				ID:       d.Name,
				Name:     d.Name,
				Channels: d.MaxInputChannels,
				Default:  d == defaultDevice,
			})
		}
	}
	return result
}

// Host API aliases that name a routing point rather than hardware. Under
// ALSA the default output is "default", which would match the microphone.
var genericAliases = map[string]bool{
	"default":    true,
	"sysdefault": true,
	"pulse":      true,
	"pipewire":   true,
	"dmix":       true,
}

// selectLoopback chooses the capture device: the preferred one by name,
// then one that mirrors the speaker or looks like a loopback, then the
// default input.
func selectLoopback(devices []AudioDevice, preferred, speaker string, keywords []string) (AudioDevice, bool) {
	if preferred != "" {
		for _, d := range devices {
			if d.ID == preferred {
				return d, true
			}
		}
	}

	speaker = strings.ToLower(speaker)
	if genericAliases[speaker] {
		speaker = ""
	}

	for _, d := range devices {
		name := strings.ToLower(d.Name)
		if speaker != "" && strings.Contains(name, speaker) {
			return d, true
		}
		for _, kw := range keywords {
			if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
				return d, true
			}
		}
	}

	for _, d := range devices {
		if d.Default {
			return d, true
		}
	}
	return AudioDevice{}, false
}

// downmixInterleaved averages interleaved channels into a fresh mono slice
func downmixInterleaved(input []float32, channels, frames int) []float32 {
	out := make([]float32, frames)
	if channels <= 1 {
		copy(out, input)
		return out
	}

	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += input[i*channels+ch]
		}
		out[i] = sum / float32(channels)
	}
	return out
}
