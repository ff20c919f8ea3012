// Package template loads the reference splash sound.
package template

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/petems/fishing-tray/internal/detect"
)

// ErrTemplateMissing is returned when the template file does not exist
var ErrTemplateMissing = errors.New("splash template not found")

// Template is a mono, peak-normalized reference waveform
type Template struct {
	Path       string
	Samples    []float64
	SampleRate int
}

// Duration returns the template length in seconds
func (t *Template) Duration() float64 {
	if t.SampleRate == 0 {
		return 0
	}
	return float64(len(t.Samples)) / float64(t.SampleRate)
}

// Load reads a PCM WAV file, averages its channels and normalizes by peak
func Load(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, path)
		}
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}

	samples := Downmix(buf)
	if len(samples) == 0 {
		return nil, fmt.Errorf("template has no audio data: %s", path)
	}

	return &Template{
		Path:       path,
		Samples:    detect.Normalize(samples),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

// Downmix averages interleaved channels into a mono float slice.
// Absolute scale is irrelevant since the result gets peak-normalized.
func Downmix(buf *audio.IntBuffer) []float64 {
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 1 {
		channels = buf.Format.NumChannels
	}

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		out[i] = sum / float64(channels)
	}
	return out
}
