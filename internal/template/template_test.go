package template

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "splash.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 44100, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: 44100},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMono(t *testing.T) {
	path := writeWAV(t, 1, []int{0, 1000, -2000, 500})

	tmpl, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tmpl.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", tmpl.SampleRate)
	}
	if len(tmpl.Samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(tmpl.Samples))
	}

	want := []float64{0, 0.5, -1, 0.25}
	for i := range want {
		if math.Abs(tmpl.Samples[i]-want[i]) > 1e-6 {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], tmpl.Samples[i])
		}
	}
}

func TestLoadStereoDownmix(t *testing.T) {
	path := writeWAV(t, 2, []int{
		1000, 3000,
		-4000, 0,
		0, 0,
	})

	tmpl, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{1, -1, 0}
	if len(tmpl.Samples) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(tmpl.Samples))
	}
	for i := range want {
		if math.Abs(tmpl.Samples[i]-want[i]) > 1e-6 {
			t.Errorf("frame %d: expected %v, got %v", i, want[i], tmpl.Samples[i])
		}
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, ErrTemplateMissing) {
		t.Fatalf("expected ErrTemplateMissing, got %v", err)
	}
}

func TestLoadNotAWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid WAV")
	}
}

func TestDuration(t *testing.T) {
	tmpl := &Template{Samples: make([]float64, 22050), SampleRate: 44100}
	if d := tmpl.Duration(); d != 0.5 {
		t.Errorf("expected 0.5s, got %v", d)
	}
}
