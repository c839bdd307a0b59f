package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"subgen/internal/services"
)

func writeWAV(t *testing.T, path string, rate, channels int, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
}

func TestReadInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	writeWAV(t, path, SampleRate, 1, make([]int, SampleRate*2))

	info, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo returned error: %v", err)
	}
	if info.SampleRate != SampleRate || info.Channels != 1 || info.BitDepth != 16 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Duration != 2*time.Second {
		t.Fatalf("unexpected duration %v", info.Duration)
	}

	d, err := Duration(path)
	if err != nil || d != 2*time.Second {
		t.Fatalf("Duration: %v %v", d, err)
	}
}

func TestDecodeMonoScalesSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	writeWAV(t, path, SampleRate, 1, []int{0, 16384, -16384, -32768})

	samples, rate, err := DecodeMono(path)
	if err != nil {
		t.Fatalf("DecodeMono returned error: %v", err)
	}
	if rate != SampleRate {
		t.Fatalf("unexpected rate %d", rate)
	}
	want := []float32{0, 0.5, -0.5, -1}
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		if math.Abs(float64(samples[i]-want[i])) > 1e-6 {
			t.Fatalf("sample %d: got %v want %v", i, samples[i], want[i])
		}
	}
}

func TestDecodeMonoAveragesChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, SampleRate, 2, []int{16384, 0, -16384, -16384})

	samples, _, err := DecodeMono(path)
	if err != nil {
		t.Fatalf("DecodeMono returned error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(samples))
	}
	if math.Abs(float64(samples[0]-0.25)) > 1e-6 || math.Abs(float64(samples[1]+0.5)) > 1e-6 {
		t.Fatalf("unexpected downmix %v", samples)
	}
}

func TestReadInfoErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadInfo(filepath.Join(dir, "missing.wav")); !errors.Is(err, services.ErrInputNotFound) {
		t.Fatalf("expected input not found, got %v", err)
	}
	bogus := filepath.Join(dir, "bogus.wav")
	if err := os.WriteFile(bogus, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadInfo(bogus); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected invalid wav error, got %v", err)
	}
	if _, _, err := DecodeMono(bogus); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected invalid wav error, got %v", err)
	}
}
