//go:build !whispercpp

package recognizer

import (
	"errors"
	"testing"

	"subgen/internal/services"
)

func TestWhisperCPPUnavailableWithoutTag(t *testing.T) {
	_, err := New(Config{Backend: BackendWhisperCPP, ModelPath: "/models/ggml-base.bin"}, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
