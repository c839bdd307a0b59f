package services_test

import (
	"errors"
	"strings"
	"testing"

	"subgen/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "ffmpeg", "extract", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ffmpeg", "extract", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToExternalTool(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		marker error
		want   string
	}{
		{services.ErrInputNotFound, "input"},
		{services.ErrExternalTool, "tool"},
		{services.ErrRecognition, "recognition"},
		{services.ErrOutputWrite, "output"},
		{services.ErrOutputConflict, "conflict"},
		{services.ErrUnsupportedContainer, "container"},
		{services.ErrConfiguration, "config"},
		{services.ErrValidation, "validation"},
	}
	for _, tc := range tests {
		err := services.Wrap(tc.marker, "c", "op", "msg", nil)
		if got := services.Kind(err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.marker, got, tc.want)
		}
	}
	if got := services.Kind(errors.New("plain")); got != "error" {
		t.Fatalf("Kind(plain) = %q", got)
	}
	if got := services.Kind(nil); got != "" {
		t.Fatalf("Kind(nil) = %q", got)
	}
}
