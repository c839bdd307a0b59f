//go:build !whispercpp

package recognizer

import (
	"log/slog"

	"subgen/internal/services"
)

// NewWhisperCPP reports that this binary was built without whisper.cpp.
func NewWhisperCPP(Config, *slog.Logger) (Engine, error) {
	return nil, services.Wrap(services.ErrConfiguration, "whispercpp", "init",
		"built without whisper.cpp support; rebuild with -tags whispercpp", nil)
}
