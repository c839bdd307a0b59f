package subtitles

import (
	"fmt"
	"strings"

	"subgen/internal/services"
)

// Format identifies a subtitle document format.
type Format string

const (
	FormatVTT Format = "vtt"
	FormatSRT Format = "srt"
)

// ParseFormat accepts "vtt", "webvtt", "srt", or "subrip" (case-insensitive,
// optional leading dot).
func ParseFormat(value string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".") {
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "srt", "subrip":
		return FormatSRT, nil
	default:
		return "", services.Wrap(services.ErrValidation, "subtitles", "parse format", fmt.Sprintf("unsupported format %q", value), nil)
	}
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) String() string { return string(f) }
