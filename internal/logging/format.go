package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const maxErrorLen = 240

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// renderValue formats a console field value. Outside verbose mode values are
// humanized: sizes, durations, booleans, and uuid job IDs get short forms.
func renderValue(key string, v slog.Value, verbose bool) string {
	s := plainString(v)
	if !verbose {
		s = humanValue(key, v, s)
	}
	if quoteNeeded(s) {
		return strconv.Quote(s)
	}
	return s
}

func humanValue(key string, v slog.Value, fallback string) string {
	switch {
	case key == FieldJobID:
		if short, _, ok := strings.Cut(fallback, "-"); ok {
			return short
		}
	case strings.HasSuffix(key, "_bytes") || key == "size":
		switch v.Kind() {
		case slog.KindInt64:
			if v.Int64() >= 0 {
				return humanize.IBytes(uint64(v.Int64()))
			}
		case slog.KindUint64:
			return humanize.IBytes(v.Uint64())
		}
	case v.Kind() == slog.KindDuration:
		return roundDuration(v.Duration())
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case key == "error":
		if len(fallback) > maxErrorLen {
			return fallback[:maxErrorLen] + "…"
		}
	}
	return fallback
}

func roundDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

// plainString renders a value without quoting.
func plainString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return strings.TrimSpace(v.String())
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		switch val := v.Any().(type) {
		case error:
			return val.Error()
		case []string:
			return strings.Join(val, " ")
		default:
			return fmt.Sprint(val)
		}
	default:
		return v.String()
	}
}

func quoteNeeded(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '"' || r == '='
	})
}
