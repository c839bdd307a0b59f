package pipeline

import (
	"fmt"
	"strings"
	"time"

	"subgen/internal/services"
)

// FormatClock renders d as HH:MM:SS.mmm.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// StatusLine renders the one-line per-file report.
func StatusLine(r Result) string {
	switch r.Status {
	case StatusSkipped:
		return fmt.Sprintf("skip  %s (exists: %s)", r.Source, r.OutputPath)
	case StatusFailed:
		return fmt.Sprintf("FAIL  %s [%s] %v", r.Source, services.Kind(r.Err), r.Err)
	case StatusInterrupted:
		return fmt.Sprintf("stop  %s (interrupted)", r.Source)
	}
	parts := []string{
		fmt.Sprintf("ok    %s -> %s", r.Source, r.OutputPath),
		fmt.Sprintf("%d segments", r.Segments),
	}
	if r.Language != "" {
		parts = append(parts, "lang "+r.Language)
	}
	if r.AudioLength > 0 {
		parts = append(parts, "audio "+FormatClock(r.AudioLength))
	}
	parts = append(parts, "took "+FormatClock(r.Elapsed))
	if ratio := r.SpeedRatio(); ratio > 0 {
		parts = append(parts, fmt.Sprintf("%.2fx", ratio))
	}
	return strings.Join(parts, ", ")
}

// SummaryLine renders the final batch count.
func SummaryLine(s Summary) string {
	line := fmt.Sprintf("%d succeeded, %d skipped, %d failed", s.Succeeded, s.Skipped, s.Failed)
	if s.Interrupted > 0 {
		line += fmt.Sprintf(", %d not processed", s.Interrupted)
	}
	return line
}
