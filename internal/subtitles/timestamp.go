package subtitles

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinCueDuration is the display floor applied to cues whose end does not
// come after their start.
const MinCueDuration = 300 * time.Millisecond

// cueBounds converts a segment's offsets to whole milliseconds and applies
// the floor. Rounding happens before the comparison so a 0.4 ms span still
// gets the floor.
func cueBounds(start, end time.Duration) (int64, int64) {
	startMS := toMillis(start)
	endMS := toMillis(end)
	if endMS <= startMS {
		endMS = startMS + MinCueDuration.Milliseconds()
	}
	return startMS, endMS
}

func toMillis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond).Milliseconds()
}

// formatTimestamp renders HH:MM:SS<sep>mmm. Hours grow past two digits
// rather than wrapping.
func formatTimestamp(ms int64, sep byte) string {
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, ms)
}

// parseTimestamp accepts HH:MM:SS.mmm, HH:MM:SS,mmm, and the WebVTT short
// form MM:SS.mmm.
func parseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	main, frac, ok := strings.Cut(strings.Replace(value, ",", ".", 1), ".")
	if !ok || len(frac) == 0 || len(frac) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	parts := strings.Split(main, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	var total int64
	for _, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		total = total*60 + n
	}
	for len(frac) < 3 {
		frac += "0"
	}
	millis, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return time.Duration(total)*time.Second + time.Duration(millis)*time.Millisecond, nil
}
