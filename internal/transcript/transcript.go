// Package transcript holds the recognizer's output: an ordered list of timed
// text segments plus the detected language.
package transcript

import (
	"sort"
	"strings"
	"time"
)

// Segment is one recognized span of speech. End is never before Start once a
// segment has passed through Normalize.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration reports End-Start, or zero for inverted spans.
func (s Segment) Duration() time.Duration {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// Transcript is produced once per media job and consumed once by the writer.
type Transcript struct {
	Segments []Segment
	// Language is the ISO 639-1 code the recognizer detected or was told to
	// use; empty when unknown.
	Language string
}

// Len returns the number of segments.
func (t Transcript) Len() int { return len(t.Segments) }

// Seconds converts a float offset as reported by recognizers into a
// Duration. Negative and NaN inputs become zero.
func Seconds(value float64) time.Duration {
	if !(value > 0) {
		return 0
	}
	return time.Duration(value * float64(time.Second))
}

// Normalize returns a copy with whitespace-only segments removed, text
// trimmed, negative offsets clamped to zero, End raised to Start when it
// precedes it, and segments stably sorted by Start.
func Normalize(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		if seg.Start < 0 {
			seg.Start = 0
		}
		if seg.End < seg.Start {
			seg.End = seg.Start
		}
		out = append(out, seg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}
