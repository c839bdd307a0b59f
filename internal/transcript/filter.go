package transcript

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Removal reasons reported by FilterHallucinations.
const (
	ReasonIsolated = "isolated_hallucination"
	ReasonRepeated = "repeated_hallucination"
	ReasonMusic    = "music_symbols"
	ReasonTrailing = "trailing_hallucination"
	ReasonTrailMus = "trailing_music"
)

const (
	isolationGap   = 30 * time.Second
	repeatGap      = 10 * time.Second
	minRepeatRun   = 3
	trailingWindow = 5 * time.Minute
)

// Removal records one segment dropped by FilterHallucinations.
type Removal struct {
	Segment Segment
	Reason  string
}

// FilterResult holds the surviving segments and everything removed.
type FilterResult struct {
	Segments []Segment
	Removals []Removal
}

// Phrases Whisper-family models emit over silence and credits music.
var hallucinationPhrases = map[string]bool{
	"thank you":                           true,
	"thank you for watching":              true,
	"thanks for watching":                 true,
	"please subscribe":                    true,
	"like and subscribe":                  true,
	"well be right back":                  true,
	"bye":                                 true,
	"bye bye":                             true,
	"see you next time":                   true,
	"see you later":                       true,
	"subtitles by the amaraorg community": true,
}

// FilterHallucinations drops recognizer artifacts from segments, which must
// already be in start order. The first pass removes isolated stock phrases,
// runs of three or more identical widely spaced segments, and isolated
// music-symbol segments. The second pass, only for media longer than ten
// minutes, removes stock phrases and music symbols from the final five
// minutes without requiring isolation. mediaLength may be zero when unknown.
func FilterHallucinations(segments []Segment, mediaLength time.Duration) FilterResult {
	remaining, removals := removeIsolated(segments)
	remaining, trailing := sweepTrailing(remaining, mediaLength)
	return FilterResult{Segments: remaining, Removals: append(removals, trailing...)}
}

func removeIsolated(segments []Segment) ([]Segment, []Removal) {
	if len(segments) == 0 {
		return segments, nil
	}
	remove := make([]bool, len(segments))
	var removals []Removal

	markRepeated(segments, remove, &removals)

	for i := range segments {
		if remove[i] {
			continue
		}
		isolated := gapBefore(segments, i) >= isolationGap && gapAfter(segments, i) >= isolationGap
		if !isolated {
			continue
		}
		switch {
		case hallucinationPhrases[foldText(segments[i].Text)]:
			remove[i] = true
			removals = append(removals, Removal{Segment: segments[i], Reason: ReasonIsolated})
		case isMusicOnly(segments[i].Text):
			remove[i] = true
			removals = append(removals, Removal{Segment: segments[i], Reason: ReasonMusic})
		}
	}

	kept := make([]Segment, 0, len(segments))
	for i, seg := range segments {
		if !remove[i] {
			kept = append(kept, seg)
		}
	}
	return kept, removals
}

func markRepeated(segments []Segment, remove []bool, removals *[]Removal) {
	i := 0
	for i < len(segments) {
		norm := foldText(segments[i].Text)
		if norm == "" {
			i++
			continue
		}
		end := i + 1
		for end < len(segments) {
			if foldText(segments[end].Text) != norm {
				break
			}
			if segments[end].Start-segments[end-1].End <= repeatGap {
				break
			}
			end++
		}
		if end-i >= minRepeatRun {
			for j := i; j < end; j++ {
				remove[j] = true
				*removals = append(*removals, Removal{Segment: segments[j], Reason: ReasonRepeated})
			}
		}
		i = end
	}
}

func gapBefore(segments []Segment, i int) time.Duration {
	if i == 0 {
		return segments[i].Start
	}
	return segments[i].Start - segments[i-1].End
}

func gapAfter(segments []Segment, i int) time.Duration {
	if i >= len(segments)-1 {
		return time.Duration(1<<63 - 1)
	}
	return segments[i+1].Start - segments[i].End
}

func sweepTrailing(segments []Segment, mediaLength time.Duration) ([]Segment, []Removal) {
	if mediaLength < 2*trailingWindow || len(segments) == 0 {
		return segments, nil
	}
	threshold := mediaLength - trailingWindow

	var removals []Removal
	kept := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Start < threshold {
			kept = append(kept, seg)
			continue
		}
		switch {
		case hallucinationPhrases[foldText(seg.Text)]:
			removals = append(removals, Removal{Segment: seg, Reason: ReasonTrailing})
		case isMusicOnly(seg.Text):
			removals = append(removals, Removal{Segment: seg, Reason: ReasonTrailMus})
		default:
			kept = append(kept, seg)
		}
	}
	return kept, removals
}

// isMusicOnly reports whether text consists only of music notation
// (¶ ♪ ♫ *) and whitespace.
func isMusicOnly(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, r := range text {
		switch {
		case r == '¶', r == '♪', r == '♫', r == '*':
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return true
}

var punctuationRe = regexp.MustCompile(`[^a-z0-9\s]`)

// foldText lowercases text and strips punctuation for phrase matching.
func foldText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = punctuationRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
