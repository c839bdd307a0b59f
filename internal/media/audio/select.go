package audio

import (
	"strconv"
	"strings"

	"subgen/internal/language"
	"subgen/internal/media/ffprobe"
)

// Selection identifies the audio stream handed to the extractor.
type Selection struct {
	Stream ffprobe.Stream
	// Position is the stream's index among audio streams, as used by the
	// ffmpeg selector 0:a:N. It is -1 when no audio stream exists.
	Position int
	// LanguageMatched reports whether the hint decided the choice.
	LanguageMatched bool
}

// Found reports whether an audio stream was selected.
func (s Selection) Found() bool {
	return s.Position >= 0
}

// Label returns a human-readable summary of the selected stream.
func (s Selection) Label() string {
	if !s.Found() {
		return ""
	}
	return formatStreamSummary(s.Stream)
}

// Select returns the audio stream most likely to carry the main dialogue.
// When hint names a language, streams tagged with that language are
// preferred; otherwise every stream competes. Ties go to the earliest track.
func Select(streams []ffprobe.Stream, hint string) Selection {
	candidates := buildCandidates(streams)
	if len(candidates) == 0 {
		return Selection{Position: -1}
	}

	pool := candidates
	matched := false
	if want := language.ToISO2(hint); want != "" {
		if byLang := candidates.withLanguage(want); len(byLang) > 0 {
			pool = byLang
			matched = true
		}
	}

	best := choosePrimary(pool)
	return Selection{
		Stream:          best.stream,
		Position:        best.order,
		LanguageMatched: matched,
	}
}

// candidate captures the derived metadata used for ranking.
type candidate struct {
	stream         ffprobe.Stream
	order          int
	language       string
	title          string
	channels       int
	defaultFlagged bool
	commentary     bool
}

type candidateList []candidate

func (c candidateList) withLanguage(iso2 string) candidateList {
	result := make(candidateList, 0, len(c))
	for _, cand := range c {
		if cand.language == iso2 {
			result = append(result, cand)
		}
	}
	return result
}

func choosePrimary(candidates candidateList) candidate {
	best := candidates[0]
	bestScore := scorePrimary(best)
	for i := 1; i < len(candidates); i++ {
		score := scorePrimary(candidates[i])
		if score > bestScore {
			best = candidates[i]
			bestScore = score
		}
	}
	return best
}

func scorePrimary(cand candidate) float64 {
	score := 0.0

	// Commentary talks over the film; the recognizer would transcribe the
	// wrong voices.
	if !cand.commentary {
		score += 1000
	}
	if cand.defaultFlagged {
		score += 100
	}
	// Any real channel layout beats an unknown one; beyond that the
	// recognizer downmixes to mono anyway.
	if cand.channels > 0 {
		score += 10
	}

	score -= float64(cand.order) * 0.1
	return score
}

func buildCandidates(streams []ffprobe.Stream) candidateList {
	result := make(candidateList, 0)
	order := 0
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		title := strings.ToLower(stream.Title())
		if title == "" {
			title = strings.ToLower(stream.Tag("handler_name"))
		}
		result = append(result, candidate{
			stream:         stream,
			order:          order,
			language:       language.ToISO2(stream.Language()),
			title:          title,
			channels:       channelCount(stream),
			defaultFlagged: stream.Disposition.Default == 1,
			commentary:     isCommentary(title),
		})
		order++
	}
	return result
}

func isCommentary(title string) bool {
	for _, keyword := range []string{"commentary", "director", "audio description", "descriptive"} {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

func channelCount(stream ffprobe.Stream) int {
	if stream.Channels > 0 {
		return stream.Channels
	}
	layout := strings.ToLower(strings.TrimSpace(stream.ChannelLayout))
	switch {
	case layout == "":
		return 0
	case layout == "mono":
		return 1
	case layout == "stereo":
		return 2
	case strings.HasPrefix(layout, "7.1"):
		return 8
	case strings.HasPrefix(layout, "5.1"):
		return 6
	}
	total := 0
	for _, part := range strings.Split(layout, ".") {
		part = strings.Trim(part, "abcdefghijklmnopqrstuvwxyz ()")
		if n, err := strconv.Atoi(part); err == nil {
			total += n
		}
	}
	return total
}

func formatStreamSummary(stream ffprobe.Stream) string {
	parts := make([]string, 0, 4)
	if lang := stream.Language(); lang != "" {
		parts = append(parts, strings.ToLower(lang))
	}
	codec := stream.CodecLong
	if codec == "" {
		codec = stream.CodecName
	}
	if codec != "" {
		parts = append(parts, codec)
	}
	if stream.Channels > 0 {
		parts = append(parts, strconv.Itoa(stream.Channels)+"ch")
	}
	if title := stream.Title(); title != "" {
		parts = append(parts, title)
	}
	if len(parts) == 0 {
		return "audio"
	}
	return strings.Join(parts, " | ")
}
