package subtitles

import (
	"fmt"
	"path/filepath"
	"strings"

	"subgen/internal/services"
)

// ContainerPlan says how a source file is muxed with a new SubRip track.
type ContainerPlan struct {
	// Extension of the output file: ".mkv" or ".mka".
	Extension string
	// Maps are the ffmpeg stream selectors taken from the source.
	Maps []string
	// KeepSubtitles is false when the source's subtitle streams are dropped.
	KeepSubtitles bool
	// ConvertSubtitles re-encodes kept subtitle streams to SubRip because
	// their codec cannot live in Matroska (MP4 mov_text).
	ConvertSubtitles bool
}

// Audio-only plans still map 0:v? so cover art (attached_pic) survives;
// the Matroska muxer stores it as an attachment.
var (
	videoMaps     = []string{"0:v?", "0:a?", "0:s?", "0:t?"}
	audioMaps     = []string{"0:a", "0:v?", "0:s?", "0:t?"}
	audioOnlyMaps = []string{"0:a", "0:v?", "0:t?"}
)

type containerFamily int

const (
	familyMatroska containerFamily = iota
	familyMP4
	familyOtherVideo
	familyMatroskaAudio
	familyAudio
)

var containerFamilies = map[string]containerFamily{
	".mkv":  familyMatroska,
	".webm": familyMatroska,
	".mp4":  familyMP4,
	".m4v":  familyMP4,
	".mov":  familyMP4,
	".3gp":  familyMP4,
	".avi":  familyOtherVideo,
	".ts":   familyOtherVideo,
	".m2ts": familyOtherVideo,
	".mts":  familyOtherVideo,
	".mpg":  familyOtherVideo,
	".mpeg": familyOtherVideo,
	".wmv":  familyOtherVideo,
	".flv":  familyOtherVideo,
	".mka":  familyMatroskaAudio,
	".mp3":  familyAudio,
	".m4a":  familyAudio,
	".aac":  familyAudio,
	".flac": familyAudio,
	".wav":  familyAudio,
	".ogg":  familyAudio,
	".oga":  familyAudio,
	".opus": familyAudio,
	".wma":  familyAudio,
}

// SupportedContainer reports whether PlanContainer accepts the extension.
func SupportedContainer(path string) bool {
	_, ok := containerFamilies[strings.ToLower(filepath.Ext(path))]
	return ok
}

// PlanContainer maps a source file to its output container. Every supported
// source lands in Matroska because it carries SubRip natively; sources
// without video use the audio-only .mka form. Unknown extensions fail with
// ErrUnsupportedContainer instead of guessing.
func PlanContainer(source string, hasVideo bool) (ContainerPlan, error) {
	ext := strings.ToLower(filepath.Ext(source))
	family, ok := containerFamilies[ext]
	if !ok {
		return ContainerPlan{}, services.Wrap(services.ErrUnsupportedContainer, "muxer", "plan container",
			fmt.Sprintf("%s: no muxing plan for %q", filepath.Base(source), ext), nil)
	}

	var plan ContainerPlan
	switch family {
	case familyMatroska, familyOtherVideo:
		plan = ContainerPlan{Extension: ".mkv", Maps: videoMaps, KeepSubtitles: true}
	case familyMP4:
		plan = ContainerPlan{Extension: ".mkv", Maps: videoMaps, KeepSubtitles: true, ConvertSubtitles: true}
	case familyMatroskaAudio:
		plan = ContainerPlan{Extension: ".mka", Maps: audioMaps, KeepSubtitles: true}
	case familyAudio:
		plan = ContainerPlan{Extension: ".mka", Maps: audioOnlyMaps}
	}

	if plan.Extension == ".mkv" && !hasVideo {
		plan.Extension = ".mka"
		plan.Maps = audioMaps
		if family != familyMP4 {
			plan.ConvertSubtitles = false
		}
	}
	plan.Maps = append([]string(nil), plan.Maps...)
	return plan, nil
}

// MuxOutputPath returns <dir>/<stem>.subtitled<ext> for source.
func MuxOutputPath(source, outputDir string, plan ContainerPlan) string {
	return siblingPath(source, outputDir, ".subtitled", plan.Extension)
}
