package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"subgen/internal/language"
	"subgen/internal/logging"
	"subgen/internal/media/ffmpeg"
	"subgen/internal/services"
	"subgen/internal/transcript"
)

// Remuxer performs the stream-copy mux. *ffmpeg.Client satisfies it.
type Remuxer interface {
	Remux(ctx context.Context, req ffmpeg.RemuxRequest) error
}

// MuxRequest describes the inputs for subtitle muxing.
type MuxRequest struct {
	Source     string
	Transcript transcript.Transcript
	// Language overrides the transcript's detected language for track tags.
	Language string
	// HasVideo and SubtitleStreams come from probing the source.
	HasVideo        bool
	SubtitleStreams int
	// OutputPath is the final container path, normally from MuxOutputPath
	// after conflict resolution.
	OutputPath string
	// WorkDir holds the intermediate .srt file.
	WorkDir string
}

// MuxResult reports the outcome of subtitle muxing.
type MuxResult struct {
	OutputPath string
	Plan       ContainerPlan
	Cues       int
}

// Muxer embeds a generated SubRip track into a Matroska container.
type Muxer struct {
	logger  *slog.Logger
	remuxer Remuxer
}

// NewMuxer constructs a subtitle muxer.
func NewMuxer(remuxer Remuxer, logger *slog.Logger) *Muxer {
	return &Muxer{
		logger:  logging.NewComponentLogger(logger, "muxer"),
		remuxer: remuxer,
	}
}

// Mux writes the transcript as SubRip into req.WorkDir, then remuxes the
// source plus that track into a temp file beside req.OutputPath and
// publishes it only when ffmpeg succeeds. The source is never modified.
func (m *Muxer) Mux(ctx context.Context, req MuxRequest) (MuxResult, error) {
	if m == nil || m.remuxer == nil {
		return MuxResult{}, services.Wrap(services.ErrConfiguration, "muxer", "mux", "muxer not initialized", nil)
	}
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.OutputPath) == "" {
		return MuxResult{}, services.Wrap(services.ErrValidation, "muxer", "mux", "source and output paths are required", nil)
	}

	plan, err := PlanContainer(req.Source, req.HasVideo)
	if err != nil {
		return MuxResult{}, err
	}
	if !strings.EqualFold(filepath.Ext(req.OutputPath), plan.Extension) {
		return MuxResult{}, services.Wrap(services.ErrValidation, "muxer", "mux",
			fmt.Sprintf("output %s does not match planned container %s", req.OutputPath, plan.Extension), nil)
	}

	data, err := Render(FormatSRT, req.Transcript.Segments)
	if err != nil {
		return MuxResult{}, err
	}
	workDir := req.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	srtPath := filepath.Join(workDir, "track.srt")
	if err := os.WriteFile(srtPath, data, 0o644); err != nil {
		return MuxResult{}, services.Wrap(services.ErrOutputWrite, "muxer", "write track", srtPath, err)
	}
	defer os.Remove(srtPath)

	tmp, err := createTemp(req.OutputPath)
	if err != nil {
		return MuxResult{}, err
	}
	tmpPath := tmp.Name()
	tmp.Close()

	lang := req.Language
	if lang == "" {
		lang = req.Transcript.Language
	}
	subtitleIndex := 0
	if plan.KeepSubtitles {
		subtitleIndex = req.SubtitleStreams
	}
	remux := ffmpeg.RemuxRequest{
		Source:           req.Source,
		Subtitle:         srtPath,
		Output:           tmpPath,
		Maps:             plan.Maps,
		SubtitleIndex:    subtitleIndex,
		ConvertSubtitles: plan.ConvertSubtitles,
		Language:         language.ToISO3(lang),
		Title:            buildTrackName(lang),
		Default:          subtitleIndex == 0,
	}

	m.logger.Debug("muxing subtitle track",
		logging.String("source", req.Source),
		logging.String("container", plan.Extension),
		logging.Int("existing_subtitles", subtitleIndex),
		logging.String("language", remux.Language),
	)

	if err := m.remuxer.Remux(ctx, remux); err != nil {
		os.Remove(tmpPath)
		return MuxResult{}, err
	}
	if info, err := os.Stat(tmpPath); err != nil || info.Size() == 0 {
		os.Remove(tmpPath)
		return MuxResult{}, services.Wrap(services.ErrExternalTool, "muxer", "verify", "remux produced no output", err)
	}
	if err := publish(tmpPath, req.OutputPath); err != nil {
		return MuxResult{}, err
	}

	m.logger.Info("subtitle track muxed",
		logging.String(logging.FieldEventType, "subtitle_mux_complete"),
		logging.String("output", req.OutputPath),
		logging.String("container", plan.Extension),
		logging.Int("segments", len(req.Transcript.Segments)),
	)

	return MuxResult{OutputPath: req.OutputPath, Plan: plan, Cues: len(req.Transcript.Segments)}, nil
}

// buildTrackName creates a human-readable track name.
func buildTrackName(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return "Transcribed"
	}
	return language.DisplayName(lang) + " (Transcribed)"
}
