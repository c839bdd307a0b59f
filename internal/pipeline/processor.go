package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"subgen/internal/logging"
	"subgen/internal/media/audio"
	"subgen/internal/media/ffmpeg"
	"subgen/internal/media/ffprobe"
	"subgen/internal/recognizer"
	"subgen/internal/services"
	"subgen/internal/subtitles"
	"subgen/internal/transcript"
)

// Output modes.
const (
	ModeSubtitle = "subtitle"
	ModeMux      = "mux"
)

// Prober inspects media streams. *ffprobe.Prober satisfies it.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// AudioExtractor runs the transcoder. *ffmpeg.Client satisfies it.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, source, dest string, track int) error
	Remux(ctx context.Context, req ffmpeg.RemuxRequest) error
}

// Options is the explicit per-run configuration. Nothing else is shared
// between jobs.
type Options struct {
	Mode       string
	Format     subtitles.Format
	OnConflict subtitles.ConflictPolicy
	// OutputDir overrides writing next to each input.
	OutputDir string
	// WorkDir is the parent of per-job scratch directories.
	WorkDir string
	// Language is the recognizer hint; empty means detect.
	Language string
}

func (o Options) validate() error {
	switch o.Mode {
	case ModeSubtitle, ModeMux:
	default:
		return services.Wrap(services.ErrConfiguration, "pipeline", "options", fmt.Sprintf("unsupported mode %q", o.Mode), nil)
	}
	if o.Mode == ModeSubtitle {
		if _, err := subtitles.ParseFormat(string(o.Format)); err != nil {
			return err
		}
	}
	if _, err := subtitles.ParseConflictPolicy(string(o.OnConflict)); err != nil {
		return err
	}
	return nil
}

// Status is the terminal state of a job.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"

	// StatusInterrupted marks a job aborted by cancellation.
	StatusInterrupted Status = "interrupted"
)

// Result reports one processed input.
type Result struct {
	Source     string
	JobID      string
	Status     Status
	OutputPath string
	Segments   int
	Language   string
	// AudioLength is the extracted audio duration.
	AudioLength time.Duration
	Elapsed     time.Duration
	Err         error
}

// SpeedRatio is audio length over wall time; 0 when either is unknown.
func (r Result) SpeedRatio() float64 {
	if r.AudioLength <= 0 || r.Elapsed <= 0 {
		return 0
	}
	return r.AudioLength.Seconds() / r.Elapsed.Seconds()
}

// Processor runs media jobs one at a time.
type Processor struct {
	opts       Options
	prober     Prober
	extractor  AudioExtractor
	recognizer recognizer.Engine
	muxer      *subtitles.Muxer
	logger     *slog.Logger
	now        func() time.Time
}

// NewProcessor wires the collaborators. It fails when options are invalid.
func NewProcessor(opts Options, prober Prober, extractor AudioExtractor, engine recognizer.Engine, logger *slog.Logger) (*Processor, error) {
	if opts.OnConflict == "" {
		opts.OnConflict = subtitles.ConflictSkip
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if prober == nil || extractor == nil || engine == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "prober, extractor, and recognizer are required", nil)
	}
	return &Processor{
		opts:       opts,
		prober:     prober,
		extractor:  extractor,
		recognizer: engine,
		muxer:      subtitles.NewMuxer(extractor, logger),
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		now:        time.Now,
	}, nil
}

// Options returns the processor's configuration.
func (p *Processor) Options() Options { return p.opts }

// Process runs one input to completion or failure. The job's work directory
// is removed before it returns.
func (p *Processor) Process(ctx context.Context, source string) Result {
	job := newJob(source)
	ctx = services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, p.logger)
	started := p.now()

	result := Result{Source: source, JobID: job.ID}
	finish := func(status Status, err error) Result {
		if status == StatusFailed && ctx.Err() != nil {
			status = StatusInterrupted
		}
		result.Status = status
		result.Err = err
		result.Elapsed = p.now().Sub(started)
		return result
	}

	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source", source),
		logging.String("mode", p.opts.Mode),
	)

	if err := validateInput(source); err != nil {
		return finish(StatusFailed, p.logFailure(logger, source, err))
	}

	if p.opts.Mode == ModeMux {
		if _, err := subtitles.PlanContainer(source, true); err != nil {
			return finish(StatusFailed, p.logFailure(logger, source, err))
		}
	}

	// Subtitle paths depend only on the input name, so a skip costs nothing.
	if p.opts.Mode == ModeSubtitle {
		candidate := subtitles.SubtitlePath(source, p.opts.OutputDir, p.opts.Format)
		path, skip, err := subtitles.ResolveOutputPath(candidate, p.opts.OnConflict)
		if err != nil {
			return finish(StatusFailed, p.logFailure(logger, source, err))
		}
		if skip {
			result.OutputPath = path
			p.logSkip(logger, source, path)
			return finish(StatusSkipped, nil)
		}
		job.OutputPath = path
	}

	probe, err := p.prober.Inspect(services.WithStage(ctx, "probe"), source)
	if err != nil {
		return finish(StatusFailed, p.logFailure(logger, source, err))
	}
	if !probe.HasAudio() {
		err := services.Wrap(services.ErrInputNotFound, "pipeline", "probe", source+": no audio stream", nil)
		return finish(StatusFailed, p.logFailure(logger, source, err))
	}

	var plan subtitles.ContainerPlan
	if p.opts.Mode == ModeMux {
		plan, err = subtitles.PlanContainer(source, probe.HasVideo())
		if err != nil {
			return finish(StatusFailed, p.logFailure(logger, source, err))
		}
		candidate := subtitles.MuxOutputPath(source, p.opts.OutputDir, plan)
		path, skip, err := subtitles.ResolveOutputPath(candidate, p.opts.OnConflict)
		if err != nil {
			return finish(StatusFailed, p.logFailure(logger, source, err))
		}
		if skip {
			result.OutputPath = path
			p.logSkip(logger, source, path)
			return finish(StatusSkipped, nil)
		}
		job.OutputPath = path
	}

	if err := job.createWorkDir(p.opts.WorkDir); err != nil {
		return finish(StatusFailed, p.logFailure(logger, source, err))
	}
	defer job.removeWorkDir(logger)

	track := audio.Select(probe.Streams, p.opts.Language)
	logger.Debug("audio track selected",
		logging.Int("audio_position", track.Position),
		logging.String("track", track.Label()),
		logging.Bool("language_matched", track.LanguageMatched),
	)

	if err := p.extractor.ExtractAudio(services.WithStage(ctx, "extract"), source, job.AudioPath, track.Position); err != nil {
		return finish(StatusFailed, p.logFailure(logger, source, err))
	}

	audioLength, err := audio.Duration(job.AudioPath)
	if err != nil {
		logger.Debug("wav duration unavailable; using container duration", logging.Error(err))
		audioLength = probe.Duration()
	}
	result.AudioLength = audioLength

	recognizeStarted := p.now()
	tr, err := p.recognizer.Transcribe(services.WithStage(ctx, "recognize"), job.AudioPath, recognizer.Options{
		Language:    p.opts.Language,
		WorkDir:     job.WorkDir,
		MediaLength: audioLength,
	})
	if err != nil {
		if !isClassified(err) {
			err = services.Wrap(services.ErrRecognition, "pipeline", "recognize", source, err)
		}
		return finish(StatusFailed, p.logFailure(logger, source, err))
	}
	result.Segments = tr.Len()
	result.Language = tr.Language
	logger.Info("recognition complete",
		logging.String(logging.FieldEventType, "recognition_complete"),
		logging.String("backend", p.recognizer.Name()),
		logging.Int("segments", tr.Len()),
		logging.String("language", tr.Language),
		logging.Duration("audio_length", audioLength),
		logging.Duration("recognition_time", p.now().Sub(recognizeStarted)),
	)

	switch p.opts.Mode {
	case ModeSubtitle:
		err = p.writeSubtitle(job.OutputPath, tr)
	case ModeMux:
		_, err = p.muxer.Mux(services.WithStage(ctx, "mux"), subtitles.MuxRequest{
			Source:          source,
			Transcript:      tr,
			Language:        p.opts.Language,
			HasVideo:        probe.HasVideo(),
			SubtitleStreams: probe.SubtitleStreamCount(),
			OutputPath:      job.OutputPath,
			WorkDir:         job.WorkDir,
		})
	}
	if err != nil {
		return finish(StatusFailed, p.logFailure(logger, source, err))
	}

	result.OutputPath = job.OutputPath
	res := finish(StatusSucceeded, nil)
	logger.Info("job complete",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("output", res.OutputPath),
		logging.Int("segments", res.Segments),
		logging.Duration("elapsed", res.Elapsed),
		logging.Float64("speed_ratio", res.SpeedRatio()),
	)
	return res
}

func (p *Processor) writeSubtitle(path string, tr transcript.Transcript) error {
	data, err := subtitles.Render(p.opts.Format, tr.Segments)
	if err != nil {
		return err
	}
	return subtitles.WriteFile(path, data)
}

func (p *Processor) logSkip(logger *slog.Logger, source, output string) {
	logger.Info("output already exists; skipping",
		logging.String(logging.FieldEventType, "output_skipped"),
		logging.String("source", source),
		logging.String("output", output),
	)
}

func (p *Processor) logFailure(logger *slog.Logger, source string, err error) error {
	if errors.Is(err, context.Canceled) && !isClassified(err) {
		err = services.Wrap(services.ErrExternalTool, "pipeline", "process", "interrupted", err)
	}
	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.String("source", source),
		logging.String("error_kind", services.Kind(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(err)),
	)
	return err
}

func isClassified(err error) bool {
	return services.Kind(err) != "error"
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrInputNotFound):
		return "check the input path and that it has an audio stream"
	case errors.Is(err, services.ErrRecognition):
		return "run with --log-level debug to see recognizer output"
	case errors.Is(err, services.ErrOutputConflict):
		return "remove the existing output or use --on-conflict rename"
	case errors.Is(err, services.ErrOutputWrite):
		return "check output directory permissions and free space"
	case errors.Is(err, services.ErrUnsupportedContainer):
		return "use subtitle mode for this file type"
	case errors.Is(err, services.ErrExternalTool):
		return "run subgen deps to check ffmpeg and ffprobe"
	default:
		return "check logs for details"
	}
}

// validateInput checks that source is an existing, readable regular file.
func validateInput(source string) error {
	if strings.TrimSpace(source) == "" {
		return services.Wrap(services.ErrInputNotFound, "pipeline", "validate input", "empty path", nil)
	}
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrInputNotFound, "pipeline", "validate input", source+": no such file", nil)
		}
		return services.Wrap(services.ErrInputNotFound, "pipeline", "validate input", source, err)
	}
	if !info.Mode().IsRegular() {
		return services.Wrap(services.ErrInputNotFound, "pipeline", "validate input", source+": not a regular file", nil)
	}
	f, err := os.Open(source)
	if err != nil {
		return services.Wrap(services.ErrInputNotFound, "pipeline", "validate input", source+": not readable", err)
	}
	return f.Close()
}
