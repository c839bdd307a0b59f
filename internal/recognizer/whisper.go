package recognizer

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"subgen/internal/language"
	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/transcript"
)

const (
	// WhisperCommand is the openai-whisper CLI entry point.
	WhisperCommand = "whisper"
	// DefaultWhisperModel matches the model the batch scripts always loaded.
	DefaultWhisperModel = "turbo"
)

// Whisper drives the openai-whisper command line tool.
type Whisper struct {
	cfg    Config
	binary string
	logger *slog.Logger
	run    CommandRunner
}

// NewWhisper constructs the whisper CLI backend.
func NewWhisper(cfg Config, logger *slog.Logger) *Whisper {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = WhisperCommand
	}
	return &Whisper{
		cfg:    cfg,
		binary: binary,
		logger: logging.NewComponentLogger(logger, "whisper"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *Whisper) WithCommandRunner(runner CommandRunner) {
	if w != nil && runner != nil {
		w.run = runner
	}
}

// Name implements Engine.
func (w *Whisper) Name() string { return BackendWhisper }

// Model returns the configured model name for logging.
func (w *Whisper) Model() string {
	if w.cfg.Model != "" {
		return w.cfg.Model
	}
	return DefaultWhisperModel
}

// Transcribe implements Engine.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string, opts Options) (transcript.Transcript, error) {
	if strings.TrimSpace(audioPath) == "" || strings.TrimSpace(opts.WorkDir) == "" {
		return transcript.Transcript{}, services.Wrap(services.ErrValidation, "whisper", "transcribe", "audio path and work dir are required", nil)
	}
	args := w.buildArgs(audioPath, opts.WorkDir, opts.Language)
	w.logger.Debug("running whisper",
		logging.String("audio_path", audioPath),
		logging.String("model", w.Model()),
		logging.Any("args", args),
	)
	if err := w.run(ctx, w.binary, args...); err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrRecognition, "whisper", "transcribe", audioPath, err)
	}
	raw, err := loadJSON("whisper", outputJSONPath(audioPath, opts.WorkDir))
	if err != nil {
		return transcript.Transcript{}, err
	}
	return finish(w.logger, raw, opts, w.cfg.KeepHallucinations), nil
}

func (w *Whisper) buildArgs(audioPath, outputDir, lang string) []string {
	args := []string{
		audioPath,
		"--model", w.Model(),
		"--output_format", "json",
		"--output_dir", outputDir,
		"--word_timestamps", "True",
		"--verbose", "False",
	}
	if iso := language.ToISO2(lang); iso != "" {
		args = append(args, "--language", iso)
	}
	if w.cfg.CUDAEnabled {
		args = append(args, "--device", "cuda")
	} else {
		// Half precision is GPU only; whisper warns and falls back otherwise.
		args = append(args, "--device", "cpu", "--fp16", "False")
	}
	if w.cfg.Threads > 0 && !w.cfg.CUDAEnabled {
		args = append(args, "--threads", itoa(w.cfg.Threads))
	}
	return args
}

// outputJSONPath is where whisper and WhisperX write <stem>.json.
func outputJSONPath(audioPath, outputDir string) string {
	base := filepath.Base(audioPath)
	return filepath.Join(outputDir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
}
