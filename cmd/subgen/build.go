package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/media/ffmpeg"
	"subgen/internal/media/ffprobe"
	"subgen/internal/pipeline"
	"subgen/internal/recognizer"
	"subgen/internal/subtitles"
)

// runOverrides carries transcribe flags that replace config values when set.
type runOverrides struct {
	model              string
	language           string
	backend            string
	mode               string
	format             string
	onConflict         string
	outputDir          string
	workDir            string
	keepHallucinations bool
}

func (o *runOverrides) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.model, "model", "", "Recognizer model (e.g. turbo, large-v3)")
	flags.StringVar(&o.language, "language", "", "Spoken language hint (ISO 639-1); empty detects")
	flags.StringVar(&o.backend, "backend", "", "Recognizer backend: whisper, whisperx, or whispercpp")
	flags.StringVar(&o.mode, "mode", "", "Output mode: subtitle or mux")
	flags.StringVar(&o.format, "format", "", "Subtitle format: vtt or srt")
	flags.StringVar(&o.onConflict, "on-conflict", "", "Existing output policy: skip, rename, or fail")
	flags.StringVar(&o.outputDir, "output-dir", "", "Directory for outputs (default: next to each input)")
	flags.StringVar(&o.workDir, "work-dir", "", "Parent directory for per-file scratch space")
	flags.BoolVar(&o.keepHallucinations, "keep-hallucinations", false, "Keep segments flagged as likely hallucinations")
}

// apply copies changed flags into a copy of cfg.
func (o *runOverrides) apply(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	flags := cmd.Flags()
	set := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = strings.ToLower(strings.TrimSpace(value))
		}
	}
	if flags.Changed("model") {
		cfg.Recognizer.Model = strings.TrimSpace(o.model)
	}
	set("language", &cfg.Recognizer.Language, o.language)
	if cfg.Recognizer.Language == "auto" {
		cfg.Recognizer.Language = ""
	}
	set("backend", &cfg.Recognizer.Backend, o.backend)
	set("mode", &cfg.Output.Mode, o.mode)
	set("format", &cfg.Output.Format, o.format)
	set("on-conflict", &cfg.Output.OnConflict, o.onConflict)
	cfg.Output.Format = strings.TrimPrefix(cfg.Output.Format, ".")
	if flags.Changed("keep-hallucinations") {
		cfg.Recognizer.KeepHallucinations = o.keepHallucinations
	}
	for _, p := range []struct {
		name string
		dst  *string
		val  string
	}{
		{"output-dir", &cfg.Paths.OutputDir, o.outputDir},
		{"work-dir", &cfg.Paths.WorkDir, o.workDir},
	} {
		if !flags.Changed(p.name) {
			continue
		}
		expanded, err := config.ExpandPath(p.val)
		if err != nil {
			return cfg, err
		}
		*p.dst = expanded
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, cfg.EnsureDirectories()
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Mode:       cfg.Output.Mode,
		Format:     subtitles.Format(cfg.Output.Format),
		OnConflict: subtitles.ConflictPolicy(cfg.Output.OnConflict),
		OutputDir:  cfg.Paths.OutputDir,
		WorkDir:    cfg.Paths.WorkDir,
		Language:   cfg.Recognizer.Language,
	}
}

func recognizerConfig(cfg *config.Config) recognizer.Config {
	return recognizer.Config{
		Backend:            cfg.Recognizer.Backend,
		Model:              cfg.Recognizer.Model,
		CUDAEnabled:        cfg.Recognizer.CUDAEnabled,
		Binary:             cfg.Recognizer.Binary,
		IndexURL:           cfg.Recognizer.IndexURL,
		VADMethod:          cfg.Recognizer.VADMethod,
		HFToken:            cfg.Recognizer.HuggingFaceToken,
		ModelPath:          cfg.Recognizer.ModelPath,
		Threads:            cfg.Recognizer.Threads,
		KeepHallucinations: cfg.Recognizer.KeepHallucinations,
	}
}

// buildProcessor wires the real tools. The returned closer releases native
// recognizer resources.
func buildProcessor(cfg *config.Config, logger *slog.Logger) (*pipeline.Processor, func(), error) {
	engine, err := recognizer.New(recognizerConfig(cfg), logger)
	if err != nil {
		return nil, nil, err
	}
	closeEngine := func() {
		if closer, ok := engine.(io.Closer); ok {
			_ = closer.Close()
		}
	}
	processor, err := pipeline.NewProcessor(
		pipelineOptions(cfg),
		ffprobe.NewProber(cfg.FFprobeBinary()),
		ffmpeg.New(cfg.FFmpegBinary(), logger),
		engine,
		logger,
	)
	if err != nil {
		closeEngine()
		return nil, nil, err
	}
	return processor, closeEngine, nil
}
