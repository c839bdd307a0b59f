package recognizer

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"subgen/internal/language"
	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/transcript"
)

// WhisperX tuning passed on every run.
const (
	DefaultWhisperXModel = "large-v3"
	UVXCommand           = "uvx"
	CPUIndexURL          = "https://download.pytorch.org/whl/cpu"
	CUDAIndexURL         = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL         = "https://pypi.org/simple"
	BatchSize            = "4"
	ChunkSize            = "15"
	VADOnset             = "0.08"
	VADOffset            = "0.07"
	BeamSize             = "10"
	BestOf               = "10"
	Temperature          = "0.0"
	Patience             = "1.0"
	SegmentResolution    = "sentence"
	CPUComputeType       = "float32"
	VADMethodPyannote    = "pyannote"
	VADMethodSilero      = "silero"
)

// WhisperX drives WhisperX through uvx so no Python environment has to be
// managed by hand.
type WhisperX struct {
	cfg    Config
	binary string
	logger *slog.Logger
	run    CommandRunner
}

// NewWhisperX constructs the WhisperX backend.
func NewWhisperX(cfg Config, logger *slog.Logger) *WhisperX {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = UVXCommand
	}
	return &WhisperX{
		cfg:    cfg,
		binary: binary,
		logger: logging.NewComponentLogger(logger, "whisperx"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperX) WithCommandRunner(runner CommandRunner) {
	if w != nil && runner != nil {
		w.run = runner
	}
}

// SetVADMethod updates the VAD method at runtime (used when the Hugging Face
// token turns out to be missing).
func (w *WhisperX) SetVADMethod(method string) {
	w.cfg.VADMethod = method
}

// Name implements Engine.
func (w *WhisperX) Name() string { return BackendWhisperX }

// Model returns the model name passed to WhisperX.
func (w *WhisperX) Model() string {
	switch w.cfg.Model {
	case "":
		return DefaultWhisperXModel
	case DefaultWhisperModel:
		// openai-whisper alias; faster-whisper calls it large-v3-turbo.
		return "large-v3-turbo"
	}
	return w.cfg.Model
}

// Transcribe implements Engine.
func (w *WhisperX) Transcribe(ctx context.Context, audioPath string, opts Options) (transcript.Transcript, error) {
	if strings.TrimSpace(audioPath) == "" || strings.TrimSpace(opts.WorkDir) == "" {
		return transcript.Transcript{}, services.Wrap(services.ErrValidation, "whisperx", "transcribe", "audio path and work dir are required", nil)
	}
	if w.cfg.VADMethod == VADMethodPyannote && w.cfg.HFToken == "" {
		logging.WarnWithContext(w.logger, "pyannote VAD needs a Hugging Face token; using silero", "whisperx_vad_fallback",
			logging.String(logging.FieldErrorHint, "set recognizer.hf_token or HF_TOKEN"),
			logging.String(logging.FieldImpact, "voice activity detection uses silero"),
		)
		w.SetVADMethod(VADMethodSilero)
	}

	args := w.buildArgs(audioPath, opts.WorkDir, opts.Language)
	w.logger.Debug("running whisperx",
		logging.String("audio_path", audioPath),
		logging.String("model", w.Model()),
		logging.Bool("cuda", w.cfg.CUDAEnabled),
	)
	if err := w.run(ctx, w.binary, args...); err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrRecognition, "whisperx", "transcribe", audioPath, err)
	}
	raw, err := loadJSON("whisperx", outputJSONPath(audioPath, opts.WorkDir))
	if err != nil {
		return transcript.Transcript{}, err
	}
	return finish(w.logger, raw, opts, w.cfg.KeepHallucinations), nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (w *WhisperX) buildArgs(audioPath, outputDir, lang string) []string {
	args := make([]string, 0, 40)

	indexURL := strings.TrimSpace(w.cfg.IndexURL)
	if indexURL == "" {
		indexURL = CPUIndexURL
		if w.cfg.CUDAEnabled {
			indexURL = CUDAIndexURL
		}
	}
	args = append(args, "--index-url", indexURL, "--extra-index-url", PypiIndexURL)

	args = append(args,
		"whisperx",
		audioPath,
		"--model", w.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
		"--best_of", BestOf,
		"--temperature", Temperature,
		"--patience", Patience,
	)

	vadMethod := w.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && w.cfg.HFToken != "" {
		args = append(args, "--hf_token", w.cfg.HFToken)
	}

	if iso := language.ToISO2(lang); iso != "" {
		args = append(args, "--language", iso)
	}

	if w.cfg.CUDAEnabled {
		args = append(args, "--device", "cuda")
	} else {
		args = append(args, "--device", "cpu", "--compute_type", CPUComputeType)
		if w.cfg.Threads > 0 {
			args = append(args, "--threads", itoa(w.cfg.Threads))
		}
	}
	return args
}

func itoa(n int) string { return strconv.Itoa(n) }
