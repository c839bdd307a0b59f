//go:build whispercpp

package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperpkg "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"subgen/internal/language"
	"subgen/internal/logging"
	"subgen/internal/media/audio"
	"subgen/internal/services"
	"subgen/internal/transcript"
)

// WhisperCPP runs a ggml model in process through the whisper.cpp bindings.
type WhisperCPP struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	model whisperpkg.Model
}

// NewWhisperCPP constructs the native backend. The model file loads lazily
// on the first Transcribe call.
func NewWhisperCPP(cfg Config, logger *slog.Logger) (Engine, error) {
	if strings.TrimSpace(cfg.ModelPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "whispercpp", "init", "recognizer.model_path is required", nil)
	}
	return &WhisperCPP{cfg: cfg, logger: logging.NewComponentLogger(logger, "whispercpp")}, nil
}

// Name implements Engine.
func (w *WhisperCPP) Name() string { return BackendWhisperCPP }

// Close releases the loaded model.
func (w *WhisperCPP) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model == nil {
		return nil
	}
	err := w.model.Close()
	w.model = nil
	return err
}

func (w *WhisperCPP) loadModel() (whisperpkg.Model, error) {
	if w.model != nil {
		return w.model, nil
	}
	model, err := whisperpkg.New(w.cfg.ModelPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "whispercpp", "load model", w.cfg.ModelPath, err)
	}
	w.logger.Info("whisper.cpp model loaded", logging.String("model_path", w.cfg.ModelPath))
	w.model = model
	return model, nil
}

// Transcribe implements Engine.
func (w *WhisperCPP) Transcribe(ctx context.Context, audioPath string, opts Options) (transcript.Transcript, error) {
	samples, rate, err := audio.DecodeMono(audioPath)
	if err != nil {
		return transcript.Transcript{}, err
	}
	if rate != audio.SampleRate {
		return transcript.Transcript{}, services.Wrap(services.ErrRecognition, "whispercpp", "transcribe",
			fmt.Sprintf("%s: sample rate %d, want %d", audioPath, rate, audio.SampleRate), nil)
	}
	if err := ctx.Err(); err != nil {
		return transcript.Transcript{}, err
	}

	// The bindings are not safe for concurrent use of one model.
	w.mu.Lock()
	defer w.mu.Unlock()

	model, err := w.loadModel()
	if err != nil {
		return transcript.Transcript{}, err
	}
	wctx, err := model.NewContext()
	if err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrRecognition, "whispercpp", "create context", audioPath, err)
	}

	threads := w.cfg.Threads
	if threads <= 0 {
		threads = 4
	}
	wctx.SetThreads(uint(threads))
	lang := language.ToISO2(opts.Language)
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrRecognition, "whispercpp", "set language", lang, err)
	}
	wctx.SetTokenTimestamps(true)

	w.logger.Debug("running whisper.cpp",
		logging.String("audio_path", audioPath),
		logging.Int("samples", len(samples)),
		logging.Int("threads", threads),
	)
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrRecognition, "whispercpp", "process", audioPath, err)
	}

	var segments []transcript.Segment
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return transcript.Transcript{}, services.Wrap(services.ErrRecognition, "whispercpp", "read segment", audioPath, err)
		}
		segments = append(segments, transcript.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}

	detected := wctx.DetectedLanguage()
	raw := transcript.Transcript{Segments: segments, Language: language.ToISO2(detected)}
	return finish(w.logger, raw, opts, w.cfg.KeepHallucinations), nil
}
