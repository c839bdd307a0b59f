package recognizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"subgen/internal/language"
	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/transcript"
)

// Backend names accepted by New.
const (
	BackendWhisper    = "whisper"
	BackendWhisperX   = "whisperx"
	BackendWhisperCPP = "whispercpp"
)

// Engine turns a WAV file into a transcript.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string, opts Options) (transcript.Transcript, error)
}

// Options are the per-call settings.
type Options struct {
	// Language is a hint; empty means detect.
	Language string
	// WorkDir receives the backend's intermediate files. It must exist.
	WorkDir string
	// MediaLength is the source duration, used by the hallucination filter's
	// trailing sweep. Zero disables that pass.
	MediaLength time.Duration
}

// Config selects and configures a backend.
type Config struct {
	Backend     string
	Model       string
	CUDAEnabled bool
	// Binary overrides the executable (whisper or uvx).
	Binary    string
	IndexURL  string
	VADMethod string
	HFToken   string
	// ModelPath is the ggml model file for whispercpp.
	ModelPath string
	Threads   int
	// KeepHallucinations disables FilterHallucinations.
	KeepHallucinations bool
}

// CommandRunner executes an external command. Tests swap it for a fake that
// writes the JSON the real tool would have produced.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// New builds the engine named by cfg.Backend.
func New(cfg Config, logger *slog.Logger) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendWhisper, "":
		return NewWhisper(cfg, logger), nil
	case BackendWhisperX:
		return NewWhisperX(cfg, logger), nil
	case BackendWhisperCPP:
		return NewWhisperCPP(cfg, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "recognizer", "select backend",
			fmt.Sprintf("unknown backend %q", cfg.Backend), nil)
	}
}

// jsonSegment is the per-segment shape shared by whisper and WhisperX.
type jsonSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type jsonPayload struct {
	Language string        `json:"language"`
	Segments []jsonSegment `json:"segments"`
}

// DecodeJSON reads a whisper or WhisperX JSON result.
func DecodeJSON(r io.Reader) (transcript.Transcript, error) {
	var payload jsonPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return transcript.Transcript{}, fmt.Errorf("decode recognizer json: %w", err)
	}
	segments := make([]transcript.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		segments = append(segments, transcript.Segment{
			Start: transcript.Seconds(seg.Start),
			End:   transcript.Seconds(seg.End),
			Text:  seg.Text,
		})
	}
	return transcript.Transcript{
		Segments: segments,
		Language: language.ToISO2(payload.Language),
	}, nil
}

func loadJSON(component, path string) (transcript.Transcript, error) {
	file, err := os.Open(path)
	if err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrRecognition, component, "read output", path, err)
	}
	defer file.Close()
	result, err := DecodeJSON(file)
	if err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrRecognition, component, "parse output", path, err)
	}
	return result, nil
}

// finish normalizes a raw transcript, applies the hallucination filter, and
// fills in the language when the backend did not report one.
func finish(logger *slog.Logger, raw transcript.Transcript, opts Options, keepHallucinations bool) transcript.Transcript {
	segments := transcript.Normalize(raw.Segments)
	if !keepHallucinations {
		result := transcript.FilterHallucinations(segments, opts.MediaLength)
		if len(result.Removals) > 0 {
			logFilterSummary(logger, result)
		}
		segments = result.Segments
	}
	lang := raw.Language
	if lang == "" {
		lang = language.ToISO2(opts.Language)
	}
	return transcript.Transcript{Segments: segments, Language: lang}
}

func logFilterSummary(logger *slog.Logger, result transcript.FilterResult) {
	reasons := make(map[string]int)
	for _, r := range result.Removals {
		reasons[r.Reason]++
	}
	attrs := []any{
		logging.String(logging.FieldEventType, "hallucination_filter_applied"),
		logging.Int("segments_removed", len(result.Removals)),
		logging.Int("segments_remaining", len(result.Segments)),
	}
	for reason, count := range reasons {
		attrs = append(attrs, logging.Int("removed_"+reason, count))
	}
	logger.Info("recognizer post-filter applied", attrs...)

	for _, r := range result.Removals {
		logger.Debug("post-filter removed segment",
			logging.String("text", r.Segment.Text),
			logging.String("reason", r.Reason),
			logging.Duration("start", r.Segment.Start),
		)
	}
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load to weights_only=true, which breaks the
	// pyannote and whisper checkpoints these tools load.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		detail := tail(strings.TrimSpace(string(output)), 20)
		if errors.As(err, &exitErr) && detail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// tail keeps the last n lines of tool output; Python tracebacks put the
// useful part at the end.
func tail(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
