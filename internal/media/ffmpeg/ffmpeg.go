package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"subgen/internal/logging"
	"subgen/internal/services"
)

// CommandRunner executes an external command. Tests swap it to avoid a real
// ffmpeg.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Client runs ffmpeg.
type Client struct {
	binary string
	logger *slog.Logger
	run    CommandRunner
}

// New constructs a client for the given ffmpeg binary.
func New(binary string, logger *slog.Logger) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Client{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (c *Client) WithCommandRunner(r CommandRunner) {
	if c != nil && r != nil {
		c.run = r
	}
}

// ExtractAudio writes audio stream track (0:a:track) of source to dest as
// mono 16 kHz signed 16-bit PCM WAV. A negative track means the first one.
func (c *Client) ExtractAudio(ctx context.Context, source, dest string, track int) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, "ffmpeg", "extract audio", "source and destination are required", nil)
	}
	args := ExtractArgs(source, dest, track)
	c.logger.Debug("extracting audio",
		logging.String("source", source),
		logging.String("audio_path", dest),
		logging.Any("args", args),
	)
	if err := c.run(ctx, c.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "extract audio", source, err)
	}
	return nil
}

// ExtractArgs builds the ffmpeg arguments for audio extraction.
func ExtractArgs(source, dest string, track int) []string {
	if track < 0 {
		track = 0
	}
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:" + strconv.Itoa(track),
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

// RemuxRequest describes a stream-copy mux of Source plus one SubRip file.
type RemuxRequest struct {
	Source   string
	Subtitle string
	// Output is written with an explicit Matroska muxer so temporary names
	// without a media extension work.
	Output string
	// Maps selects streams from Source, e.g. "0:v?", "0:a".
	Maps []string
	// SubtitleIndex is the output subtitle stream index the new track lands
	// on (the number of subtitle streams kept from Source).
	SubtitleIndex int
	// ConvertSubtitles re-encodes every subtitle stream to SubRip, needed
	// for MP4 mov_text tracks.
	ConvertSubtitles bool
	Language         string
	Title            string
	Default          bool
}

// Remux runs the stream-copy mux described by req.
func (c *Client) Remux(ctx context.Context, req RemuxRequest) error {
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Subtitle) == "" || strings.TrimSpace(req.Output) == "" {
		return services.Wrap(services.ErrValidation, "ffmpeg", "remux", "source, subtitle, and output are required", nil)
	}
	args := RemuxArgs(req)
	c.logger.Debug("remuxing with subtitle track",
		logging.String("source", req.Source),
		logging.String("temp_path", req.Output),
		logging.Any("args", args),
	)
	if err := c.run(ctx, c.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "remux", req.Source, err)
	}
	return nil
}

// RemuxArgs builds the ffmpeg arguments for a remux request.
func RemuxArgs(req RemuxRequest) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", req.Source,
		"-i", req.Subtitle,
	}
	maps := req.Maps
	if len(maps) == 0 {
		maps = []string{"0"}
	}
	for _, m := range maps {
		args = append(args, "-map", m)
	}
	args = append(args, "-map", "1:0", "-c", "copy")
	if req.ConvertSubtitles {
		args = append(args, "-c:s", "srt")
	}
	stream := "s:s:" + strconv.Itoa(req.SubtitleIndex)
	if lang := strings.TrimSpace(req.Language); lang != "" {
		args = append(args, "-metadata:"+stream, "language="+lang)
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		args = append(args, "-metadata:"+stream, "title="+title)
	}
	if req.Default {
		args = append(args, "-disposition:s:"+strconv.Itoa(req.SubtitleIndex), "default")
	}
	args = append(args, "-f", "matroska", req.Output)
	return args
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		detail := strings.TrimSpace(string(output))
		if errors.As(err, &exitErr) && detail != "" {
			return fmt.Errorf("%w: %s", err, detail)
		}
		return err
	}
	return nil
}
