package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRecognizer(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRecognizer() error {
	switch c.Recognizer.Backend {
	case BackendWhisper, BackendWhisperX:
	case BackendWhisperCPP:
		if strings.TrimSpace(c.Recognizer.ModelPath) == "" {
			return errors.New("recognizer.model_path must be set when recognizer.backend is whispercpp")
		}
	default:
		return fmt.Errorf("recognizer.backend: unsupported value %q (want whisper, whisperx, or whispercpp)", c.Recognizer.Backend)
	}
	if c.Recognizer.Threads <= 0 {
		return errors.New("recognizer.threads must be positive")
	}
	if c.Recognizer.Backend == BackendWhisperX {
		switch c.Recognizer.VADMethod {
		case "silero", "pyannote":
		default:
			return fmt.Errorf("recognizer.vad_method: unsupported value %q (want silero or pyannote)", c.Recognizer.VADMethod)
		}
		if c.Recognizer.VADMethod == "pyannote" && c.Recognizer.HuggingFaceToken == "" {
			return errors.New("recognizer.hf_token must be set when recognizer.vad_method is pyannote (or set HF_TOKEN)")
		}
	}
	return nil
}

func (c *Config) validateOutput() error {
	if !slices.Contains([]string{ModeSubtitle, ModeMux}, c.Output.Mode) {
		return fmt.Errorf("output.mode: unsupported value %q (want subtitle or mux)", c.Output.Mode)
	}
	if !slices.Contains([]string{FormatVTT, FormatSRT}, c.Output.Format) {
		return fmt.Errorf("output.format: unsupported value %q (want vtt or srt)", c.Output.Format)
	}
	if !slices.Contains([]string{ConflictSkip, ConflictRename, ConflictFail}, c.Output.OnConflict) {
		return fmt.Errorf("output.on_conflict: unsupported value %q (want skip, rename, or fail)", c.Output.OnConflict)
	}
	return nil
}

func (c *Config) validateMedia() error {
	if strings.TrimSpace(c.FFmpegBinary()) == "" {
		return errors.New("media.ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.FFprobeBinary()) == "" {
		return errors.New("media.ffprobe_binary must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
