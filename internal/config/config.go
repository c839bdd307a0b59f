package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// WorkDir holds per-job scratch directories for extracted audio. Empty
	// means the system temporary directory.
	WorkDir string `toml:"work_dir"`
	// OutputDir receives subtitle files and muxed containers. Empty means
	// next to each input file.
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Recognizer contains speech recognition settings.
type Recognizer struct {
	Backend          string `toml:"backend"`
	Model            string `toml:"model"`
	Language         string `toml:"language"`
	CUDAEnabled      bool   `toml:"cuda_enabled"`
	Binary           string `toml:"binary"`
	IndexURL         string `toml:"index_url"`
	VADMethod        string `toml:"vad_method"`
	HuggingFaceToken string `toml:"hf_token"`
	ModelPath        string `toml:"model_path"`
	Threads          int    `toml:"threads"`
	// KeepHallucinations disables the filter that drops repeated and
	// isolated filler segments.
	KeepHallucinations bool `toml:"keep_hallucinations"`
}

// Output controls what is produced for each transcribed file.
type Output struct {
	Mode       string `toml:"mode"`
	Format     string `toml:"format"`
	OnConflict string `toml:"on_conflict"`
}

// Media names the external transcoder binaries.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Catalog contains configuration for the media catalog database.
type Catalog struct {
	Path         string   `toml:"path"`
	KeywordsFile string   `toml:"keywords_file"`
	Extensions   []string `toml:"extensions"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subgen.
//
// Configuration sections by subsystem:
//   - Paths: scratch, output, and log directories
//   - Recognizer: speech recognition backend and model
//   - Output: subtitle file vs mux mode, format, conflict policy
//   - Media: ffmpeg/ffprobe binaries
//   - Catalog: SQLite media catalog and scan filters
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Recognizer Recognizer `toml:"recognizer"`
	Output     Output     `toml:"output"`
	Media      Media      `toml:"media"`
	Catalog    Catalog    `toml:"catalog"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the config at path, or the first existing candidate from the
// search order when path is empty, then normalizes and validates it. A
// missing file is not an error: defaults apply and exists is false.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	resolved, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loaded := Default()
	if exists {
		if err := decodeFile(resolved, &loaded); err != nil {
			return nil, "", false, err
		}
	}
	if err := loaded.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, "", false, err
	}
	return &loaded, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath applies the search order: an explicit path, the
// per-user file, then ./subgen.toml. With nothing found it reports the
// per-user path as missing.
func resolveConfigPath(explicit string) (string, bool, error) {
	if explicit != "" {
		path, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := regularFile(path)
		return path, exists, err
	}

	userPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	localPath, err := expandPath(localConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if ok, _ := regularFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func regularFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	return true, nil
}

// EnsureDirectories creates the configured directories that must exist
// before a batch starts.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Catalog.Path); strings.TrimSpace(c.Catalog.Path) != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for extraction and muxing.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Media.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Media.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// RecognizerBinary returns the executable the configured backend shells out
// to. The native whispercpp backend has none.
func (c *Config) RecognizerBinary() string {
	if bin := strings.TrimSpace(c.Recognizer.Binary); bin != "" {
		return bin
	}
	switch c.Recognizer.Backend {
	case BackendWhisperX:
		return "uvx"
	case BackendWhisper:
		return "whisper"
	default:
		return ""
	}
}

// expandPath resolves a leading "~" to the home directory and makes the
// result absolute. Empty stays empty.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, value[1:])
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", value, err)
	}
	return abs, nil
}

// ExpandPath applies the config path rules to a value from outside the file,
// such as a CLI flag.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample to path, creating parent
// directories.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
