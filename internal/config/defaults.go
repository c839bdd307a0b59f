package config

const (
	defaultConfigPath     = "~/.config/subgen/config.toml"
	localConfigName       = "subgen.toml"
	defaultLogDir         = ""
	defaultCatalogPath    = "~/.local/share/subgen/catalog.db"
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultBackend        = BackendWhisper
	defaultModel          = "turbo"
	defaultVADMethod      = "silero"
	defaultWhisperXIndex  = "https://download.pytorch.org/whl/cpu"
	defaultWhisperXCUDA   = "https://download.pytorch.org/whl/cu128"
	defaultThreads        = 4
	defaultOutputMode     = ModeSubtitle
	defaultOutputFormat   = FormatVTT
	defaultConflictPolicy = ConflictSkip
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Recognizer backends.
const (
	BackendWhisper    = "whisper"
	BackendWhisperX   = "whisperx"
	BackendWhisperCPP = "whispercpp"
)

// Output modes.
const (
	ModeSubtitle = "subtitle"
	ModeMux      = "mux"
)

// Subtitle formats.
const (
	FormatVTT = "vtt"
	FormatSRT = "srt"
)

// Conflict policies applied when the output path already exists.
const (
	ConflictSkip   = "skip"
	ConflictRename = "rename"
	ConflictFail   = "fail"
)

// DefaultCatalogExtensions lists the media extensions a catalog scan picks up
// when the config does not override them.
var DefaultCatalogExtensions = []string{
	".mkv", ".mp4", ".m4v", ".mov", ".webm", ".avi", ".ts", ".m2ts", ".mpg", ".mpeg", ".wmv", ".flv",
	".mka", ".mp3", ".m4a", ".aac", ".flac", ".wav", ".ogg", ".opus",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Recognizer: Recognizer{
			Backend:   defaultBackend,
			Model:     defaultModel,
			VADMethod: defaultVADMethod,
			Threads:   defaultThreads,
		},
		Output: Output{
			Mode:       defaultOutputMode,
			Format:     defaultOutputFormat,
			OnConflict: defaultConflictPolicy,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Catalog: Catalog{
			Path:       defaultCatalogPath,
			Extensions: append([]string(nil), DefaultCatalogExtensions...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
