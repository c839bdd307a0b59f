package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"subgen/internal/config"
	"subgen/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckModelFile verifies the whisper.cpp GGML model is present and readable.
func CheckModelFile(path string) Result {
	const name = "whisper.cpp model"
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "recognizer.model_path not set"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// Requirements lists the external binaries the config needs.
func Requirements(cfg *config.Config) []deps.Requirement {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction and muxing",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
			VersionArgs: []string{"-version"},
		},
	}
	switch cfg.Recognizer.Backend {
	case config.BackendWhisper:
		requirements = append(requirements, deps.Requirement{
			Name:        "Whisper",
			Command:     cfg.RecognizerBinary(),
			Description: "Required for openai-whisper transcription",
		})
	case config.BackendWhisperX:
		requirements = append(requirements, deps.Requirement{
			Name:        "uvx",
			Command:     cfg.RecognizerBinary(),
			Description: "Required for WhisperX-driven transcription",
			VersionArgs: []string{"--version"},
		})
	}
	requirements = append(requirements, deps.Requirement{
		Name:        "nvidia-smi",
		Command:     "nvidia-smi",
		Description: "Reports GPU availability for CUDA transcription",
		Optional:    true,
	})
	return requirements
}

// CheckSystemDeps evaluates the binaries from Requirements. Version lines are
// read when runner is non-nil.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, runner deps.OutputRunner) []deps.Status {
	return deps.CheckBinaries(ctx, Requirements(cfg), runner)
}
