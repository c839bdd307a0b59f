package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"subgen/internal/logging"
	"subgen/internal/services"
)

// workDirPrefix marks per-job scratch directories so stale ones can be found.
const workDirPrefix = "subgen-"

// Job is the state of one input file moving through the pipeline.
type Job struct {
	ID         string
	Source     string
	WorkDir    string
	AudioPath  string
	OutputPath string
}

func newJob(source string) *Job {
	return &Job{ID: uuid.NewString(), Source: source}
}

// ShortID returns the first block of the job UUID for display.
func (j *Job) ShortID() string {
	if idx := strings.IndexByte(j.ID, '-'); idx > 0 {
		return j.ID[:idx]
	}
	return j.ID
}

// createWorkDir makes the job's private scratch directory under root (the
// system temp dir when root is empty).
func (j *Job) createWorkDir(root string) error {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "create work dir", root, err)
	}
	dir, err := os.MkdirTemp(root, workDirPrefix+j.ShortID()+"-")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "create work dir", root, err)
	}
	j.WorkDir = dir
	j.AudioPath = filepath.Join(dir, "audio.wav")
	return nil
}

func (j *Job) removeWorkDir(logger *slog.Logger) {
	if j.WorkDir == "" {
		return
	}
	if err := os.RemoveAll(j.WorkDir); err != nil {
		logging.WarnWithContext(logger, "failed to remove job work directory", "work_dir_cleanup_failed",
			logging.String("work_dir", j.WorkDir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the directory by hand"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
	}
}

// CleanStaleResult contains the outcome of a stale work directory sweep.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes job work directories under root older than maxAge.
// They only survive when a run is killed outright. Directories without the
// job prefix are never touched.
func CleanStale(root string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	root = strings.TrimSpace(root)
	if root == "" {
		root = os.TempDir()
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workDirPrefix) {
			continue
		}
		dirPath := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale work directory",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "work_dir_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check paths.work_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("removed stale work directory",
				logging.String("path", dirPath),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "work_dir_cleanup"),
			)
		}
	}
	return result
}
