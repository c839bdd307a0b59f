package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"subgen/internal/logging"
	"subgen/internal/media/ffprobe"
	"subgen/internal/services"
)

// Prober inspects media streams. *ffprobe.Prober satisfies it.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Filter selects which files a scan records.
type Filter struct {
	// Extensions are lower-case with a leading dot. Empty accepts none.
	Extensions []string
	// Keywords, when set, must match the file name.
	Keywords *regexp.Regexp
}

// sidecarExtensions are never media, whatever Extensions says.
var sidecarExtensions = map[string]struct{}{
	".srt": {},
	".vtt": {},
	".xz":  {},
}

// Accepts reports whether path passes the extension and keyword filters.
func (f Filter) Accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, sidecar := sidecarExtensions[ext]; sidecar {
		return false
	}
	matched := false
	for _, allowed := range f.Extensions {
		if ext == allowed {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if f.Keywords != nil && !f.Keywords.MatchString(filepath.Base(path)) {
		return false
	}
	return true
}

// ScanResult counts what a scan did.
type ScanResult struct {
	Seen      int
	Added     int
	Updated   int
	Unchanged int
	Filtered  int
	Errors    []ScanError
}

// ScanError pairs a file with the probe or store error it hit.
type ScanError struct {
	Path  string
	Error error
}

// Scanner walks directories and records media files in a Store.
type Scanner struct {
	store  *Store
	prober Prober
	logger *slog.Logger
}

// NewScanner wires a scanner to its store and prober.
func NewScanner(store *Store, prober Prober, logger *slog.Logger) *Scanner {
	return &Scanner{
		store:  store,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
}

// Scan walks root and upserts every accepted file. Files whose size is
// unchanged since the last scan are not probed again. Probe failures are
// collected and do not stop the walk.
func (s *Scanner) Scan(ctx context.Context, root string, filter Filter) (ScanResult, error) {
	var result ScanResult
	info, err := os.Stat(root)
	if err != nil {
		return result, services.Wrap(services.ErrInputNotFound, "catalog", "scan", root, err)
	}
	if !info.IsDir() {
		return result, services.Wrap(services.ErrValidation, "catalog", "scan", root+": not a directory", nil)
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, ScanError{Path: path, Error: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !filter.Accepts(path) {
			result.Filtered++
			return nil
		}
		result.Seen++
		if err := s.record(ctx, path, &result); err != nil {
			result.Errors = append(result.Errors, ScanError{Path: path, Error: err})
			s.logger.Warn("catalog scan skipped file",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "catalog_scan_error"),
				logging.String(logging.FieldErrorHint, "check the file with ffprobe"),
				logging.String(logging.FieldImpact, "file left out of the catalog"),
			)
		}
		return nil
	})
	if walkErr != nil {
		return result, walkErr
	}

	s.logger.Info("catalog scan complete",
		logging.String(logging.FieldEventType, "catalog_scan_complete"),
		logging.String("root", root),
		logging.Int("seen", result.Seen),
		logging.Int("added", result.Added),
		logging.Int("updated", result.Updated),
		logging.Int("unchanged", result.Unchanged),
		logging.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *Scanner) record(ctx context.Context, path string, result *ScanResult) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	existing, err := s.store.Get(ctx, path)
	if err != nil {
		return err
	}
	if existing != nil && existing.SizeBytes == info.Size() {
		result.Unchanged++
		return nil
	}

	probe, err := s.prober.Inspect(ctx, path)
	if err != nil {
		return err
	}
	entry := Entry{
		Path:          path,
		SizeBytes:     info.Size(),
		Duration:      probe.Duration(),
		HasAudio:      probe.HasAudio(),
		HasSubtitles:  probe.SubtitleStreamCount() > 0 || hasSidecar(path),
		AudioLanguage: probe.AudioLanguage(),
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		return err
	}
	if existing == nil {
		result.Added++
	} else {
		result.Updated++
	}
	s.logger.Debug("catalogued media file",
		logging.String("path", path),
		logging.Duration("duration", entry.Duration),
		logging.Bool("has_audio", entry.HasAudio),
		logging.Bool("has_subtitles", entry.HasSubtitles),
	)
	return nil
}

// hasSidecar reports whether a subtitle file already sits next to path.
func hasSidecar(path string) bool {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".srt", ".vtt"} {
		if _, err := os.Stat(stem + ext); err == nil {
			return true
		}
	}
	return false
}
