package subtitles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"subgen/internal/services"
)

// ConflictPolicy decides what happens when an output path already exists.
// Existing files are never overwritten.
type ConflictPolicy string

const (
	// ConflictSkip treats an existing output as already done.
	ConflictSkip ConflictPolicy = "skip"
	// ConflictRename picks name.1.ext, name.2.ext, ... deterministically.
	ConflictRename ConflictPolicy = "rename"
	// ConflictFail reports an output conflict error.
	ConflictFail ConflictPolicy = "fail"
)

const maxRenameAttempts = 999

// ParseConflictPolicy validates a policy name.
func ParseConflictPolicy(value string) (ConflictPolicy, error) {
	switch policy := ConflictPolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case ConflictSkip, ConflictRename, ConflictFail:
		return policy, nil
	case "":
		return ConflictSkip, nil
	default:
		return "", services.Wrap(services.ErrValidation, "subtitles", "conflict policy", fmt.Sprintf("unsupported value %q", value), nil)
	}
}

// SubtitlePath returns <dir>/<stem><ext> for source, where dir is outputDir
// when set and the source's directory otherwise.
func SubtitlePath(source, outputDir string, format Format) string {
	return siblingPath(source, outputDir, "", format.Extension())
}

func siblingPath(source, outputDir, suffix, ext string) string {
	dir := strings.TrimSpace(outputDir)
	if dir == "" {
		dir = filepath.Dir(source)
	}
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+suffix+ext)
}

// ResolveOutputPath applies policy to candidate. It returns the path to
// write and skip=true when the policy says the existing file means the job
// is done.
func ResolveOutputPath(candidate string, policy ConflictPolicy) (path string, skip bool, err error) {
	exists, err := pathExists(candidate)
	if err != nil {
		return "", false, services.Wrap(services.ErrOutputWrite, "subtitles", "resolve output", candidate, err)
	}
	if !exists {
		return candidate, false, nil
	}
	switch policy {
	case ConflictSkip, "":
		return candidate, true, nil
	case ConflictFail:
		return "", false, services.Wrap(services.ErrOutputConflict, "subtitles", "resolve output", candidate, nil)
	case ConflictRename:
		ext := filepath.Ext(candidate)
		stem := strings.TrimSuffix(candidate, ext)
		for n := 1; n <= maxRenameAttempts; n++ {
			next := stem + "." + strconv.Itoa(n) + ext
			exists, err := pathExists(next)
			if err != nil {
				return "", false, services.Wrap(services.ErrOutputWrite, "subtitles", "resolve output", next, err)
			}
			if !exists {
				return next, false, nil
			}
		}
		return "", false, services.Wrap(services.ErrOutputConflict, "subtitles", "resolve output", fmt.Sprintf("%s: no free name after %d attempts", candidate, maxRenameAttempts), nil)
	default:
		return "", false, services.Wrap(services.ErrValidation, "subtitles", "resolve output", fmt.Sprintf("unsupported conflict policy %q", policy), nil)
	}
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// WriteFile writes data to path without ever replacing an existing file.
// Data lands in a hidden temp file in the same directory first; a partial
// write never appears under the final name.
func WriteFile(path string, data []byte) error {
	tmp, err := createTemp(path)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return services.Wrap(services.ErrOutputWrite, "subtitles", "write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return services.Wrap(services.ErrOutputWrite, "subtitles", "sync", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrOutputWrite, "subtitles", "close", path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrOutputWrite, "subtitles", "chmod", path, err)
	}
	return publish(tmpPath, path)
}

// createTemp reserves a hidden temp file next to finalPath so the publish
// step stays on one filesystem.
func createTemp(finalPath string) (*os.File, error) {
	dir := filepath.Dir(finalPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(finalPath)+".*.tmp")
	if err != nil {
		return nil, services.Wrap(services.ErrOutputWrite, "subtitles", "create temp", finalPath, err)
	}
	return tmp, nil
}

// publish moves tmpPath to finalPath, failing with ErrOutputConflict if
// finalPath appeared in the meantime. The temp file is gone afterwards
// whatever the outcome.
func publish(tmpPath, finalPath string) error {
	defer os.Remove(tmpPath)

	err := os.Link(tmpPath, finalPath)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return services.Wrap(services.ErrOutputConflict, "subtitles", "publish", finalPath, nil)
	}
	// Filesystems without hard links (some FUSE and SMB mounts) fall back to
	// check-then-rename.
	exists, statErr := pathExists(finalPath)
	if statErr != nil {
		return services.Wrap(services.ErrOutputWrite, "subtitles", "publish", finalPath, statErr)
	}
	if exists {
		return services.Wrap(services.ErrOutputConflict, "subtitles", "publish", finalPath, nil)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return services.Wrap(services.ErrOutputWrite, "subtitles", "publish", finalPath, err)
	}
	return nil
}
