package subtitles

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subgen/internal/services"
)

func TestSubtitlePath(t *testing.T) {
	if got := SubtitlePath("/media/show/ep1.mkv", "", FormatVTT); got != "/media/show/ep1.vtt" {
		t.Fatalf("unexpected sibling path %q", got)
	}
	if got := SubtitlePath("/media/show/ep1.final.mp4", "/out", FormatSRT); got != "/out/ep1.final.srt" {
		t.Fatalf("unexpected output dir path %q", got)
	}
}

func TestResolveOutputPathPolicies(t *testing.T) {
	dir := t.TempDir()
	candidate := filepath.Join(dir, "movie.vtt")

	path, skip, err := ResolveOutputPath(candidate, ConflictFail)
	if err != nil || skip || path != candidate {
		t.Fatalf("free path: got %q %v %v", path, skip, err)
	}

	writeTestFile(t, candidate, "existing")
	writeTestFile(t, filepath.Join(dir, "movie.1.vtt"), "existing")

	path, skip, err = ResolveOutputPath(candidate, ConflictSkip)
	if err != nil || !skip || path != candidate {
		t.Fatalf("skip: got %q %v %v", path, skip, err)
	}

	path, skip, err = ResolveOutputPath(candidate, ConflictRename)
	if err != nil || skip {
		t.Fatalf("rename: unexpected %v %v", skip, err)
	}
	if want := filepath.Join(dir, "movie.2.vtt"); path != want {
		t.Fatalf("rename: got %q want %q", path, want)
	}

	_, _, err = ResolveOutputPath(candidate, ConflictFail)
	if !errors.Is(err, services.ErrOutputConflict) {
		t.Fatalf("fail: expected conflict error, got %v", err)
	}
}

func TestParseConflictPolicy(t *testing.T) {
	if p, err := ParseConflictPolicy(""); err != nil || p != ConflictSkip {
		t.Fatalf("empty policy: %q %v", p, err)
	}
	if p, err := ParseConflictPolicy(" Rename "); err != nil || p != ConflictRename {
		t.Fatalf("rename policy: %q %v", p, err)
	}
	if _, err := ParseConflictPolicy("overwrite"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWriteFileNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.srt")

	if err := WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	err := WriteFile(path, []byte("second"))
	if !errors.Is(err, services.ErrOutputConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "first" {
		t.Fatalf("existing file was clobbered: %q", data)
	}
	assertOnlyFiles(t, dir, "movie.srt")
}

func TestWriteFileMissingDirectory(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "movie.srt"), []byte("x"))
	if !errors.Is(err, services.ErrOutputWrite) {
		t.Fatalf("expected output write error, got %v", err)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func assertOnlyFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
	}
	if len(entries) != len(names) {
		var got []string
		for _, e := range entries {
			got = append(got, e.Name())
		}
		t.Fatalf("directory %s contains %v, want %v", dir, got, names)
	}
	for _, e := range entries {
		if !want[e.Name()] {
			t.Fatalf("unexpected file %s in %s", e.Name(), dir)
		}
	}
}
