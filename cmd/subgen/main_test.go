package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/pipeline"
)

const ffprobeStub = `#!/bin/sh
printf '%s' '{"streams":[{"index":0,"codec_type":"video"},{"index":1,"codec_type":"audio","channels":2,"tags":{"language":"eng"}}],"format":{"duration":"4.0","size":"5"}}'
`

const ffmpegStub = `#!/bin/sh
if [ "$1" = "-version" ]; then echo "ffmpeg version 7.0-stub"; exit 0; fi
case "$*" in
  *broken*) echo "invalid data found" >&2; exit 1 ;;
esac
for arg; do last="$arg"; done
printf 'data' > "$last"
`

const whisperStub = `#!/bin/sh
dir=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output_dir" ]; then dir="$2"; fi
  shift
done
printf '%s' '{"language":"en","segments":[{"start":0,"end":2,"text":" Hello"},{"start":2,"end":4,"text":" World"}]}' > "$dir/audio.json"
`

type cliEnv struct {
	base       string
	mediaDir   string
	workDir    string
	configPath string
	dbPath     string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	home := filepath.Join(base, "home")
	bin := filepath.Join(base, "bin")
	env := &cliEnv{
		base:       base,
		mediaDir:   filepath.Join(base, "media"),
		workDir:    filepath.Join(base, "work"),
		configPath: filepath.Join(base, "subgen.toml"),
		dbPath:     filepath.Join(base, "catalog.db"),
	}
	for _, dir := range []string{home, bin, env.mediaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", home)
	t.Setenv("PATH", bin)
	for _, key := range []string{"SUBGEN_MODEL", "SUBGEN_LANGUAGE", "HF_TOKEN", "HUGGING_FACE_HUB_TOKEN"} {
		t.Setenv(key, "")
	}

	stubs := map[string]string{"ffprobe": ffprobeStub, "ffmpeg": ffmpegStub, "whisper": whisperStub}
	for name, script := range stubs {
		if err := os.WriteFile(filepath.Join(bin, name), []byte(script), 0o755); err != nil {
			t.Fatalf("write %s stub: %v", name, err)
		}
	}

	configText := fmt.Sprintf(`[paths]
work_dir = %q

[recognizer]
backend = "whisper"
model = "tiny"

[catalog]
path = %q
`, env.workDir, env.dbPath)
	if err := os.WriteFile(env.configPath, []byte(configText), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliEnv) media(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.mediaDir, name)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return path
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTranscribeWritesSubtitles(t *testing.T) {
	env := setupCLIEnv(t)
	source := env.media(t, "talk.mkv")

	out, err := env.run(t, "transcribe", source)
	if err != nil {
		t.Fatalf("transcribe failed: %v\n%s", err, out)
	}
	data, err := os.ReadFile(filepath.Join(env.mediaDir, "talk.vtt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "WEBVTT\n\n00:00:00.000 --> 00:00:02.000\nHello\n\n00:00:02.000 --> 00:00:04.000\nWorld\n"
	if string(data) != want {
		t.Fatalf("unexpected vtt:\n%q", data)
	}
	if !strings.Contains(out, "ok    "+source) || !strings.Contains(out, "1 succeeded, 0 skipped, 0 failed") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	entries, err := os.ReadDir(env.workDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("work dir not cleaned: %v", entries)
	}

	out, err = env.run(t, "transcribe", source)
	if err != nil {
		t.Fatalf("second run should skip: %v", err)
	}
	if !strings.Contains(out, "skip  "+source) {
		t.Fatalf("expected skip line, got:\n%s", out)
	}
}

func TestTranscribeBatchContinuesAfterFailure(t *testing.T) {
	env := setupCLIEnv(t)
	a := env.media(t, "a.mkv")
	b := env.media(t, "broken.mkv")
	c := env.media(t, "c.mkv")

	out, err := env.run(t, "transcribe", "--format", "srt", a, b, c)
	if err == nil {
		t.Fatalf("expected non-zero exit when a file fails\n%s", out)
	}
	for _, name := range []string{"a.srt", "c.srt"} {
		if _, err := os.Stat(filepath.Join(env.mediaDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(env.mediaDir, "broken.srt")); !os.IsNotExist(err) {
		t.Fatalf("failed file must not produce output: %v", err)
	}
	if !strings.Contains(out, "FAIL  "+b+" [tool]") || !strings.Contains(out, "2 succeeded, 0 skipped, 1 failed") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTranscribeMuxMode(t *testing.T) {
	env := setupCLIEnv(t)
	source := env.media(t, "clip.mp4")

	out, err := env.run(t, "transcribe", "--mode", "mux", source)
	if err != nil {
		t.Fatalf("mux failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(env.mediaDir, "clip.subtitled.mkv")); err != nil {
		t.Fatalf("expected muxed output: %v", err)
	}
}

func TestTranscribeRejectsBadFlags(t *testing.T) {
	env := setupCLIEnv(t)
	source := env.media(t, "talk.mkv")
	if _, err := env.run(t, "transcribe", "--format", "ass", source); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := env.run(t, "transcribe"); err == nil {
		t.Fatal("expected error when no files are given")
	}
}

func TestTranscribeFailsPreflightWithoutTools(t *testing.T) {
	env := setupCLIEnv(t)
	t.Setenv("PATH", t.TempDir())
	source := env.media(t, "talk.mkv")
	_, err := env.run(t, "transcribe", source)
	if err == nil || !strings.Contains(err.Error(), "FFmpeg") {
		t.Fatalf("expected preflight failure naming FFmpeg, got %v", err)
	}
}

func TestCatalogScanListRun(t *testing.T) {
	env := setupCLIEnv(t)
	env.media(t, "Jim Rohn - Goals.mkv")
	env.media(t, "cooking.mkv")
	keywords := filepath.Join(env.base, "keywords.txt")
	if err := os.WriteFile(keywords, []byte("# speakers\nrohn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "catalog", "scan", env.mediaDir, "--keywords-file", keywords)
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 media files: 1 added") {
		t.Fatalf("unexpected scan output:\n%s", out)
	}

	out, err = env.run(t, "catalog", "list", "--pending", "--json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var pending []map[string]any
	if err := json.Unmarshal([]byte(out), &pending); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(pending) != 1 || !strings.HasSuffix(pending[0]["path"].(string), "Jim Rohn - Goals.mkv") {
		t.Fatalf("unexpected pending list %v", pending)
	}

	out, err = env.run(t, "catalog", "run", "--limit", "5")
	if err != nil {
		t.Fatalf("catalog run failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(env.mediaDir, "Jim Rohn - Goals.vtt")); err != nil {
		t.Fatalf("expected subtitle output: %v", err)
	}

	out, err = env.run(t, "catalog", "list", "--status", "done")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Jim Rohn - Goals.mkv") {
		t.Fatalf("expected done entry in table:\n%s", out)
	}

	out, err = env.run(t, "catalog", "run")
	if err != nil || !strings.Contains(out, "Nothing pending") {
		t.Fatalf("expected nothing pending, got %v\n%s", err, out)
	}
}

func TestDepsCommand(t *testing.T) {
	env := setupCLIEnv(t)
	out, err := env.run(t, "deps")
	if err != nil {
		t.Fatalf("deps failed: %v\n%s", err, out)
	}
	for _, want := range []string{"FFmpeg", "FFprobe", "Whisper", "absent (optional)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in deps output:\n%s", want, out)
		}
	}

	if err := os.Remove(filepath.Join(env.base, "bin", "whisper")); err != nil {
		t.Fatal(err)
	}
	out, err = env.run(t, "deps")
	if err == nil || !strings.Contains(err.Error(), "Whisper") {
		t.Fatalf("expected missing Whisper error, got %v\n%s", err, out)
	}
}

func TestConfigCommands(t *testing.T) {
	env := setupCLIEnv(t)
	target := filepath.Join(env.base, "new", "config.toml")

	out, err := env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %s", out)
	}
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, err := env.run(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	out, err = env.run(t, "config", "validate")
	if err != nil || !strings.Contains(out, "Configuration valid") {
		t.Fatalf("validate failed: %v\n%s", err, out)
	}

	t.Setenv("HF_TOKEN", "secret-token")
	out, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "[recognizer]") || !strings.Contains(out, "********") || strings.Contains(out, "secret-token") {
		t.Fatalf("unexpected show output:\n%s", out)
	}
}

func TestInvalidLogLevelRejected(t *testing.T) {
	env := setupCLIEnv(t)
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", env.configPath, "--log-level", "loud", "deps"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "failure", err: errors.New("1 of 3 files failed"), want: 1},
		{name: "interrupted", err: pipeline.Summary{Succeeded: 1, Interrupted: 2}.Err(), want: exitInterrupted},
		{name: "cancelled", err: context.Canceled, want: exitInterrupted},
		{name: "cancelled mid-file", err: pipeline.Summary{Succeeded: 2, Interrupted: 1}.Err(), want: exitInterrupted},
		{name: "cancelled after a failure", err: pipeline.Summary{Failed: 1, Interrupted: 2}.Err(), want: exitInterrupted},
		{name: "failed only", err: pipeline.Summary{Succeeded: 1, Failed: 1}.Err(), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
