package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"subgen/internal/logging"
	"subgen/internal/media/ffmpeg"
	"subgen/internal/media/ffprobe"
	"subgen/internal/recognizer"
	"subgen/internal/services"
	"subgen/internal/subtitles"
	"subgen/internal/transcript"
)

type fakeProber struct {
	results map[string]ffprobe.Result
	calls   int
}

func (f *fakeProber) Inspect(_ context.Context, path string) (ffprobe.Result, error) {
	f.calls++
	if r, ok := f.results[filepath.Base(path)]; ok {
		return r, nil
	}
	return ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "audio"}},
		Format:  ffprobe.Format{Duration: "4.0"},
	}, nil
}

type fakeExtractor struct {
	t       *testing.T
	fail    map[string]error
	remuxed []ffmpeg.RemuxRequest
	tracks  []int
}

func (f *fakeExtractor) ExtractAudio(_ context.Context, source, dest string, track int) error {
	f.tracks = append(f.tracks, track)
	if err, ok := f.fail[filepath.Base(source)]; ok {
		// ffmpeg may leave a partial file behind before failing.
		_ = os.WriteFile(dest, []byte("partial"), 0o644)
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "extract audio", source, err)
	}
	writeSilence(f.t, dest, 2*time.Second)
	return nil
}

func (f *fakeExtractor) Remux(_ context.Context, req ffmpeg.RemuxRequest) error {
	f.remuxed = append(f.remuxed, req)
	return os.WriteFile(req.Output, []byte("matroska"), 0o644)
}

type fakeEngine struct {
	result transcript.Transcript
	err    error
	calls  []recognizer.Options
	// during runs inside Transcribe before the result is returned.
	during func()
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Transcribe(_ context.Context, audioPath string, opts recognizer.Options) (transcript.Transcript, error) {
	f.calls = append(f.calls, opts)
	if f.during != nil {
		f.during()
	}
	if _, err := os.Stat(audioPath); err != nil {
		return transcript.Transcript{}, err
	}
	if f.err != nil {
		return transcript.Transcript{}, f.err
	}
	return f.result, nil
}

func writeSilence(t *testing.T, path string, length time.Duration) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	samples := int(length.Seconds() * 16000)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           make([]int, samples),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
}

func twoSegments() transcript.Transcript {
	return transcript.Transcript{
		Language: "en",
		Segments: []transcript.Segment{
			{Start: 0, End: 2 * time.Second, Text: "Hello"},
			{Start: 2 * time.Second, End: 4 * time.Second, Text: "World"},
		},
	}
}

type harness struct {
	mediaDir  string
	workRoot  string
	prober    *fakeProber
	extractor *fakeExtractor
	engine    *fakeEngine
	processor *Processor
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		mediaDir:  t.TempDir(),
		workRoot:  t.TempDir(),
		prober:    &fakeProber{results: map[string]ffprobe.Result{}},
		extractor: &fakeExtractor{t: t, fail: map[string]error{}},
		engine:    &fakeEngine{result: twoSegments()},
	}
	if opts.Mode == "" {
		opts.Mode = ModeSubtitle
	}
	if opts.Format == "" {
		opts.Format = subtitles.FormatVTT
	}
	opts.WorkDir = h.workRoot
	processor, err := NewProcessor(opts, h.prober, h.extractor, h.engine, logging.NewNop())
	if err != nil {
		t.Fatalf("NewProcessor returned error: %v", err)
	}
	h.processor = processor
	return h
}

func (h *harness) media(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(h.mediaDir, name)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return path
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func assertNoWorkDirs(t *testing.T, h *harness) {
	t.Helper()
	if names := dirNames(t, h.workRoot); len(names) != 0 {
		t.Fatalf("work root not cleaned: %v", names)
	}
}

func TestProcessWritesWebVTT(t *testing.T) {
	h := newHarness(t, Options{})
	source := h.media(t, "lecture.mp4")

	result := h.processor.Process(context.Background(), source)
	if result.Status != StatusSucceeded || result.Err != nil {
		t.Fatalf("unexpected result %+v", result)
	}
	want := "WEBVTT\n\n00:00:00.000 --> 00:00:02.000\nHello\n\n00:00:02.000 --> 00:00:04.000\nWorld\n"
	data, err := os.ReadFile(filepath.Join(h.mediaDir, "lecture.vtt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != want {
		t.Fatalf("unexpected vtt:\n%q\nwant\n%q", data, want)
	}
	if result.OutputPath != filepath.Join(h.mediaDir, "lecture.vtt") || result.Segments != 2 || result.Language != "en" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.AudioLength != 2*time.Second {
		t.Fatalf("expected wav duration, got %v", result.AudioLength)
	}
	if result.JobID == "" {
		t.Fatal("expected job id")
	}
	if len(h.engine.calls) != 1 || h.engine.calls[0].MediaLength != 2*time.Second {
		t.Fatalf("unexpected recognizer calls %+v", h.engine.calls)
	}
	assertNoWorkDirs(t, h)
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	h := newHarness(t, Options{Format: subtitles.FormatSRT})
	sources := []string{h.media(t, "a.mkv"), h.media(t, "b.mkv"), h.media(t, "c.mkv")}
	h.extractor.fail["b.mkv"] = errors.New("exit status 1")

	var seen []string
	summary := h.processor.RunBatch(context.Background(), sources, BatchOptions{
		OnResult: func(r Result) { seen = append(seen, filepath.Base(r.Source)+":"+string(r.Status)) },
	})

	if summary.Succeeded != 2 || summary.Failed != 1 || summary.Skipped != 0 || summary.Interrupted != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Err() == nil {
		t.Fatal("a failed file must make the batch fail")
	}
	if strings.Join(seen, ",") != "a.mkv:succeeded,b.mkv:failed,c.mkv:succeeded" {
		t.Fatalf("unexpected order %v", seen)
	}
	if !errors.Is(summary.Results[1].Err, services.ErrExternalTool) {
		t.Fatalf("expected tool error for b.mkv, got %v", summary.Results[1].Err)
	}
	got := dirNames(t, h.mediaDir)
	want := []string{"a.mkv", "a.srt", "b.mkv", "c.mkv", "c.srt"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("media dir %v, want %v", got, want)
	}
	assertNoWorkDirs(t, h)
}

func TestProcessSkipsExistingOutput(t *testing.T) {
	h := newHarness(t, Options{})
	source := h.media(t, "movie.mkv")
	existing := filepath.Join(h.mediaDir, "movie.vtt")
	if err := os.WriteFile(existing, []byte("WEBVTT\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result := h.processor.Process(context.Background(), source)
	if result.Status != StatusSkipped || result.OutputPath != existing {
		t.Fatalf("unexpected result %+v", result)
	}
	if h.prober.calls != 0 || len(h.engine.calls) != 0 {
		t.Fatal("skipped files must not be probed or transcribed")
	}

	summary := h.processor.RunBatch(context.Background(), []string{source}, BatchOptions{})
	if summary.Skipped != 1 || summary.Err() != nil {
		t.Fatalf("skips count as success, got %+v", summary)
	}
}

func TestProcessRenamePolicy(t *testing.T) {
	h := newHarness(t, Options{OnConflict: subtitles.ConflictRename})
	source := h.media(t, "movie.mkv")
	if err := os.WriteFile(filepath.Join(h.mediaDir, "movie.vtt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	result := h.processor.Process(context.Background(), source)
	if result.Status != StatusSucceeded || result.OutputPath != filepath.Join(h.mediaDir, "movie.1.vtt") {
		t.Fatalf("unexpected result %+v", result)
	}
	data, _ := os.ReadFile(filepath.Join(h.mediaDir, "movie.vtt"))
	if string(data) != "old" {
		t.Fatal("existing output was modified")
	}
}

func TestProcessFailPolicy(t *testing.T) {
	h := newHarness(t, Options{OnConflict: subtitles.ConflictFail})
	source := h.media(t, "movie.mkv")
	if err := os.WriteFile(filepath.Join(h.mediaDir, "movie.vtt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := h.processor.Process(context.Background(), source)
	if result.Status != StatusFailed || !errors.Is(result.Err, services.ErrOutputConflict) {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestProcessInputErrors(t *testing.T) {
	h := newHarness(t, Options{})
	h.prober.results["silent.mkv"] = ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}}

	cases := map[string]string{
		"missing": filepath.Join(h.mediaDir, "missing.mkv"),
		"dir":     h.mediaDir,
		"silent":  h.media(t, "silent.mkv"),
	}
	for name, source := range cases {
		result := h.processor.Process(context.Background(), source)
		if result.Status != StatusFailed || !errors.Is(result.Err, services.ErrInputNotFound) {
			t.Fatalf("%s: expected input error, got %+v", name, result)
		}
	}
	if names := dirNames(t, h.mediaDir); strings.Join(names, ",") != "silent.mkv" {
		t.Fatalf("no output expected, got %v", names)
	}
	assertNoWorkDirs(t, h)
}

func TestProcessRecognitionFailureLeavesNothing(t *testing.T) {
	h := newHarness(t, Options{})
	h.engine.err = errors.New("model crashed")
	source := h.media(t, "talk.mp3")

	result := h.processor.Process(context.Background(), source)
	if result.Status != StatusFailed || !errors.Is(result.Err, services.ErrRecognition) {
		t.Fatalf("expected recognition error, got %+v", result)
	}
	if names := dirNames(t, h.mediaDir); strings.Join(names, ",") != "talk.mp3" {
		t.Fatalf("no output expected, got %v", names)
	}
	assertNoWorkDirs(t, h)
}

func TestProcessMuxMode(t *testing.T) {
	h := newHarness(t, Options{Mode: ModeMux})
	h.prober.results["clip.mp4"] = ffprobe.Result{Streams: []ffprobe.Stream{
		{CodecType: "video"},
		{CodecType: "audio", Tags: map[string]string{"language": "eng"}},
		{CodecType: "subtitle", CodecName: "mov_text"},
	}}
	source := h.media(t, "clip.mp4")

	result := h.processor.Process(context.Background(), source)
	if result.Status != StatusSucceeded {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.OutputPath != filepath.Join(h.mediaDir, "clip.subtitled.mkv") {
		t.Fatalf("unexpected output %q", result.OutputPath)
	}
	if len(h.extractor.remuxed) != 1 {
		t.Fatalf("expected one remux, got %d", len(h.extractor.remuxed))
	}
	req := h.extractor.remuxed[0]
	if !req.ConvertSubtitles || req.SubtitleIndex != 1 || req.Language != "eng" {
		t.Fatalf("unexpected remux request %+v", req)
	}
	if names := dirNames(t, h.mediaDir); strings.Join(names, ",") != "clip.mp4,clip.subtitled.mkv" {
		t.Fatalf("unexpected media dir %v", names)
	}
	assertNoWorkDirs(t, h)
}

func TestProcessMuxAudioOnlyAndUnsupported(t *testing.T) {
	h := newHarness(t, Options{Mode: ModeMux})
	h.prober.results["song.mp3"] = ffprobe.Result{Streams: []ffprobe.Stream{
		{CodecType: "audio"},
		{CodecType: "video", Disposition: ffprobe.Disposition{AttachedPic: 1}},
	}}
	song := h.media(t, "song.mp3")
	notes := h.media(t, "notes.txt")

	result := h.processor.Process(context.Background(), song)
	if result.Status != StatusSucceeded || filepath.Ext(result.OutputPath) != ".mka" {
		t.Fatalf("expected .mka output, got %+v", result)
	}

	result = h.processor.Process(context.Background(), notes)
	if result.Status != StatusFailed || !errors.Is(result.Err, services.ErrUnsupportedContainer) {
		t.Fatalf("expected unsupported container, got %+v", result)
	}
	names := dirNames(t, h.mediaDir)
	if strings.Join(names, ",") != "notes.txt,song.mp3,song.subtitled.mka" {
		t.Fatalf("unexpected media dir %v", names)
	}
	assertNoWorkDirs(t, h)
}

func TestProcessSelectsHintedTrack(t *testing.T) {
	h := newHarness(t, Options{Language: "ja"})
	h.prober.results["anime.mkv"] = ffprobe.Result{Streams: []ffprobe.Stream{
		{CodecType: "video"},
		{CodecType: "audio", Tags: map[string]string{"language": "eng"}, Disposition: ffprobe.Disposition{Default: 1}},
		{CodecType: "audio", Tags: map[string]string{"language": "jpn"}},
	}}
	result := h.processor.Process(context.Background(), h.media(t, "anime.mkv"))
	if result.Status != StatusSucceeded {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(h.extractor.tracks) != 1 || h.extractor.tracks[0] != 1 {
		t.Fatalf("expected Japanese track 0:a:1, got %v", h.extractor.tracks)
	}
	if h.engine.calls[0].Language != "ja" {
		t.Fatalf("language hint not forwarded: %+v", h.engine.calls[0])
	}
}

func TestRunBatchStopsBetweenFiles(t *testing.T) {
	h := newHarness(t, Options{})
	sources := []string{h.media(t, "1.mkv"), h.media(t, "2.mkv"), h.media(t, "3.mkv")}
	stop := make(chan struct{})

	summary := h.processor.RunBatch(context.Background(), sources, BatchOptions{
		Stop: stop,
		OnResult: func(Result) {
			select {
			case <-stop:
			default:
				close(stop)
			}
		},
	})
	if summary.Succeeded != 1 || summary.Interrupted != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Err() == nil || summary.Total() != 3 {
		t.Fatalf("interrupted batch must report an error, got %+v", summary)
	}
}

func TestRunBatchCancelledContext(t *testing.T) {
	h := newHarness(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary := h.processor.RunBatch(ctx, []string{h.media(t, "x.mkv")}, BatchOptions{})
	if summary.Interrupted != 1 || summary.Succeeded != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunBatchCancelledMidFile(t *testing.T) {
	tests := []struct {
		name            string
		failFirst       bool
		wantFailed      int
		wantInterrupted int
	}{
		{name: "cancel during first file", wantInterrupted: 3},
		{name: "cancel after a failure", failFirst: true, wantFailed: 1, wantInterrupted: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{})
			sources := []string{h.media(t, "1.mkv"), h.media(t, "2.mkv"), h.media(t, "3.mkv")}
			if tt.failFirst {
				h.extractor.fail["1.mkv"] = errors.New("exit status 1")
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			h.engine.during = cancel
			h.engine.err = context.Canceled

			var statuses []Status
			summary := h.processor.RunBatch(ctx, sources, BatchOptions{
				OnResult: func(r Result) { statuses = append(statuses, r.Status) },
			})
			if summary.Failed != tt.wantFailed || summary.Interrupted != tt.wantInterrupted || summary.Succeeded != 0 {
				t.Fatalf("unexpected summary %+v", summary)
			}
			if summary.Total() != len(sources) {
				t.Fatalf("total = %d, want %d", summary.Total(), len(sources))
			}
			if last := statuses[len(statuses)-1]; last != StatusInterrupted {
				t.Fatalf("aborted file status = %q, want %q", last, StatusInterrupted)
			}
			if err := summary.Err(); !errors.Is(err, context.Canceled) {
				t.Fatalf("summary error %v does not wrap context.Canceled", err)
			}
		})
	}
}

func TestNewProcessorValidatesOptions(t *testing.T) {
	engine := &fakeEngine{}
	prober := &fakeProber{}
	extractor := &fakeExtractor{}
	bad := []Options{
		{Mode: "burn", Format: subtitles.FormatVTT},
		{Mode: ModeSubtitle, Format: "ass"},
		{Mode: ModeSubtitle, Format: subtitles.FormatVTT, OnConflict: "overwrite"},
	}
	for _, opts := range bad {
		if _, err := NewProcessor(opts, prober, extractor, engine, nil); err == nil {
			t.Fatalf("expected error for %+v", opts)
		}
	}
	if _, err := NewProcessor(Options{Mode: ModeMux}, prober, extractor, engine, nil); err != nil {
		t.Fatalf("mux mode needs no format: %v", err)
	}
	if _, err := NewProcessor(Options{Mode: ModeSubtitle, Format: subtitles.FormatSRT}, nil, extractor, engine, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
