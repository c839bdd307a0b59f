package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "15:04:05"

// Keys printed right after the message, in this order, when present.
var leadingKeys = []string{
	FieldJobID,
	FieldStage,
	FieldEventType,
	"source",
	"output",
	"format",
	"container",
	"segments",
	"audio_duration",
	"elapsed",
	"speed_ratio",
	"language",
	"model",
	"backend",
	"error",
	FieldErrorHint,
	FieldImpact,
}

// consoleHandler renders one line per record:
//
//	12:04:05 INFO  pipeline: audio extracted job=1a2b3c4d stage=extract size_bytes="2.0 KiB"
//
// Debug records keep every field and end with the caller location.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool
	fields    []field
	group     string
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{mu: new(sync.Mutex), w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	fields := append([]field(nil), h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.group, a)
		return true
	})
	fields = lastValueWins(fields)

	var component string
	if i := indexOf(fields, FieldComponent); i >= 0 {
		component = plainString(fields[i].value)
		fields = append(fields[:i], fields[i+1:]...)
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	verbose := r.Level < slog.LevelInfo

	var b strings.Builder
	b.WriteString(ts.Local().Format(consoleTimeLayout))
	b.WriteByte(' ')
	label := levelLabel(r.Level)
	b.WriteString(label)
	b.WriteString(strings.Repeat(" ", 6-len(label)))
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	for _, f := range orderFields(fields) {
		if !verbose && hiddenAtInfo(f.key) {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(displayKey(f.key, verbose))
		b.WriteByte('=')
		b.WriteString(renderValue(f.key, f.value, verbose))
	}

	if h.addSource {
		if src, _ := runtime.CallersFrames([]uintptr{r.PC}).Next(); r.PC != 0 && src.File != "" {
			b.WriteString(" (")
			b.WriteString(filepath.Base(src.File))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(src.Line))
			b.WriteByte(')')
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, a := range attrs {
		next.fields = appendField(next.fields, h.group, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, group string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		prefix := group
		if a.Key != "" {
			prefix = joinKey(group, a.Key)
		}
		for _, member := range a.Value.Group() {
			dst = appendField(dst, prefix, member)
		}
		return dst
	}
	return append(dst, field{key: joinKey(group, a.Key), value: a.Value})
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// lastValueWins collapses repeated keys, keeping the first position and the
// latest value.
func lastValueWins(fields []field) []field {
	out := fields[:0]
	pos := make(map[string]int, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := pos[f.key]; ok {
			out[i].value = f.value
			continue
		}
		pos[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func indexOf(fields []field, key string) int {
	for i, f := range fields {
		if f.key == key {
			return i
		}
	}
	return -1
}

func orderFields(fields []field) []field {
	ordered := make([]field, 0, len(fields))
	taken := make([]bool, len(fields))
	for _, key := range leadingKeys {
		if i := indexOf(fields, key); i >= 0 {
			ordered = append(ordered, fields[i])
			taken[i] = true
		}
	}
	for i, f := range fields {
		if !taken[i] {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

// displayKey shortens job_id to job outside verbose mode.
func displayKey(key string, verbose bool) string {
	if key == FieldJobID && !verbose {
		return "job"
	}
	return key
}

// hiddenAtInfo reports keys that only matter when debugging.
func hiddenAtInfo(key string) bool {
	switch key {
	case FieldJobID:
		return false
	case FieldCorrelationID, "args", "work_dir", "audio_path", "temp_path":
		return true
	}
	return strings.HasSuffix(key, "_id")
}
