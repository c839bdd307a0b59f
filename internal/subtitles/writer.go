package subtitles

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"subgen/internal/services"
	"subgen/internal/transcript"
)

const vttHeader = "WEBVTT"

// Write renders segments in the given format. Segments are written in the
// order given; an empty slice yields a valid document with no cues.
func Write(w io.Writer, format Format, segments []transcript.Segment) error {
	bw := bufio.NewWriter(w)
	var err error
	switch format {
	case FormatVTT:
		err = writeVTT(bw, segments)
	case FormatSRT:
		err = writeSRT(bw, segments)
	default:
		return services.Wrap(services.ErrValidation, "subtitles", "write", "unsupported format "+strconv.Quote(string(format)), nil)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// Render returns the document Write would produce.
func Render(format Format, segments []transcript.Segment) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, format, segments); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeVTT(w *bufio.Writer, segments []transcript.Segment) error {
	w.WriteString(vttHeader)
	w.WriteByte('\n')
	for _, seg := range segments {
		start, end := cueBounds(seg.Start, seg.End)
		w.WriteByte('\n')
		w.WriteString(formatTimestamp(start, '.'))
		w.WriteString(" --> ")
		w.WriteString(formatTimestamp(end, '.'))
		w.WriteByte('\n')
		if text := CleanText(seg.Text); text != "" {
			w.WriteString(text)
			w.WriteByte('\n')
		}
	}
	return nil
}

func writeSRT(w *bufio.Writer, segments []transcript.Segment) error {
	for i, seg := range segments {
		start, end := cueBounds(seg.Start, seg.End)
		w.WriteString(strconv.Itoa(i + 1))
		w.WriteByte('\n')
		w.WriteString(formatTimestamp(start, ','))
		w.WriteString(" --> ")
		w.WriteString(formatTimestamp(end, ','))
		w.WriteByte('\n')
		if text := CleanText(seg.Text); text != "" {
			w.WriteString(text)
			w.WriteByte('\n')
		}
		w.WriteByte('\n')
	}
	return nil
}

// CleanText strips surrounding whitespace, normalizes line endings, trims
// each line, and drops blank lines so multi-line text cannot end a cue
// block early. "-->" becomes "->": a cue payload line may not contain the
// timing arrow.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := lines[:0]
	for _, line := range lines {
		for strings.Contains(line, "-->") {
			line = strings.ReplaceAll(line, "-->", "->")
		}
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
