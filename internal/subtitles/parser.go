package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"subgen/internal/services"
	"subgen/internal/transcript"
)

// Parse reads a WebVTT or SubRip document back into segments. Cue
// identifiers, cue settings, NOTE/STYLE/REGION blocks, a UTF-8 BOM, and CRLF
// line endings are tolerated.
func Parse(format Format, r io.Reader) ([]transcript.Segment, error) {
	if format != FormatVTT && format != FormatSRT {
		return nil, services.Wrap(services.ErrValidation, "subtitles", "parse", fmt.Sprintf("unsupported format %q", format), nil)
	}
	blocks, err := readBlocks(r)
	if err != nil {
		return nil, err
	}
	if format == FormatVTT {
		if len(blocks) == 0 || !strings.HasPrefix(blocks[0][0], vttHeader) {
			return nil, fmt.Errorf("parse vtt: missing %s header", vttHeader)
		}
		blocks = blocks[1:]
	}

	segments := make([]transcript.Segment, 0, len(blocks))
	for _, block := range blocks {
		if format == FormatVTT && isVTTMetadataBlock(block[0]) {
			continue
		}
		timing := -1
		for i, line := range block {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			return nil, fmt.Errorf("parse %s: cue without timing line: %q", format, block[0])
		}
		seg, err := parseTimingLine(block[timing])
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", format, err)
		}
		seg.Text = strings.Join(block[timing+1:], "\n")
		segments = append(segments, seg)
	}
	return segments, nil
}

func isVTTMetadataBlock(first string) bool {
	for _, prefix := range []string{"NOTE", "STYLE", "REGION"} {
		if first == prefix || strings.HasPrefix(first, prefix+" ") || strings.HasPrefix(first, prefix+"\t") {
			return true
		}
	}
	return false
}

func parseTimingLine(line string) (transcript.Segment, error) {
	left, right, _ := strings.Cut(line, "-->")
	start, err := parseTimestamp(left)
	if err != nil {
		return transcript.Segment{}, err
	}
	fields := strings.Fields(right)
	if len(fields) == 0 {
		return transcript.Segment{}, fmt.Errorf("missing end timestamp in %q", line)
	}
	end, err := parseTimestamp(fields[0])
	if err != nil {
		return transcript.Segment{}, err
	}
	return transcript.Segment{Start: start, End: end}, nil
}

// readBlocks splits input into runs of non-blank lines.
func readBlocks(r io.Reader) ([][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var blocks [][]string
	var current []string
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks, nil
}
