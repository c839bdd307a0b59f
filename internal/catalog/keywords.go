package catalog

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// LoadKeywords reads one keyword per line from path and compiles a filename
// matcher. Lines starting with # and blank lines are ignored. An empty file
// yields a nil matcher, which accepts every file.
func LoadKeywords(path string) (*regexp.Regexp, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keywords file: %w", err)
	}
	defer f.Close()

	var keywords []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		if line = strings.TrimSpace(line); line != "" {
			keywords = append(keywords, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	return KeywordPattern(keywords), nil
}

// KeywordPattern builds a case-insensitive matcher that accepts a keyword
// anchored to a word boundary on either side, so "rohn" matches "Jim Rohn"
// and "rohnsen" but not "brohna".
func KeywordPattern(keywords []string) *regexp.Regexp {
	seen := make(map[string]struct{}, len(keywords))
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	if len(quoted) == 0 {
		return nil
	}
	sort.Strings(quoted)
	alt := "(" + strings.Join(quoted, "|") + ")"
	return regexp.MustCompile(`(?i)(\b` + alt + `|` + alt + `\b)`)
}
