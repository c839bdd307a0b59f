package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKeywordPattern(t *testing.T) {
	re := KeywordPattern([]string{"rohn", "brian tracy", "media.ccc", " ", "rohn"})
	tests := []struct {
		name string
		want bool
	}{
		{"Jim Rohn - Goals.mkv", true},
		{"rohnsen interview.mkv", true},
		{"ABrohn.mkv", true},
		{"brohna.mkv", false},
		{"BRIAN TRACY talk.mp4", true},
		{"media.ccc 37c3.mp4", true},
		{"mediaXccc.mp4", false},
		{"cooking.mkv", false},
	}
	for _, tt := range tests {
		if got := re.MatchString(tt.name); got != tt.want {
			t.Fatalf("match(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if KeywordPattern(nil) != nil {
		t.Fatal("expected nil matcher for no keywords")
	}
}

func TestLoadKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.txt")
	content := "# speakers\nrohn\n\n  huberman  \n#ignored\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	re, err := LoadKeywords(path)
	if err != nil {
		t.Fatalf("LoadKeywords failed: %v", err)
	}
	if !re.MatchString("Huberman Lab.mkv") || re.MatchString("ignored.mkv") {
		t.Fatalf("unexpected pattern %s", re)
	}

	if _, err := LoadKeywords(filepath.Join(t.TempDir(), "none.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFilterAccepts(t *testing.T) {
	f := Filter{Extensions: []string{".mkv", ".srt"}}
	if !f.Accepts("/m/A.MKV") {
		t.Fatal("extension match should be case-insensitive")
	}
	if f.Accepts("/m/a.srt") {
		t.Fatal("subtitle sidecars are never media")
	}
	if f.Accepts("/m/a.mp4") {
		t.Fatal("unlisted extension accepted")
	}
}
