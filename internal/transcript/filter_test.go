package transcript

import (
	"testing"
	"time"
)

func seg(startSec, endSec float64, text string) Segment {
	return Segment{Start: Seconds(startSec), End: Seconds(endSec), Text: text}
}

func TestFilterRemovesIsolatedPhrase(t *testing.T) {
	segments := []Segment{
		seg(10, 12, "Hello there."),
		seg(14, 16, "General Kenobi."),
		seg(80, 82, "Thank you."),
		seg(150, 152, "Let's go."),
	}
	result := FilterHallucinations(segments, 200*time.Second)
	if len(result.Removals) != 1 || result.Removals[0].Reason != ReasonIsolated {
		t.Fatalf("expected one isolated removal, got %+v", result.Removals)
	}
	if len(result.Segments) != 3 {
		t.Fatalf("expected 3 remaining segments, got %d", len(result.Segments))
	}

	midDialogue := []Segment{
		seg(10, 12, "Hello there."),
		seg(14, 16, "Thank you."),
		seg(18, 20, "You're welcome."),
	}
	if result := FilterHallucinations(midDialogue, 200*time.Second); len(result.Removals) != 0 {
		t.Fatalf("mid-dialogue phrase must survive, got %+v", result.Removals)
	}
}

func TestFilterRemovesRepeatedRuns(t *testing.T) {
	segments := []Segment{
		seg(10, 12, "Real dialogue here."),
		seg(50, 52, "Thank you."),
		seg(67, 69, "Thank you."),
		seg(84, 86, "Thank you."),
		seg(101, 103, "Thank you."),
	}
	result := FilterHallucinations(segments, 200*time.Second)
	if len(result.Removals) != 4 {
		t.Fatalf("expected 4 removals, got %d", len(result.Removals))
	}
	for _, r := range result.Removals {
		if r.Reason != ReasonRepeated {
			t.Fatalf("unexpected reason %q", r.Reason)
		}
	}
	if len(result.Segments) != 1 || result.Segments[0].Text != "Real dialogue here." {
		t.Fatalf("unexpected survivors %+v", result.Segments)
	}
}

func TestFilterKeepsCloseRepeats(t *testing.T) {
	segments := []Segment{
		seg(1, 2, "No."),
		seg(3, 4, "No."),
		seg(5, 6, "No."),
	}
	if result := FilterHallucinations(segments, time.Minute); len(result.Removals) != 0 {
		t.Fatalf("rapid repeats are dialogue, got %+v", result.Removals)
	}
}

func TestFilterRemovesIsolatedMusic(t *testing.T) {
	segments := []Segment{
		seg(10, 12, "Hello there."),
		seg(55, 57, "♪♪"),
		seg(100, 102, "More dialogue."),
	}
	result := FilterHallucinations(segments, 200*time.Second)
	if len(result.Removals) != 1 || result.Removals[0].Reason != ReasonMusic {
		t.Fatalf("expected music removal, got %+v", result.Removals)
	}
}

func TestFilterTrailingSweep(t *testing.T) {
	length := 40 * time.Minute
	segments := []Segment{
		seg(100, 102, "Thank you."),
		seg(200, 202, "Dialogue."),
		seg(2290, 2292, "Goodbye, my friend."),
		seg(2300, 2302, "Thank you."),
		seg(2303, 2305, "¶ ¶"),
	}
	result := FilterHallucinations(segments, length)

	reasons := map[string]int{}
	for _, r := range result.Removals {
		reasons[r.Reason]++
	}
	if reasons[ReasonTrailing] != 1 || reasons[ReasonTrailMus] != 1 {
		t.Fatalf("unexpected trailing removals %v", reasons)
	}
	if reasons[ReasonIsolated] != 1 {
		t.Fatalf("early isolated phrase should also go, got %v", reasons)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected dialogue to survive, got %+v", result.Segments)
	}
}

func TestFilterTrailingSkipsShortMedia(t *testing.T) {
	segments := []Segment{
		seg(100, 102, "Dialogue."),
		seg(103, 104, "Thank you."),
	}
	if result := FilterHallucinations(segments, 5*time.Minute); len(result.Removals) != 0 {
		t.Fatalf("short media must skip trailing sweep, got %+v", result.Removals)
	}
	if result := FilterHallucinations(segments, 0); len(result.Removals) != 0 {
		t.Fatalf("unknown length must skip trailing sweep, got %+v", result.Removals)
	}
}

func TestIsMusicOnly(t *testing.T) {
	tests := map[string]bool{
		"♪":            true,
		"♫ ♪ *":        true,
		"¶¶":           true,
		"":             false,
		"  ":           false,
		"♪ la la la ♪": false,
	}
	for text, want := range tests {
		if got := isMusicOnly(text); got != want {
			t.Fatalf("isMusicOnly(%q) = %v, want %v", text, got, want)
		}
	}
}
