package transcript

import (
	"math"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	input := []Segment{
		{Start: 2 * time.Second, End: 3 * time.Second, Text: " second "},
		{Start: -time.Second, End: -2 * time.Second, Text: "clamped"},
		{Start: time.Second, End: 2 * time.Second, Text: "   "},
		{Start: time.Second, End: 500 * time.Millisecond, Text: "inverted"},
	}
	got := Normalize(input)
	want := []Segment{
		{Start: 0, End: 0, Text: "clamped"},
		{Start: time.Second, End: time.Second, Text: "inverted"},
		{Start: 2 * time.Second, End: 3 * time.Second, Text: "second"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d segments, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if input[0].Text != " second " {
		t.Fatal("Normalize must not modify its input")
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(1.25); got != 1250*time.Millisecond {
		t.Fatalf("Seconds(1.25) = %v", got)
	}
	if got := Seconds(math.NaN()); got != 0 {
		t.Fatalf("Seconds(NaN) = %v", got)
	}
	if got := Seconds(-3); got != 0 {
		t.Fatalf("Seconds(-3) = %v", got)
	}
}
