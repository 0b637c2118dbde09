package domain

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func sec(n float64) time.Duration {
	return time.Duration(n * float64(time.Second))
}

func TestNormalizeDropsMalformedSegments(t *testing.T) {
	cs := CaptionSet{
		{Start: sec(0), End: sec(2), Text: "a"},
		{Start: sec(5), End: sec(5), Text: "zero length"},
		{Start: sec(4), End: sec(3), Text: "inverted"},
		{Start: sec(2), End: sec(4), Text: "b"},
	}

	out, dropped := cs.Normalize()
	if dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Text != "a" || out[1].Text != "b" {
		t.Fatalf("unexpected order: %v", out)
	}
}

func TestNormalizeSortsAndClampsOverlaps(t *testing.T) {
	cs := CaptionSet{
		{Start: sec(3), End: sec(6), Text: "second"},
		{Start: sec(0), End: sec(4), Text: "first"},
	}

	out, _ := cs.Normalize()
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Text != "first" {
		t.Fatalf("not sorted by start: %v", out)
	}
	// Overlap clamped: second segment starts where the first ends.
	if out[1].Start != sec(4) {
		t.Errorf("overlap not clamped, start = %s", out[1].Start)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Start < out[i-1].End {
			t.Errorf("segments %d and %d overlap", i-1, i)
		}
	}
}

func TestNormalizeDropsFullyShadowedSegment(t *testing.T) {
	cs := CaptionSet{
		{Start: sec(0), End: sec(10), Text: "long"},
		{Start: sec(2), End: sec(5), Text: "inside"},
	}

	out, dropped := cs.Normalize()
	if len(out) != 1 || dropped != 1 {
		t.Fatalf("got %d segments, %d dropped; want 1 and 1", len(out), dropped)
	}
}

func TestWriteSRTFormat(t *testing.T) {
	cs := CaptionSet{
		{Start: 0, End: 2500 * time.Millisecond, Text: "hello there"},
		{Start: 2500 * time.Millisecond, End: sec(65), Text: "second line"},
	}

	var buf bytes.Buffer
	if err := cs.WriteSRT(&buf); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	want := "1\n00:00:00,000 --> 00:00:02,500\nhello there\n\n" +
		"2\n00:00:02,500 --> 00:01:05,000\nsecond line\n\n"
	if got != want {
		t.Fatalf("srt output:\n%q\nwant:\n%q", got, want)
	}
}

func TestParseSRTRoundTrip(t *testing.T) {
	cs := CaptionSet{
		{Start: sec(0), End: sec(2), Text: "one"},
		{Start: sec(2), End: sec(4), Text: "two"},
	}
	var buf bytes.Buffer
	if err := cs.WriteSRT(&buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseSRT(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 2 || parsed[0].Text != "one" || parsed[1].End != sec(4) {
		t.Fatalf("round trip mismatch: %v", parsed)
	}
}

func TestParseSRTMultiLineText(t *testing.T) {
	srt := "1\n00:00:00,000 --> 00:00:02,000\nfirst line\nsecond line\n"
	parsed, err := ParseSRT([]byte(srt))
	if err != nil {
		t.Fatal(err)
	}
	if parsed[0].Text != "first line second line" {
		t.Fatalf("text = %q", parsed[0].Text)
	}
}

func TestParseSRTRejectsGarbage(t *testing.T) {
	if _, err := ParseSRT([]byte("not a subtitle file")); err == nil {
		t.Fatal("expected error for garbage input")
	}
	if _, err := ParseSRT([]byte("1\n00:00:xx,000 --> 00:00:02,000\ntext\n")); err == nil {
		t.Fatal("expected error for bad timestamp")
	}
}

func TestDuration(t *testing.T) {
	if d := (CaptionSet{}).Duration(); d != 0 {
		t.Fatalf("empty set duration = %s", d)
	}
	cs := CaptionSet{{Start: sec(0), End: sec(3), Text: "x"}}
	if cs.Duration() != sec(3) {
		t.Fatalf("duration = %s, want 3s", cs.Duration())
	}
}

func TestFormatSRTTimeNegativeClamped(t *testing.T) {
	if got := formatSRTTime(-time.Second); !strings.HasPrefix(got, "00:00:00") {
		t.Fatalf("negative duration formatted as %q", got)
	}
}
