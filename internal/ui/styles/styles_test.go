package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestFormatLink(t *testing.T) {
	t.Parallel()

	if got := FormatLink("Example", ""); got != "Example" {
		t.Errorf("FormatLink without url = %q, want plain text", got)
	}

	url := "https://example.com/feed.json"
	got := FormatLink("Example", url)
	// OSC 8 hyperlinks use \x1b]8;; prefix
	if !strings.Contains(got, "\x1b]8;;") {
		t.Errorf("FormatLink should contain OSC 8 sequence, got %q", got)
	}
	if !strings.Contains(got, url) {
		t.Errorf("FormatLink should contain the url, got %q", got)
	}
	if stripped := ansi.Strip(got); stripped != "Example" {
		t.Errorf("stripped = %q, want %q", stripped, "Example")
	}
}

func TestHighlight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		s       string
		indexes []int
	}{
		{"no matches", "example.com/rss", nil},
		{"prefix", "example.com/rss", []int{0, 1, 2}},
		{"out of range", "abc", []int{10}},
		{"multibyte", "blög.de/feed", []int{2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Highlight(tt.s, tt.indexes)
			if stripped := ansi.Strip(got); stripped != tt.s {
				t.Errorf("Highlight() stripped = %q, want %q", stripped, tt.s)
			}
		})
	}
}

func TestMutedOrDash(t *testing.T) {
	t.Parallel()

	if got := MutedOrDash("abc"); got != "abc" {
		t.Errorf("MutedOrDash(abc) = %q", got)
	}
	if got := ansi.Strip(MutedOrDash("")); got != "-" {
		t.Errorf("MutedOrDash(\"\") stripped = %q, want -", got)
	}
}
