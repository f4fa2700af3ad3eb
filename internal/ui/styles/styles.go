// Package styles provides shared lipgloss styles for UI components.
//
// Colors are defined once here so the fetch table, the cache listing and
// the progress bar render with the same palette.
package styles

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// Palette
var (
	// Primary is the main accent color (cyan/teal)
	Primary = lipgloss.Color("62")

	// Accent is the highlight color for matched or active items (pink)
	Accent = lipgloss.Color("212")

	// Success is used for fetched feeds (green)
	Success = lipgloss.Color("82")

	// Error is used for failures (red)
	Error = lipgloss.Color("196")

	// Muted is used for secondary text (gray)
	Muted = lipgloss.Color("240")
)

// Common styles
var (
	Bold = lipgloss.NewStyle().Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(Success)

	ErrorStyle = lipgloss.NewStyle().Foreground(Error)

	MutedStyle = lipgloss.NewStyle().Foreground(Muted)

	// HighlightStyle marks fuzzy-matched characters (pink, bold, underline)
	HighlightStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true).
			Underline(true)
)

// FormatLink renders text wrapped in an OSC 8 hyperlink to url.
// Returns text unchanged if url is empty.
func FormatLink(text, url string) string {
	if url == "" {
		return text
	}
	return ansi.SetHyperlink(url) + text + ansi.ResetHyperlink()
}

// Highlight renders the runes of s at the given byte indexes with
// HighlightStyle. Indexes out of range are ignored.
func Highlight(s string, indexes []int) string {
	if len(indexes) == 0 {
		return s
	}

	marked := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		marked[i] = true
	}

	var b strings.Builder
	for i, r := range s {
		if marked[i] {
			b.WriteString(HighlightStyle.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MutedOrDash returns s, or a muted "-" if s is empty.
func MutedOrDash(s string) string {
	if s == "" {
		return MutedStyle.Render("-")
	}
	return s
}
