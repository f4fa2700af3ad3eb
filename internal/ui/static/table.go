// Package static provides non-interactive terminal output components.
//
// This package renders the tables printed by fetch and cache show.
package static

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/raphi011/feedlog/internal/feed"
	"github.com/raphi011/feedlog/internal/fetch"
	"github.com/raphi011/feedlog/internal/ui/styles"
)

// Column headers
var (
	FeedHeaders  = []string{"TITLE", "ITEMS", "URL"}
	CacheHeaders = []string{"URL", "ETAG", "LAST MODIFIED"}
)

// RenderTable creates a formatted table with proper column alignment.
// Headers and rows are rendered using lipgloss/table which automatically
// calculates column widths based on content. No borders are rendered.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var output strings.Builder

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	output.WriteString(t.String())
	output.WriteString("\n")

	return output.String()
}

// FeedTableRow returns the FeedHeaders columns for a fetched feed.
// The title links to the home page when the feed names one.
func FeedTableRow(f *feed.Feed) []string {
	url := f.FeedURL
	if url == "" {
		url = f.HomePageURL
	}

	title := f.Title
	if title == "" {
		title = "(untitled)"
	}

	return []string{
		styles.FormatLink(title, f.HomePageURL),
		strconv.Itoa(len(f.Items)),
		styles.MutedOrDash(url),
	}
}

// CacheTableRow returns the CacheHeaders columns for a cache entry,
// highlighting the URL characters at matched.
func CacheTableRow(e fetch.Entry, matched []int) []string {
	return []string{
		styles.Highlight(e.URL, matched),
		styles.MutedOrDash(e.ETag),
		styles.MutedOrDash(e.LastModified),
	}
}
