package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Decoder turns a response body into a Feed.
type Decoder interface {
	Decode(body []byte, contentType string) (*Feed, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(body []byte, contentType string) (*Feed, error)

// Decode calls f.
func (f DecoderFunc) Decode(body []byte, contentType string) (*Feed, error) {
	return f(body, contentType)
}

// NewDecoder returns the default decoder. Bodies served with a JSON content
// type are read as JSON Feed; everything else goes through gofeed and is
// converted.
func NewDecoder() Decoder {
	return DecoderFunc(decode)
}

func decode(body []byte, contentType string) (*Feed, error) {
	if IsJSON(contentType) {
		var f Feed
		if err := json.Unmarshal(body, &f); err != nil {
			return nil, fmt.Errorf("decode json feed: %w", err)
		}
		return &f, nil
	}

	// gofeed parsers keep per-parse state, so each call gets its own.
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return FromGofeed(parsed)
}

// IsJSON reports whether a Content-Type header denotes JSON.
func IsJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

type jsonAuthor struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

type jsonAttachment struct {
	URL         string `json:"url"`
	MimeType    string `json:"mime_type,omitempty"`
	SizeInBytes int64  `json:"size_in_bytes,omitempty"`
}

type jsonItem struct {
	ID            string           `json:"id"`
	URL           string           `json:"url,omitempty"`
	Title         string           `json:"title,omitempty"`
	ContentHTML   string           `json:"content_html,omitempty"`
	Summary       string           `json:"summary,omitempty"`
	Image         string           `json:"image,omitempty"`
	DatePublished string           `json:"date_published,omitempty"`
	DateModified  string           `json:"date_modified,omitempty"`
	Authors       []jsonAuthor     `json:"authors,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	Attachments   []jsonAttachment `json:"attachments,omitempty"`
}

// FromGofeed converts a parsed RSS/Atom feed to JSON Feed.
func FromGofeed(src *gofeed.Feed) (*Feed, error) {
	f := &Feed{
		Version:     Version,
		Title:       src.Title,
		HomePageURL: src.Link,
		FeedURL:     src.FeedLink,
		Description: src.Description,
		Items:       make([]Item, 0, len(src.Items)),
	}

	for _, it := range src.Items {
		raw, err := json.Marshal(convertItem(it))
		if err != nil {
			return nil, fmt.Errorf("encode item %q: %w", it.GUID, err)
		}
		f.Items = append(f.Items, Item(raw))
	}

	return f, nil
}

func convertItem(it *gofeed.Item) jsonItem {
	out := jsonItem{
		ID:          it.GUID,
		URL:         it.Link,
		Title:       it.Title,
		ContentHTML: it.Content,
		Summary:     it.Description,
		Tags:        it.Categories,
	}
	if out.ID == "" {
		out.ID = it.Link
	}
	if out.ContentHTML == "" {
		out.ContentHTML = it.Description
	}
	if it.Image != nil {
		out.Image = it.Image.URL
	}
	out.DatePublished = formatDate(it.PublishedParsed, it.Published)
	out.DateModified = formatDate(it.UpdatedParsed, it.Updated)

	for _, a := range it.Authors {
		if a == nil || a.Name == "" {
			continue
		}
		out.Authors = append(out.Authors, jsonAuthor{Name: a.Name})
	}

	for _, enc := range it.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		size, _ := strconv.ParseInt(enc.Length, 10, 64)
		out.Attachments = append(out.Attachments, jsonAttachment{
			URL:         enc.URL,
			MimeType:    enc.Type,
			SizeInBytes: size,
		})
	}

	return out
}

func formatDate(parsed *time.Time, raw string) string {
	if parsed != nil {
		return parsed.UTC().Format(time.RFC3339)
	}
	return raw
}
