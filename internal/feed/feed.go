// Package feed holds the JSON Feed representation that every fetched feed
// is normalized into, the decoder producing it, and the item sink.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Version is written to feeds converted from RSS or Atom.
const Version = "https://jsonfeed.org/version/1.1"

// Feed is a JSON Feed document.
type Feed struct {
	Version     string `json:"version,omitempty"`
	Title       string `json:"title,omitempty"`
	HomePageURL string `json:"home_page_url,omitempty"`
	FeedURL     string `json:"feed_url,omitempty"`
	Description string `json:"description,omitempty"`
	Items       []Item `json:"items"`
}

// Item is a single feed entry kept as raw JSON. Its fields are not
// interpreted beyond ID.
type Item json.RawMessage

// MarshalJSON returns the raw item, or null for an empty item.
func (i Item) MarshalJSON() ([]byte, error) {
	if len(i) == 0 {
		return []byte("null"), nil
	}
	return i, nil
}

// UnmarshalJSON stores a copy of data.
func (i *Item) UnmarshalJSON(data []byte) error {
	if i == nil {
		return errors.New("feed.Item: UnmarshalJSON on nil pointer")
	}
	*i = append((*i)[0:0], data...)
	return nil
}

// ID returns the item's "id" field, or "" if absent or not a string.
func (i Item) ID() string {
	var v struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(i, &v); err != nil {
		return ""
	}
	switch id := v.ID.(type) {
	case string:
		return id
	case float64:
		// JSON Feed 1.0 producers sometimes emit numeric ids.
		b, _ := json.Marshal(id)
		return string(b)
	}
	return ""
}

// Line returns the item compacted onto a single line.
func (i Item) Line() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, i); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
