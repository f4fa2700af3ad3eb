package fetch

import (
	"sort"
	"strings"
)

// KeyReader is the read side of the metadata store.
type KeyReader interface {
	Keys() []string
	Get(key string) (string, bool)
}

// Entry holds the cached validators of one canonical URL.
type Entry struct {
	URL          string `json:"url"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// Entries groups the validator keys of r by canonical URL, sorted by URL.
// Keys without a known suffix are ignored.
func Entries(r KeyReader) []Entry {
	byURL := make(map[string]*Entry)
	entry := func(url string) *Entry {
		e, ok := byURL[url]
		if !ok {
			e = &Entry{URL: url}
			byURL[url] = e
		}
		return e
	}

	for _, key := range r.Keys() {
		value, _ := r.Get(key)
		switch {
		case strings.HasSuffix(key, etagSuffix):
			entry(strings.TrimSuffix(key, etagSuffix)).ETag = value
		case strings.HasSuffix(key, lastModifiedSuffix):
			entry(strings.TrimSuffix(key, lastModifiedSuffix)).LastModified = value
		}
	}

	out := make([]Entry, 0, len(byURL))
	for _, e := range byURL {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}
