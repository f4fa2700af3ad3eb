// Package batch drives a Fetcher over a list of URLs in fixed-size groups.
package batch

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/raphi011/feedlog/internal/feed"
	"github.com/raphi011/feedlog/internal/log"
)

// DefaultChunkSize is the number of URLs fetched concurrently per group.
const DefaultChunkSize = 10

// Fetcher fetches a single URL. A nil feed with a nil error means the feed
// was not modified.
type Fetcher interface {
	Fetch(ctx context.Context, url string, force bool) (*feed.Feed, error)
}

// ProgressFunc is called after every fetch with the number of fetches done,
// the total, and how many of them failed.
type ProgressFunc func(done, total, failed int)

type options struct {
	progress ProgressFunc
}

// Option configures FetchAll.
type Option func(*options)

// WithProgress registers a progress callback. Calls are serialized.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// Chunk splits urls into consecutive groups of at most size entries.
// A size below 1 is treated as 1.
func Chunk(urls []string, size int) [][]string {
	if size < 1 {
		size = 1
	}

	var chunks [][]string
	for len(urls) > 0 {
		n := min(size, len(urls))
		chunks = append(chunks, urls[:n:n])
		urls = urls[n:]
	}
	return chunks
}

// FetchAll fetches urls in groups of chunkSize. Groups run one after another;
// every URL in a group is fetched concurrently and the whole group finishes
// before the next one starts.
//
// Only fetched feeds are returned, in input order. Not-modified URLs are
// skipped and failures are logged and skipped. Nothing is retried. If ctx is
// cancelled, no further groups are started.
func FetchAll(ctx context.Context, f Fetcher, urls []string, chunkSize int, force bool, opts ...Option) []*feed.Feed {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	l := log.FromContext(ctx)

	var (
		mu     sync.Mutex
		done   int
		failed int
	)
	record := func(isFailed bool) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if isFailed {
			failed++
		}
		if o.progress != nil {
			o.progress(done, len(urls), failed)
		}
	}

	chunks := Chunk(urls, chunkSize)

	var feeds []*feed.Feed
	for i, group := range chunks {
		if ctx.Err() != nil {
			l.Debug("batch cancelled", "skipped_groups", len(chunks)-i)
			break
		}

		results := make([]*feed.Feed, len(group))
		var g errgroup.Group
		for j, url := range group {
			g.Go(func() error {
				fd, err := f.Fetch(ctx, url, force)
				if err != nil {
					l.Printf("Error: %s\n", errorMessage(url, err))
					record(true)
					return nil
				}
				results[j] = fd
				record(false)
				return nil
			})
		}
		// Per-URL errors are absorbed above, so Wait only joins.
		_ = g.Wait()

		for _, fd := range results {
			if fd != nil {
				feeds = append(feeds, fd)
			}
		}
	}

	return feeds
}

// errorMessage names url once, whether or not err already carries it.
func errorMessage(url string, err error) string {
	msg := err.Error()
	if strings.Contains(msg, url) {
		return msg
	}
	return url + ": " + msg
}
