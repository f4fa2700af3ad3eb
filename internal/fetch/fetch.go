// Package fetch performs conditional feed requests backed by the metadata
// store.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raphi011/feedlog/internal/feed"
	"github.com/raphi011/feedlog/internal/kv"
	"github.com/raphi011/feedlog/internal/log"
	"github.com/raphi011/feedlog/internal/metrics"
)

const (
	etagSuffix         = "-etag"
	lastModifiedSuffix = "-lastModified"
)

// CanonicalURL strips a leading http:// or https:// so that both schemes
// share cache entries. No other normalization is done.
func CanonicalURL(rawURL string) string {
	if s, ok := strings.CutPrefix(rawURL, "https://"); ok {
		return s
	}
	return strings.TrimPrefix(rawURL, "http://")
}

// ETagKey returns the store key holding the ETag for a canonical URL.
func ETagKey(canonical string) string {
	return canonical + etagSuffix
}

// LastModifiedKey returns the store key holding Last-Modified for a canonical URL.
func LastModifiedKey(canonical string) string {
	return canonical + lastModifiedSuffix
}

// Error is returned for any failed fetch. StatusCode is set when the server
// answered outside [200, 400); otherwise Err holds the cause.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: wrong status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetcher fetches feeds, sending cached validators and recording new ones.
type Fetcher struct {
	store     *kv.Store
	sink      feed.Sink
	client    *http.Client
	decoder   feed.Decoder
	userAgent string
	now       func() time.Time
	metrics   *metrics.Metrics
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithDecoder replaces the default feed decoder.
func WithDecoder(d feed.Decoder) Option {
	return func(f *Fetcher) { f.decoder = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithClock sets the time source for the Last-Modified fallback.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithMetrics sets where fetch outcomes are recorded.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// New creates a Fetcher reading and writing validators in store and
// appending decoded items to sink.
func New(store *kv.Store, sink feed.Sink, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:   store,
		sink:    sink,
		client:  http.DefaultClient,
		decoder: feed.NewDecoder(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.metrics == nil {
		f.metrics = metrics.NewNop()
	}
	return f
}

// Fetch requests rawURL. Unless force is set, cached ETag and Last-Modified
// values are sent as conditional headers.
//
// A 304 response returns (nil, nil) and touches neither store nor sink.
// Any status outside [200, 400), transport, decode, sink or store failure
// returns a *Error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, force bool) (*feed.Feed, error) {
	start := time.Now()
	fd, err := f.fetch(ctx, rawURL, force)
	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		f.metrics.Fetches.WithLabelValues(metrics.OutcomeError).Inc()
	case fd == nil:
		f.metrics.Fetches.WithLabelValues(metrics.OutcomeNotModified).Inc()
	default:
		f.metrics.Fetches.WithLabelValues(metrics.OutcomeFetched).Inc()
	}
	return fd, err
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, force bool) (*feed.Feed, error) {
	l := log.FromContext(ctx)
	canonical := CanonicalURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if !force {
		f.setConditionalHeaders(req, canonical)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &Error{URL: rawURL, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode == http.StatusNotModified {
		l.Debug("not modified", "url", rawURL)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	fd, err := f.decoder.Decode(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	if err := f.storeValidators(canonical, resp.Header); err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	if err := f.sink.Append(fd.Items); err != nil {
		return nil, &Error{URL: rawURL, Err: fmt.Errorf("append items: %w", err)}
	}
	f.metrics.ItemsAppended.Add(float64(len(fd.Items)))

	l.Debug("fetched", "url", rawURL, "status", resp.StatusCode, "items", len(fd.Items))
	return fd, nil
}

func (f *Fetcher) setConditionalHeaders(req *http.Request, canonical string) {
	if etag, ok := f.store.Get(ETagKey(canonical)); ok {
		// Some servers only look at the non-standard ETag request header.
		req.Header.Set("ETag", etag)
		req.Header.Set("If-None-Match", etag)
	}
	if lm, ok := f.store.Get(LastModifiedKey(canonical)); ok {
		req.Header.Set("If-Modified-Since", lm)
	}
}

// storeValidators records the response validators. Last-Modified falls back
// to the current time so the next request always has something to send.
func (f *Fetcher) storeValidators(canonical string, h http.Header) error {
	lastModified := h.Get("Last-Modified")
	if lastModified == "" {
		lastModified = f.now().UTC().Format(http.TimeFormat)
	}

	if etag := h.Get("ETag"); etag != "" {
		if err := f.put(ETagKey(canonical), etag); err != nil {
			return err
		}
	}
	return f.put(LastModifiedKey(canonical), lastModified)
}

func (f *Fetcher) put(key, value string) error {
	if err := f.store.Put(key, value); err != nil {
		f.metrics.CacheWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("update cache: %w", err)
	}
	f.metrics.CacheWrites.WithLabelValues("ok").Inc()
	return nil
}
