package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/feedlog/internal/config"
	"github.com/raphi011/feedlog/internal/fetch"
	"github.com/raphi011/feedlog/internal/kv"
)

func TestFilterEntries(t *testing.T) {
	t.Parallel()

	entries := []fetch.Entry{
		{URL: "blog.example.com/rss"},
		{URL: "news.ycombinator.com/rss"},
		{URL: "example.org/feed.json"},
	}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"empty pattern keeps order", "", []string{"blog.example.com/rss", "news.ycombinator.com/rss", "example.org/feed.json"}},
		{"subsequence", "ycomb", []string{"news.ycombinator.com/rss"}},
		{"no match", "zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := filterEntries(entries, tt.pattern)
			if len(got) != len(tt.want) {
				t.Fatalf("filterEntries(%q) returned %d entries, want %d", tt.pattern, len(got), len(tt.want))
			}
			for i, m := range got {
				if m.Entry.URL != tt.want[i] {
					t.Errorf("entry %d = %q, want %q", i, m.Entry.URL, tt.want[i])
				}
				if tt.pattern != "" && len(m.Matched) != len(tt.pattern) {
					t.Errorf("entry %d matched %v, want %d indexes", i, m.Matched, len(tt.pattern))
				}
			}
		})
	}
}

func TestFilterEntries_BothMatch(t *testing.T) {
	t.Parallel()

	entries := []fetch.Entry{
		{URL: "blog.example.com/rss"},
		{URL: "example.org/feed.json"},
	}

	got := filterEntries(entries, "example")
	if len(got) != 2 {
		t.Fatalf("filterEntries() returned %d entries, want 2", len(got))
	}
}

func TestCacheCompact_StaleMarker(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	lockPath := filepath.Join(cfg.CacheDir, kvFileName) + ".lock"

	// A marker without a live flock, as left by a killed process.
	if err := os.WriteFile(lockPath, nil, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var out, errs bytes.Buffer
	cmd := newCacheCompactCmd()
	cmd.SetContext(config.WithConfig(testContext(&out, &errs), &cfg))
	cmd.SetArgs(nil)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	if !errors.Is(err, kv.ErrLocked) {
		t.Fatalf("compact error = %v, want ErrLocked", err)
	}
	if !strings.Contains(err.Error(), "not held by any process") {
		t.Errorf("expected stale marker hint, got %q", err)
	}
	if !strings.Contains(err.Error(), lockPath) {
		t.Errorf("hint should name %s, got %q", lockPath, err)
	}
}

func TestWithLockHint_LiveHolder(t *testing.T) {
	t.Parallel()

	store := kv.New(filepath.Join(t.TempDir(), kvFileName))
	if err := store.Marker().Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer store.Marker().Release()

	err := withLockHint(store, store.Load(false))
	if !errors.Is(err, kv.ErrLocked) {
		t.Fatalf("Load() error = %v, want ErrLocked", err)
	}
	if strings.Contains(err.Error(), "not held by any process") {
		t.Errorf("live holder reported as stale: %q", err)
	}
}
