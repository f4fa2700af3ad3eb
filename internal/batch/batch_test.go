package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raphi011/feedlog/internal/feed"
	"github.com/raphi011/feedlog/internal/log"
)

func makeURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://feed%d.example.com/rss", i)
	}
	return urls
}

func indexOf(urls []string, url string) int {
	for i, u := range urls {
		if u == url {
			return i
		}
	}
	return -1
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{"25 by 10", 25, 10, []int{10, 10, 5}},
		{"exact multiple", 20, 10, []int{10, 10}},
		{"smaller than size", 3, 10, []int{3}},
		{"empty", 0, 10, nil},
		{"size one", 3, 1, []int{1, 1, 1}},
		{"zero size treated as one", 2, 0, []int{1, 1}},
		{"negative size treated as one", 2, -5, []int{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urls := makeURLs(tt.n)
			chunks := Chunk(urls, tt.size)

			if len(chunks) != len(tt.sizes) {
				t.Fatalf("len(chunks) = %d, want %d", len(chunks), len(tt.sizes))
			}

			var flat []string
			for i, c := range chunks {
				if len(c) != tt.sizes[i] {
					t.Errorf("chunk %d size = %d, want %d", i, len(c), tt.sizes[i])
				}
				flat = append(flat, c...)
			}
			if strings.Join(flat, ",") != strings.Join(urls, ",") {
				t.Error("chunks do not preserve input order")
			}
		})
	}
}

func TestChunk_DoesNotAlias(t *testing.T) {
	urls := makeURLs(4)
	chunks := Chunk(urls, 2)

	// Appending to a chunk must not overwrite the next one.
	_ = append(chunks[0], "x")
	if chunks[1][0] != urls[2] {
		t.Errorf("chunk 1 modified through chunk 0: %v", chunks[1])
	}
}

// groupFetcher blocks each fetch until every member of its group is in
// flight, so a wrong grouping deadlocks into a timeout failure.
type groupFetcher struct {
	t      *testing.T
	urls   []string
	size   int
	result func(i int) (*feed.Feed, error)

	mu          sync.Mutex
	inflight    int
	maxInflight int
	completed   int
	arrived     map[int]int
	gates       map[int]chan struct{}
}

func newGroupFetcher(t *testing.T, urls []string, size int) *groupFetcher {
	return &groupFetcher{
		t:       t,
		urls:    urls,
		size:    size,
		arrived: make(map[int]int),
		gates:   make(map[int]chan struct{}),
		result: func(i int) (*feed.Feed, error) {
			return &feed.Feed{Title: fmt.Sprint(i)}, nil
		},
	}
}

func (g *groupFetcher) groupSize(group int) int {
	return min(g.size, len(g.urls)-group*g.size)
}

func (g *groupFetcher) Fetch(ctx context.Context, url string, force bool) (*feed.Feed, error) {
	i := indexOf(g.urls, url)
	group := i / g.size

	g.mu.Lock()
	if g.completed < group*g.size {
		g.t.Errorf("url %d started with only %d fetches completed", i, g.completed)
	}
	g.inflight++
	g.maxInflight = max(g.maxInflight, g.inflight)
	gate, ok := g.gates[group]
	if !ok {
		gate = make(chan struct{})
		g.gates[group] = gate
	}
	g.arrived[group]++
	if g.arrived[group] == g.groupSize(group) {
		close(gate)
	}
	g.mu.Unlock()

	select {
	case <-gate:
	case <-time.After(5 * time.Second):
		g.t.Errorf("url %d: group %d never filled up", i, group)
	}

	g.mu.Lock()
	g.inflight--
	g.completed++
	g.mu.Unlock()

	return g.result(i)
}

func TestFetchAll_GroupsAndBound(t *testing.T) {
	t.Parallel()

	urls := makeURLs(25)
	f := newGroupFetcher(t, urls, 10)

	feeds := FetchAll(context.Background(), f, urls, 10, false)

	if len(feeds) != 25 {
		t.Fatalf("len(feeds) = %d, want 25", len(feeds))
	}
	if f.maxInflight != 10 {
		t.Errorf("max in-flight = %d, want 10", f.maxInflight)
	}
	if len(f.gates) != 3 {
		t.Errorf("groups = %d, want 3", len(f.gates))
	}
	for group, want := range map[int]int{0: 10, 1: 10, 2: 5} {
		if f.arrived[group] != want {
			t.Errorf("group %d size = %d, want %d", group, f.arrived[group], want)
		}
	}
	for i, fd := range feeds {
		if fd.Title != fmt.Sprint(i) {
			t.Errorf("feeds[%d].Title = %q, want %d", i, fd.Title, i)
		}
	}
}

func TestFetchAll_DropsNotModifiedAndErrors(t *testing.T) {
	t.Parallel()

	urls := makeURLs(12)
	f := newGroupFetcher(t, urls, 5)
	f.result = func(i int) (*feed.Feed, error) {
		switch i % 3 {
		case 0:
			return &feed.Feed{Title: fmt.Sprint(i)}, nil
		case 1:
			return nil, nil
		default:
			return nil, errors.New("boom")
		}
	}

	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(&buf, false, false))

	feeds := FetchAll(ctx, f, urls, 5, false)

	var titles []string
	for _, fd := range feeds {
		titles = append(titles, fd.Title)
	}
	if got, want := strings.Join(titles, ","), "0,3,6,9"; got != want {
		t.Errorf("titles = %s, want %s", got, want)
	}

	logged := buf.String()
	if strings.Count(logged, "Error: ") != 4 {
		t.Errorf("expected 4 logged errors, got:\n%s", logged)
	}
	if !strings.Contains(logged, urls[2]) {
		t.Errorf("error log does not name the url:\n%s", logged)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	const url = "https://a.com/rss"
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bare error", errors.New("boom"), "https://a.com/rss: boom"},
		{"error naming the url", fmt.Errorf("fetch %s: wrong status code: 404", url), "fetch https://a.com/rss: wrong status code: 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := errorMessage(url, tt.err)
			if got != tt.want {
				t.Errorf("errorMessage() = %q, want %q", got, tt.want)
			}
			if n := strings.Count(got, url); n != 1 {
				t.Errorf("url appears %d times in %q", n, got)
			}
		})
	}
}

type funcFetcher func(ctx context.Context, url string, force bool) (*feed.Feed, error)

func (f funcFetcher) Fetch(ctx context.Context, url string, force bool) (*feed.Feed, error) {
	return f(ctx, url, force)
}

func TestFetchAll_PassesForce(t *testing.T) {
	t.Parallel()

	for _, force := range []bool{false, true} {
		var mu sync.Mutex
		var seen []bool
		f := funcFetcher(func(ctx context.Context, url string, got bool) (*feed.Feed, error) {
			mu.Lock()
			seen = append(seen, got)
			mu.Unlock()
			return nil, nil
		})

		FetchAll(context.Background(), f, makeURLs(3), 2, force)

		if len(seen) != 3 {
			t.Fatalf("fetches = %d, want 3", len(seen))
		}
		for _, got := range seen {
			if got != force {
				t.Errorf("force = %v, want %v", got, force)
			}
		}
	}
}

func TestFetchAll_Progress(t *testing.T) {
	t.Parallel()

	f := funcFetcher(func(ctx context.Context, url string, force bool) (*feed.Feed, error) {
		if strings.Contains(url, "feed1.") {
			return nil, errors.New("boom")
		}
		return &feed.Feed{}, nil
	})

	var calls [][3]int
	FetchAll(context.Background(), f, makeURLs(4), 2, false, WithProgress(func(done, total, failed int) {
		calls = append(calls, [3]int{done, total, failed})
	}))

	if len(calls) != 4 {
		t.Fatalf("progress calls = %d, want 4", len(calls))
	}
	last := calls[len(calls)-1]
	if last != [3]int{4, 4, 1} {
		t.Errorf("last progress = %v, want [4 4 1]", last)
	}
	for i, c := range calls {
		if c[0] != i+1 {
			t.Errorf("call %d done = %d, want %d", i, c[0], i+1)
		}
	}
}

func TestFetchAll_CancelledStopsGroups(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	calls := 0
	f := funcFetcher(func(ctx context.Context, url string, force bool) (*feed.Feed, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		cancel()
		return &feed.Feed{}, nil
	})

	feeds := FetchAll(ctx, f, makeURLs(6), 2, false)

	// The first group completes, later groups never start.
	if calls != 2 {
		t.Errorf("fetches = %d, want 2", calls)
	}
	if len(feeds) != 2 {
		t.Errorf("len(feeds) = %d, want 2", len(feeds))
	}
}

func TestFetchAll_Empty(t *testing.T) {
	t.Parallel()

	f := funcFetcher(func(ctx context.Context, url string, force bool) (*feed.Feed, error) {
		t.Error("Fetch called for empty input")
		return nil, nil
	})
	if feeds := FetchAll(context.Background(), f, nil, 10, false); len(feeds) != 0 {
		t.Errorf("len(feeds) = %d, want 0", len(feeds))
	}
}
