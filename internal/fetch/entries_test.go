package fetch

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/raphi011/feedlog/internal/kv"
)

func TestEntries(t *testing.T) {
	t.Parallel()

	store := kv.New(filepath.Join(t.TempDir(), "last-updated.kv"))
	if err := store.Load(false); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	puts := [][2]string{
		{ETagKey("b.com/rss"), `"v2"`},
		{LastModifiedKey("b.com/rss"), "Tue, 30 Apr 2024 08:00:00 GMT"},
		{LastModifiedKey("a.com/feed.json"), "Mon, 29 Apr 2024 08:00:00 GMT"},
		{"unrelated", "x"},
	}
	for _, p := range puts {
		if err := store.Put(p[0], p[1]); err != nil {
			t.Fatalf("Put(%q) error = %v", p[0], err)
		}
	}

	want := []Entry{
		{URL: "a.com/feed.json", LastModified: "Mon, 29 Apr 2024 08:00:00 GMT"},
		{URL: "b.com/rss", ETag: `"v2"`, LastModified: "Tue, 30 Apr 2024 08:00:00 GMT"},
	}
	if got := Entries(store); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %+v, want %+v", got, want)
	}
}

func TestEntries_Empty(t *testing.T) {
	t.Parallel()

	store := kv.New(filepath.Join(t.TempDir(), "last-updated.kv"))
	if got := Entries(store); len(got) != 0 {
		t.Errorf("Entries() = %+v, want empty", got)
	}
}
