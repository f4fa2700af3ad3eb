package main

import (
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/raphi011/feedlog/internal/fetch"
	"github.com/raphi011/feedlog/internal/log"
	"github.com/raphi011/feedlog/internal/output"
	"github.com/raphi011/feedlog/internal/ui/static"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Short:   "Inspect and maintain the metadata cache",
		GroupID: GroupCache,
		Long: `Inspect and maintain last-updated.kv.

The cache holds the ETag and Last-Modified values of every fetched feed,
keyed by the URL without its http:// or https:// prefix.`,
		Example: `  feedlog cache show            # List cached validators
  feedlog cache show exmpl      # Fuzzy-filter by URL
  feedlog cache compact         # Rewrite to one line per key`,
	}

	cmd.AddCommand(newCacheShowCmd())
	cmd.AddCommand(newCacheCompactCmd())

	return cmd
}

func newCacheShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "show [pattern]",
		Short:   "List cached validators",
		Aliases: []string{"ls"},
		Args:    cobra.MaximumNArgs(1),
		Long: `List cached validators per feed URL.

With a pattern, only URLs fuzzy-matching it are shown, best match first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			store, _, err := newStore(cfg)
			if err != nil {
				return err
			}
			loadStore(ctx, store, false)

			var pattern string
			if len(args) == 1 {
				pattern = args[0]
			}
			matches := filterEntries(fetch.Entries(store), pattern)

			if jsonOutput {
				entries := make([]fetch.Entry, 0, len(matches))
				for _, m := range matches {
					entries = append(entries, m.Entry)
				}
				return out.JSON(entries)
			}

			if len(matches) == 0 {
				l.Println("No cached feeds")
				return nil
			}

			rows := make([][]string, 0, len(matches))
			for _, m := range matches {
				rows = append(rows, static.CacheTableRow(m.Entry, m.Matched))
			}
			out.Print(static.RenderTable(static.CacheHeaders, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newCacheCompactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Rewrite the cache to one line per key",
		Args:  cobra.NoArgs,
		Long: `Rewrite last-updated.kv so it holds only the latest value per key.

Fails if another process holds the lock marker (last-updated.kv.lock).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			l := log.FromContext(ctx)

			store, _, err := newStore(cfg)
			if err != nil {
				return err
			}
			if err := store.Load(true); err != nil {
				return fmt.Errorf("compact: %w", withLockHint(store, err))
			}

			l.Printf("Compacted %s (%d keys)\n", store.Path(), store.Len())
			return nil
		},
	}
}

// entryMatch is a cache entry with the URL byte offsets matched by a pattern.
type entryMatch struct {
	Entry   fetch.Entry
	Matched []int
}

// entrySource adapts entries to fuzzy.Source, matching on the URL.
type entrySource []fetch.Entry

func (s entrySource) String(i int) string { return s[i].URL }
func (s entrySource) Len() int            { return len(s) }

// filterEntries fuzzy-matches pattern against the entry URLs, best match
// first. An empty pattern keeps all entries in their given order.
func filterEntries(entries []fetch.Entry, pattern string) []entryMatch {
	if pattern == "" {
		out := make([]entryMatch, len(entries))
		for i, e := range entries {
			out[i] = entryMatch{Entry: e}
		}
		return out
	}

	found := fuzzy.FindFrom(pattern, entrySource(entries))
	out := make([]entryMatch, 0, len(found))
	for _, m := range found {
		out = append(out, entryMatch{Entry: entries[m.Index], Matched: m.MatchedIndexes})
	}
	return out
}
