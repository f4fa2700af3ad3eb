package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/raphi011/feedlog/internal/batch"
	"github.com/raphi011/feedlog/internal/config"
	"github.com/raphi011/feedlog/internal/feed"
	"github.com/raphi011/feedlog/internal/fetch"
	"github.com/raphi011/feedlog/internal/log"
	"github.com/raphi011/feedlog/internal/metrics"
	"github.com/raphi011/feedlog/internal/output"
	"github.com/raphi011/feedlog/internal/ui/progress"
	"github.com/raphi011/feedlog/internal/ui/static"
	"github.com/raphi011/feedlog/internal/urls"
)

type fetchOptions struct {
	force      bool
	chunkSize  int
	jsonOutput bool
	progress   bool
}

func newFetchCmd() *cobra.Command {
	var (
		opts      fetchOptions
		feedsFile string
	)

	cmd := &cobra.Command{
		Use:     "fetch [url...]",
		Short:   "Fetch feeds and append new items",
		GroupID: GroupCore,
		Long: `Fetch feeds and append their items to allitems.ndjson.

URLs are taken from the arguments, from --feeds, or one per line from stdin
(blank lines and lines starting with # are skipped).

Feeds are fetched in groups of --chunk-size; each group finishes before the
next starts. Cached ETag and Last-Modified values are sent with every request
unless --force is given. A feed answering 304 Not Modified is skipped.
Failures are logged and do not stop the run.`,
		Example: `  feedlog fetch < feeds.txt                 # URLs from stdin
  feedlog fetch --feeds feeds.yaml           # URLs from a YAML list
  feedlog fetch https://example.com/rss      # Single feed
  feedlog fetch --force < feeds.txt          # Ignore cached validators
  feedlog fetch --json < feeds.txt | jq .    # Print fetched feeds as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)

			list, err := readURLs(args, feedsFile, os.Stdin)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("chunk-size") {
				opts.chunkSize = cfg.ChunkSize
			}
			opts.progress = !quiet && !verbose && isatty.IsTerminal(os.Stderr.Fd())

			return runFetch(ctx, cfg, list, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "Ignore cached ETag and Last-Modified values")
	cmd.Flags().IntVarP(&opts.chunkSize, "chunk-size", "n", batch.DefaultChunkSize, "Feeds fetched concurrently per group")
	cmd.Flags().StringVar(&feedsFile, "feeds", "", "Read URLs from a YAML file")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output fetched feeds as JSON")
	cmd.MarkFlagFilename("feeds", "yaml", "yml")

	return cmd
}

// readURLs picks the URL source: arguments first, then the feeds file,
// then stdin.
func readURLs(args []string, feedsFile string, stdin *os.File) ([]string, error) {
	switch {
	case len(args) > 0:
		return args, nil
	case feedsFile != "":
		return urls.ReadYAML(feedsFile)
	default:
		return urls.ReadStdin(stdin)
	}
}

func userAgent(cfg *config.Config) string {
	if cfg.UserAgent == config.DefaultUserAgent {
		return config.DefaultUserAgent + "/" + version
	}
	return cfg.UserAgent
}

func runFetch(ctx context.Context, cfg *config.Config, list []string, opts fetchOptions) error {
	l := log.FromContext(ctx)
	out := output.FromContext(ctx)

	if len(list) == 0 {
		l.Println("No feed URLs given")
		return nil
	}

	store, dir, err := newStore(cfg)
	if err != nil {
		return err
	}
	loadStore(ctx, store, cfg.CompactOnLoad)

	sink := feed.NewFileSink(filepath.Join(dir, itemsFileName))

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	f := fetch.New(store, sink,
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		fetch.WithUserAgent(userAgent(cfg)),
		fetch.WithMetrics(m),
	)

	var batchOpts []batch.Option
	var bar *progress.ProgressBar
	if opts.progress {
		bar = progress.NewProgressBar(os.Stderr, len(list))
		bar.Start()
		batchOpts = append(batchOpts, batch.WithProgress(bar.SetProgress))
	}

	l.Debug("fetching", "feeds", len(list), "chunk_size", opts.chunkSize, "force", opts.force)
	feeds := batch.FetchAll(ctx, f, list, opts.chunkSize, opts.force, batchOpts...)

	if bar != nil {
		bar.Stop()
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, reg); err != nil {
			l.Printf("Warning: write metrics: %v\n", err)
		}
	}

	if opts.jsonOutput {
		if feeds == nil {
			feeds = []*feed.Feed{}
		}
		if err := out.JSON(feeds); err != nil {
			return err
		}
		return ctx.Err()
	}

	if len(feeds) == 0 {
		l.Println("No new items")
		return ctx.Err()
	}

	rows := make([][]string, 0, len(feeds))
	items := 0
	for _, fd := range feeds {
		rows = append(rows, static.FeedTableRow(fd))
		items += len(fd.Items)
	}
	out.Print(static.RenderTable(static.FeedHeaders, rows))
	l.Printf("Fetched %d of %d feeds, appended %d items to %s\n", len(feeds), len(list), items, sink.Path())

	return ctx.Err()
}
