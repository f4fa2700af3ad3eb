package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/raphi011/feedlog/internal/config"
	"github.com/raphi011/feedlog/internal/kv"
	"github.com/raphi011/feedlog/internal/log"
	"github.com/raphi011/feedlog/internal/storage"
)

// Files inside the cache directory
const (
	kvFileName    = "last-updated.kv"
	itemsFileName = "allitems.ndjson"
)

// configFromContext returns the loaded config, or the defaults if none was
// attached.
func configFromContext(ctx context.Context) *config.Config {
	if cfg := config.FromContext(ctx); cfg != nil {
		return cfg
	}
	cfg := config.Default()
	return &cfg
}

// newStore creates the cache directory and returns the metadata store in it.
func newStore(cfg *config.Config) (*kv.Store, string, error) {
	dir, err := storage.CacheDir(cfg.CacheDir)
	if err != nil {
		return nil, "", err
	}
	return kv.New(filepath.Join(dir, kvFileName)), dir, nil
}

// loadStore replays the store. Load problems are reported as warnings since
// the store stays usable.
func loadStore(ctx context.Context, store *kv.Store, compact bool) {
	l := log.FromContext(ctx)
	if err := store.Load(compact); err != nil {
		l.Printf("Warning: %v\n", withLockHint(store, err))
		return
	}
	l.Debug("loaded cache", "path", store.Path(), "keys", store.Len(), "compacted", compact)
}

// withLockHint points at a lock marker left behind by a process that exited
// without removing it. Other errors are returned unchanged.
func withLockHint(store *kv.Store, err error) error {
	if !errors.Is(err, kv.ErrLocked) || !store.Marker().Stale() {
		return err
	}
	return fmt.Errorf("%w (lock marker %s is not held by any process; remove it if no feedlog is running)",
		err, store.Marker().Path())
}
