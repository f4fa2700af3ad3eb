package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/raphi011/feedlog/internal/storage"
)

// Defaults
const (
	DefaultChunkSize = 10
	DefaultUserAgent = "feedlog"
)

// Environment variables overriding the config file.
const (
	EnvCacheDir  = "FEEDLOG_CACHE_DIR"
	EnvChunkSize = "FEEDLOG_CHUNK_SIZE"
)

// Config holds the feedlog configuration
type Config struct {
	CacheDir      string        `toml:"cache_dir" json:"cache_dir"`
	ChunkSize     int           `toml:"chunk_size" json:"chunk_size"`
	Timeout       time.Duration `toml:"timeout" json:"timeout"`       // per request, 0 = no timeout
	UserAgent     string        `toml:"user_agent" json:"user_agent"` // sent with every request
	CompactOnLoad bool          `toml:"compact_on_load" json:"compact_on_load"`
	MetricsFile   string        `toml:"metrics_file" json:"metrics_file,omitempty"` // optional Prometheus textfile output
}

// Default returns the default configuration
func Default() Config {
	return Config{
		CacheDir:      storage.DefaultCacheDir,
		ChunkSize:     DefaultChunkSize,
		UserAgent:     DefaultUserAgent,
		CompactOnLoad: true,
	}
}

// rawConfig mirrors Config with pointers where "unset" differs from the zero value
type rawConfig struct {
	CacheDir      string        `toml:"cache_dir"`
	ChunkSize     *int          `toml:"chunk_size"`
	Timeout       time.Duration `toml:"timeout"`
	UserAgent     *string       `toml:"user_agent"`
	CompactOnLoad *bool         `toml:"compact_on_load"`
	MetricsFile   string        `toml:"metrics_file"`
}

// Path returns the path to the config file
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "feedlog", "config.toml"), nil
}

// Load reads config from ~/.config/feedlog/config.toml and applies
// environment overrides.
// Returns Default() if file doesn't exist (no error)
// Returns error only if file exists but is invalid
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads config from path. A missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Default(), err
	}

	if err := applyEnv(&cfg); err != nil {
		return Default(), err
	}

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}

	expanded, err := storage.ExpandHome(cfg.CacheDir)
	if err != nil {
		return Default(), fmt.Errorf("expand cache_dir: %w", err)
	}
	cfg.CacheDir = expanded
	if cfg.MetricsFile != "" {
		expanded, err := storage.ExpandHome(cfg.MetricsFile)
		if err != nil {
			return Default(), fmt.Errorf("expand metrics_file: %w", err)
		}
		cfg.MetricsFile = expanded
	}

	return cfg, nil
}

// Parse decodes TOML config content on top of the defaults.
func Parse(data []byte) (Config, error) {
	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := Default()
	if raw.CacheDir != "" {
		cfg.CacheDir = raw.CacheDir
	}
	if raw.ChunkSize != nil {
		cfg.ChunkSize = *raw.ChunkSize
	}
	cfg.Timeout = raw.Timeout
	if raw.UserAgent != nil {
		cfg.UserAgent = *raw.UserAgent
	}
	if raw.CompactOnLoad != nil {
		cfg.CompactOnLoad = *raw.CompactOnLoad
	}
	cfg.MetricsFile = raw.MetricsFile

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		cfg.CacheDir = dir
	}
	if s := os.Getenv(EnvChunkSize); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvChunkSize, s, err)
		}
		cfg.ChunkSize = n
	}
	return nil
}

const defaultConfig = `# feedlog configuration

# Directory holding the metadata cache (last-updated.kv) and the item log
# (allitems.ndjson). Must be absolute or start with ~.
# Overridden by FEEDLOG_CACHE_DIR.
# cache_dir = "~/.cache/jsonfeed"

# Number of feeds fetched concurrently. Groups of this size are fetched one
# after another. Overridden by FEEDLOG_CHUNK_SIZE.
chunk_size = 10

# Per-request timeout as a Go duration ("30s", "1m"). 0 waits forever.
# timeout = "30s"

# User-Agent header sent with every request
# user_agent = "feedlog"

# Rewrite last-updated.kv to one line per key before fetching
compact_on_load = true

# Write run metrics in Prometheus text format (node_exporter textfile collector)
# metrics_file = "~/.cache/jsonfeed/feedlog.prom"
`

// DefaultContent returns the commented default config file.
func DefaultContent() string {
	return defaultConfig
}

// Init creates a default config file at ~/.config/feedlog/config.toml
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	return InitFile(path, force)
}

// InitFile writes the default config to path.
func InitFile(path string, force bool) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}

	return path, nil
}
