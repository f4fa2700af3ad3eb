// Package config handles loading and validation of feedlog configuration.
//
// Configuration is read from ~/.config/feedlog/config.toml with environment
// variable overrides.
//
// # Configuration Sources (highest priority first)
//
//   - Command-line flags (applied by the caller)
//   - FEEDLOG_CACHE_DIR, FEEDLOG_CHUNK_SIZE env vars
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - cache_dir: Directory for last-updated.kv and allitems.ndjson (default: ~/.cache/jsonfeed)
//   - chunk_size: Feeds fetched concurrently per group (default: 10)
//   - timeout: Per-request timeout, "0" waits forever (default)
//   - compact_on_load: Compact the metadata cache before fetching (default: true)
//   - metrics_file: Optional Prometheus textfile written after each run
//
// # Path Validation
//
// Paths must be absolute or start with ~ (no relative paths like "."
// or "..") to avoid confusion about the working directory.
package config
