package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate checks all config fields and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if err := ValidatePath(c.CacheDir, "cache_dir"); err != nil {
		errs = append(errs, err)
	}
	if err := ValidatePath(c.MetricsFile, "metrics_file"); err != nil {
		errs = append(errs, err)
	}
	if c.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("chunk_size must be at least 1, got %d", c.ChunkSize))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}

	return errors.Join(errs...)
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // Empty is allowed (means not configured)
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}
