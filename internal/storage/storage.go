// Package storage provides file helpers for feedlog's cache directory.
package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultCacheDir is used when no cache directory is configured.
const DefaultCacheDir = "~/.cache/jsonfeed"

// CacheDir expands ~ in dir and creates the directory if needed.
// An empty dir resolves to DefaultCacheDir.
func CacheDir(dir string) (string, error) {
	if dir == "" {
		dir = DefaultCacheDir
	}

	expanded, err := ExpandHome(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	return expanded, nil
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && (len(path) < 2 || path[:2] != "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand ~: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// WriteAtomic writes the content produced by fn to tempPath, syncs it,
// then renames it over path. On failure the temp file is removed and
// path is left untouched. The permissions of an existing path are kept;
// a new file gets 0644 like AppendLines.
func WriteAtomic(path, tempPath string, fn func(w io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tempPath)
		}
	}()

	if st, statErr := os.Stat(path); statErr == nil {
		if err := f.Chmod(st.Mode().Perm()); err != nil {
			f.Close()
			return err
		}
	}

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

// AppendLines appends each line plus a newline to path in a single write.
// The file is created if missing and never truncated.
func AppendLines(path string, lines ...[]byte) error {
	if len(lines) == 0 {
		return nil
	}

	var buf []byte
	for _, line := range lines {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.Write(buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
