package kv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/raphi011/feedlog/internal/storage"
)

// Store is a string key/value map backed by an append-only CSV log.
type Store struct {
	path   string
	marker *Marker

	mu   sync.RWMutex
	data map[string]string
}

// New creates a store for the log file at path. The lock marker lives
// next to it as path + ".lock". Call Load to populate the mapping.
func New(path string) *Store {
	return &Store{
		path:   path,
		marker: NewMarker(path + ".lock"),
		data:   make(map[string]string),
	}
}

// Path returns the log file path.
func (s *Store) Path() string {
	return s.path
}

// Marker returns the store's lock marker.
func (s *Store) Marker() *Marker {
	return s.marker
}

// Load replays the log file into memory. With compact set, the lock marker
// is held while the file is rewritten to contain only the latest value per key.
//
// Load never leaves the store unusable. A non-nil error is always a
// *LoadError describing what was skipped: the mapping holds whatever was
// read before the problem (nothing, if the marker was present).
func (s *Store) Load(compact bool) (err error) {
	if s.marker.Held() {
		return &LoadError{Path: s.path, Err: ErrLocked}
	}

	if compact {
		if err := s.marker.Acquire(); err != nil {
			return &LoadError{Path: s.path, Err: err}
		}
		defer func() {
			if relErr := s.marker.Release(); relErr != nil {
				err = joinLoadError(err, s.path, fmt.Errorf("release lock: %w", relErr))
			}
		}()
	}

	data, readErr := s.replay()

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	var errs []error
	if readErr != nil {
		errs = append(errs, readErr)
	}

	// An unreadable file would be compacted to nothing.
	if compact && readErr == nil {
		if err := s.compact(data); err != nil {
			errs = append(errs, fmt.Errorf("compact: %w", err))
		}
	}

	if len(errs) > 0 {
		return &LoadError{Path: s.path, Err: errors.Join(errs...)}
	}
	return nil
}

// maxLineSize bounds a single log line. Longer lines stop the replay.
const maxLineSize = 1 << 20

// replay reads the log file line by line. Lines that are not a valid
// record are skipped. It returns the records read before an I/O error
// together with that error.
func (s *Store) replay() (map[string]string, error) {
	data := make(map[string]string)

	f, err := os.OpenFile(s.path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return data, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	for sc.Scan() {
		key, value, ok := parseLine(sc.Text())
		if !ok {
			continue
		}
		data[key] = value
	}
	return data, sc.Err()
}

// parseLine decodes one log line. A line with broken quoting is rejected
// on its own and never consumes the lines after it.
func parseLine(line string) (key, value string, ok bool) {
	if strings.TrimSpace(line) == "" {
		return "", "", false
	}
	record, err := newReader(strings.NewReader(line)).Read()
	if err != nil {
		return "", "", false
	}
	return parseRecord(record)
}

// parseRecord splits a record into key and value. Extra fields are joined
// into the value.
func parseRecord(record []string) (key, value string, ok bool) {
	if len(record) < 2 || record[0] == "" {
		return "", "", false
	}
	value = strings.TrimSpace(strings.Join(record[1:], ""))
	if value == "" {
		return "", "", false
	}
	return record[0], value, true
}

func (s *Store) compact(data map[string]string) error {
	keys := make([]string, 0, len(data))
	for k, v := range data {
		if k == "" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return storage.WriteAtomic(s.path, s.path+"_compact", func(w io.Writer) error {
		cw := newWriter(w)
		for _, k := range keys {
			if err := cw.Write([]string{k, data[k]}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// Get returns the value for key. It never touches the filesystem.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Put appends the pair to the log and then records it in memory.
// Surrounding whitespace is trimmed from value, as replay does.
// Fails with ErrLocked while the lock marker is present and with
// ErrInvalidArgument if key or the trimmed value is empty or if either
// contains a line break.
func (s *Store) Put(key, value string) error {
	if s.marker.Held() {
		return ErrLocked
	}
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return fmt.Errorf("put %q: %w", key, ErrInvalidArgument)
	}
	if strings.ContainsAny(key, "\r\n") || strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("put %q: line break: %w", key, ErrInvalidArgument)
	}

	var buf bytes.Buffer
	cw := newWriter(&buf)
	if err := cw.Write([]string{key, value}); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.AppendLines(s.path, bytes.TrimSuffix(buf.Bytes(), []byte("\n"))); err != nil {
		return fmt.Errorf("append %s: %w", s.path, err)
	}
	s.data[key] = value
	return nil
}

// Len returns the number of keys in memory.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ','
	cr.FieldsPerRecord = -1
	return cr
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = ','
	cw.UseCRLF = false
	return cw
}

func joinLoadError(err error, path string, extra error) error {
	var le *LoadError
	if errors.As(err, &le) {
		le.Err = errors.Join(le.Err, extra)
		return le
	}
	return &LoadError{Path: path, Err: extra}
}
