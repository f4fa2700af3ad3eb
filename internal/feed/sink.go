package feed

import (
	"fmt"
	"sync"

	"github.com/raphi011/feedlog/internal/storage"
)

// Sink receives decoded items.
type Sink interface {
	Append(items []Item) error
}

// FileSink appends items to a newline-delimited JSON file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink creates a sink writing to path. The file is created on the
// first Append and never truncated.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the file the sink writes to.
func (s *FileSink) Path() string {
	return s.path
}

// Append writes one line per item.
func (s *FileSink) Append(items []Item) error {
	lines := make([][]byte, 0, len(items))
	for _, it := range items {
		line, err := it.Line()
		if err != nil {
			return fmt.Errorf("encode item: %w", err)
		}
		lines = append(lines, line)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.AppendLines(s.path, lines...)
}
