package kv

import (
	"errors"
	"os"
	"sync"
	"syscall"
)

// Marker is an advisory lock represented by a sentinel file.
// The file exists only while a holder has exclusive access; other
// processes observe it with Held and back off.
type Marker struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// NewMarker creates a marker for the given path. Nothing is created on disk
// until Acquire is called.
func NewMarker(path string) *Marker {
	return &Marker{path: path}
}

// Path returns the sentinel file path.
func (m *Marker) Path() string {
	return m.path
}

// Held reports whether the sentinel file currently exists.
// It always checks the filesystem.
func (m *Marker) Held() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Stale reports whether the sentinel file exists but no process holds
// its flock, as happens when a holder exits without calling Release.
func (m *Marker) Stale() bool {
	f, err := os.Open(m.path)
	if err != nil {
		return false
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return false
	}
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	return true
}

// Acquire creates the sentinel file and takes an flock on it.
// Returns ErrLocked if the file already exists or is locked by someone else.
func (m *Marker) Acquire() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file != nil {
		return ErrLocked
	}

	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrLocked
		}
		return err
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		os.Remove(m.path)
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return ErrLocked
		}
		return err
	}

	m.file = f
	return nil
}

// Release unlocks and removes the sentinel file.
// Calling Release without a successful Acquire is a no-op.
func (m *Marker) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return nil
	}

	// Remove before unlocking so a waiter never sees an unlocked, present marker.
	rmErr := os.Remove(m.path)
	if errors.Is(rmErr, os.ErrNotExist) {
		rmErr = nil
	}

	unlockErr := syscall.Flock(int(m.file.Fd()), syscall.LOCK_UN)
	closeErr := m.file.Close()
	m.file = nil

	return errors.Join(rmErr, unlockErr, closeErr)
}
