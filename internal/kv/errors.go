package kv

import (
	"errors"
	"fmt"
)

var (
	// ErrLocked is returned when the lock marker is present.
	ErrLocked = errors.New("file locked by another process")

	// ErrInvalidArgument is returned by Put for an empty key or value.
	ErrInvalidArgument = errors.New("null or empty value provided to kv")
)

// LoadError describes why Load produced a partial or empty mapping.
// The store is always usable after Load, so callers may log it and continue.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
