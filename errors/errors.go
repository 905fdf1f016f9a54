// Package errors defines the typed failures surfaced while building a tile
// extract. Every condition here reflects a structural precondition violation
// (bad input tree, bad config, corrupt tile) rather than a transient fault,
// so callers are expected to abort instead of retrying.
package errors

import "fmt"

// NoTilesFoundError indicates that the tile root directory is missing, is
// not a directory, or contains no usable graph tiles.
type NoTilesFoundError struct {
	Dir string
}

func (n NoTilesFoundError) Error() string {
	return fmt.Sprintf("%s: no usable graph tiles found", n.Dir)
}

// MalformedPathError indicates that a tile path does not decode into a valid
// graph id. An index built past such a path would be silently wrong, so this
// condition is fatal.
type MalformedPathError struct {
	Path   string
	Reason string
}

func (m MalformedPathError) Error() string {
	return fmt.Sprintf("%s: cannot derive graph id: %s", m.Path, m.Reason)
}

// HeaderDecodeError indicates a tile too small to carry the bit-packed
// counts word, observed while sizing its traffic skeleton.
type HeaderDecodeError struct {
	Member string
}

func (h HeaderDecodeError) Error() string {
	return fmt.Sprintf("%s: tile truncated before the header counts word", h.Member)
}

// ExtractLockedError indicates that the extract output is currently owned by
// another live process. The process holding the lock is present in the PID
// field of this error.
type ExtractLockedError struct {
	PID int
}

func (e ExtractLockedError) Error() string {
	return fmt.Sprintf("extract is locked by process %d", e.PID)
}

// ConfigError indicates that the configuration file could not be read or
// parsed. It is raised before any archive I/O takes place.
type ConfigError struct {
	Path string
	Err  error
}

func (c ConfigError) Error() string {
	return fmt.Sprintf("%s: cannot load config: %v", c.Path, c.Err)
}

func (c ConfigError) Unwrap() error { return c.Err }
