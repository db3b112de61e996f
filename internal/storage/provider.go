// Package storage reads source trees and writes output trees on the local
// file system.
package storage

import "time"

// Entry describes one file found by List.
type Entry struct {
	Path      string // relative to the root, slash separated
	Size      int64
	UpdatedAt time.Time
}

// Provider is the interface for rooted file operations.
type Provider interface {
	// List walks dir (relative to root) and returns files whose extension
	// is in exts. An empty exts lists every file.
	List(dir string, exts ...string) ([]Entry, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
}
