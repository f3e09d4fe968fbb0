// Package storage defines the source file-system abstraction.
package storage

import "time"

// FileInfo is the walk-time metadata for one content file.
type FileInfo struct {
	// Path is relative to the source root, using the platform separator.
	Path    string
	ModTime time.Time
}

// Provider is the interface for source file operations.
type Provider interface {
	// List returns metadata for every Markdown file under dir
	// (relative to the source root), hidden directories excluded.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to the source root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the source root).
	Write(path string, content []byte) error
}
