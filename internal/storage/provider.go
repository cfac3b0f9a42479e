// Package storage defines the vault file-system abstraction.
package storage

import (
	"context"
	"time"
)

// File is a handle to an existing vault file.
type File struct {
	// Path is relative to the vault root, slash-separated.
	Path string
	Name string
}

// FileStat carries file timestamps in Unix milliseconds.
type FileStat struct {
	Ctime int64
	Mtime int64
}

// CtimeTime returns Ctime as a local time.Time.
func (s FileStat) CtimeTime() time.Time { return time.UnixMilli(s.Ctime) }

// FileInfo is one entry of a vault listing.
type FileInfo struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// FileStore resolves paths to files and reads their timestamps.
type FileStore interface {
	// File returns nil when no regular file exists at path.
	File(path string) *File
	Stat(ctx context.Context, path string) (*FileStat, error)
}

// MetadataStore reads note frontmatter. A note without frontmatter yields
// a nil map and a nil error.
type MetadataStore interface {
	Frontmatter(ctx context.Context, f *File) (map[string]any, error)
}

// Provider is the full vault interface used by indexing and the CLI.
type Provider interface {
	FileStore
	MetadataStore
	// List returns every .md file under dir (relative to vault root).
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
}
