package index

import "context"

// ResolutionIndex defines the query and mutation surface of the index.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ResolutionIndex interface {
	ReplaceFile(path, checksum string, rows []Row) error
	DeleteFile(path string) error
	FileChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListByDate(date string) ([]Row, error)
	ListByFile(path string) ([]Row, error)
	CountBySource() (map[string]int, error)
	Close() error
}

// Verify *DB satisfies ResolutionIndex at compile time.
var _ ResolutionIndex = (*DB)(nil)

// FileResolver turns a note's content into index rows, one per time-only task.
type FileResolver interface {
	ResolveFile(ctx context.Context, path string, data []byte) ([]Row, error)
}

// FileResolverFunc adapts a function to FileResolver.
type FileResolverFunc func(ctx context.Context, path string, data []byte) ([]Row, error)

func (f FileResolverFunc) ResolveFile(ctx context.Context, path string, data []byte) ([]Row, error) {
	return f(ctx, path, data)
}
