// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/dayfinder/internal/filecache"
	"github.com/starford/dayfinder/internal/index"
	"github.com/starford/dayfinder/internal/linescan"
	"github.com/starford/dayfinder/internal/metadata"
	"github.com/starford/dayfinder/internal/resolver"
	"github.com/starford/dayfinder/internal/storage"
)

// Now is the fixed clock used by Engine: Wednesday 2024-03-13 09:00 local.
var Now = time.Date(2024, time.March, 13, 9, 0, 0, 0, time.Local)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "dayfinder-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.FS.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteNote writes content to a slash-separated path under the vault.
func WriteNote(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	p := filepath.Join(vaultDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Engine builds a resolver over store with every clock pinned to Now.
func Engine(t *testing.T, store storage.Provider) *resolver.Engine {
	t.Helper()
	clock := func() time.Time { return Now }
	cache, err := filecache.New(store, store,
		filecache.WithClock(clock),
		filecache.WithMetadataExtractor(metadata.New(metadata.WithClock(clock))),
	)
	if err != nil {
		t.Fatal(err)
	}
	return resolver.New(cache, resolver.WithLineScanner(linescan.New(linescan.WithClock(clock))))
}
