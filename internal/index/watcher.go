package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/dayfinder/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// Watcher re-indexes vault files as they change.
type Watcher struct {
	DB       *DB
	Store    storage.Provider
	Resolver FileResolver
	Root     string
	Logger   *slog.Logger
	// Invalidate, when set, is called with the vault path of every changed
	// file before it is re-resolved.
	Invalidate func(path string)
	// OnEvent, when set, is called after each successful index mutation.
	OnEvent EventCallback
}

// Run processes file change events until ctx is cancelled.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that removes stale
// index entries whose files no longer exist on disk.
func (wt *Watcher) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, wt.Root); err != nil {
		return err
	}

	wt.Logger.Info("watcher: started", slog.String("root", wt.Root))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			wt.Logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			wt.reconcile(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						wt.Logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					wt.indexNewDir(ctx, absPath)
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(wt.Root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				wt.index(ctx, rel, kind)

			case ev.Op&fsnotify.Remove != 0:
				wt.remove(rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the old path only; the new path
				// arrives as a Create if it stays inside a watched dir.
				wt.remove(rel)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			wt.Logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (wt *Watcher) index(ctx context.Context, rel, kind string) bool {
	data, err := wt.Store.Read(rel)
	if err != nil {
		wt.Logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	if wt.Invalidate != nil {
		wt.Invalidate(rel)
	}
	if err := IndexFile(ctx, wt.DB, wt.Resolver, rel, data); err != nil {
		wt.Logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	wt.Logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	wt.emit(kind, rel)
	return true
}

func (wt *Watcher) remove(rel string) {
	if wt.Invalidate != nil {
		wt.Invalidate(rel)
	}
	if err := wt.DB.DeleteFile(rel); err != nil {
		wt.Logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	wt.Logger.Debug("watcher: deleted", slog.String("path", rel))
	wt.emit("deleted", rel)
}

func (wt *Watcher) emit(kind, rel string) {
	if wt.OnEvent != nil {
		wt.OnEvent(kind, rel)
	}
}

// reconcile removes index entries without a file on disk and indexes
// on-disk files whose checksum differs from the index.
func (wt *Watcher) reconcile(ctx context.Context) {
	checksums, err := wt.DB.AllChecksums()
	if err != nil {
		wt.Logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := wt.Store.List("")
	if err != nil {
		wt.Logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			wt.remove(p)
		}
	}
	for p, cs := range disk {
		if checksums[p] != cs {
			wt.index(ctx, p, "created")
		}
	}
}

// indexNewDir indexes any .md files found in a newly created directory.
func (wt *Watcher) indexNewDir(ctx context.Context, dirPath string) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(wt.Root, path)
		if relErr != nil {
			return nil
		}
		wt.index(ctx, filepath.ToSlash(rel), "created")
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
