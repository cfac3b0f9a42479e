// Package filecache memoizes per-file date facts for the resolver.
package filecache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/starford/dayfinder/internal/calendar"
	"github.com/starford/dayfinder/internal/dailynote"
	"github.com/starford/dayfinder/internal/metadata"
	"github.com/starford/dayfinder/internal/storage"
)

const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 500
)

// FileDateInfo is everything the resolver needs to know about a file.
type FileDateInfo struct {
	// Ctime is the file creation time, or "now" for a missing file.
	Ctime         calendar.Date  `json:"ctime"`
	MetadataDate  *calendar.Date `json:"metadata_date,omitempty"`
	DailyNoteDate *calendar.Date `json:"daily_note_date,omitempty"`
	// MetadataProperty names the frontmatter key MetadataDate came from.
	MetadataProperty string `json:"metadata_property,omitempty"`
	// IsDailyNote is set only when the name is confidently a daily note;
	// DailyNoteDate may be present without it.
	IsDailyNote bool      `json:"is_daily_note"`
	Exists      bool      `json:"exists"`
	Mtime       int64     `json:"mtime"`
	CachedAt    time.Time `json:"cached_at"`
}

// Cache holds FileDateInfo per vault path. Entries expire after the TTL and
// the oldest insertion is evicted once MaxSize is reached. It is safe for
// concurrent use.
type Cache struct {
	files storage.FileStore
	meta  storage.MetadataStore

	ttl       time.Duration
	maxSize   int
	now       func() time.Time
	logger    *slog.Logger
	dailyNote *dailynote.Extractor
	metadata  *metadata.Extractor

	entries *lru.Cache[string, FileDateInfo]
	loads   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long an entry is served before it is rebuilt.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithMaxSize bounds the number of entries.
func WithMaxSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithClock overrides the time source for ctime of missing files and TTL checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger for read failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithDailyNoteExtractor replaces the default (US-ordered) extractor.
func WithDailyNoteExtractor(e *dailynote.Extractor) Option {
	return func(c *Cache) { c.dailyNote = e }
}

// WithMetadataExtractor replaces the default frontmatter date extractor.
func WithMetadataExtractor(e *metadata.Extractor) Option {
	return func(c *Cache) { c.metadata = e }
}

// New creates a Cache over the given stores.
func New(files storage.FileStore, meta storage.MetadataStore, opts ...Option) (*Cache, error) {
	c := &Cache{
		files:   files,
		meta:    meta,
		ttl:     DefaultTTL,
		maxSize: DefaultMaxSize,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dailyNote == nil {
		c.dailyNote = dailynote.New(false)
	}
	if c.metadata == nil {
		c.metadata = metadata.New(metadata.WithClock(c.now))
	}
	entries, err := lru.New[string, FileDateInfo](c.maxSize)
	if err != nil {
		return nil, fmt.Errorf("filecache: %w", err)
	}
	c.entries = entries
	return c, nil
}

// Get returns the date facts for path. A fresh entry is returned without
// touching the stores. A missing file yields a synthetic entry dated now,
// which is not cached.
func (c *Cache) Get(ctx context.Context, path string) FileDateInfo {
	// Peek leaves the eviction order untouched, so the oldest insertion goes first.
	if info, ok := c.entries.Peek(path); ok && c.fresh(info) {
		return info
	}
	v, _, _ := c.loads.Do(path, func() (any, error) {
		return c.load(ctx, path), nil
	})
	return v.(FileDateInfo)
}

func (c *Cache) fresh(info FileDateInfo) bool {
	return c.now().Sub(info.CachedAt) < c.ttl
}

func (c *Cache) load(ctx context.Context, path string) FileDateInfo {
	now := c.now()
	file := c.files.File(path)
	if file == nil {
		return missing(now)
	}
	st, err := c.files.Stat(ctx, path)
	if err != nil || st == nil {
		c.logger.Debug("filecache: stat failed, treating as missing",
			slog.String("path", path), slog.Any("error", err))
		return missing(now)
	}

	info := FileDateInfo{
		Ctime:    calendar.FromTime(st.CtimeTime()),
		Exists:   true,
		Mtime:    st.Mtime,
		CachedAt: now,
	}
	if m, ok := c.dailyNote.Analyze(path); ok {
		d := m.Date
		info.DailyNoteDate = &d
		info.IsDailyNote = m.IsDailyNote()
	}

	fm, err := c.meta.Frontmatter(ctx, file)
	if err != nil {
		c.logger.Debug("filecache: frontmatter unavailable",
			slog.String("path", path), slog.String("error", err.Error()))
	}
	if m, ok := c.metadata.Find(fm); ok {
		d := m.Date
		info.MetadataDate = &d
		info.MetadataProperty = m.Property
	}

	// A reloaded key counts as a new insertion for FIFO eviction.
	c.entries.Remove(path)
	c.entries.Add(path, info)
	return info
}

func missing(now time.Time) FileDateInfo {
	return FileDateInfo{Ctime: calendar.FromTime(now), CachedAt: now}
}

// Invalidate drops the entry for path.
func (c *Cache) Invalidate(path string) {
	c.entries.Remove(path)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries.Purge()
}

// Len reports the number of cached entries, stale ones included.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// TTL returns the configured staleness window.
func (c *Cache) TTL() time.Duration { return c.ttl }
