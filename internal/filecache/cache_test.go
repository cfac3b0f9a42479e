package filecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dayfinder/internal/calendar"
	"github.com/starford/dayfinder/internal/storage"
)

type fakeVault struct {
	mu          sync.Mutex
	files       map[string]map[string]any
	ctime       time.Time
	statErr     error
	statCalls   int
	fmCalls     int
	lookupCalls int
}

func newFakeVault() *fakeVault {
	return &fakeVault{
		files: map[string]map[string]any{},
		ctime: time.Date(2023, time.November, 2, 7, 30, 0, 0, time.Local),
	}
}

func (v *fakeVault) File(path string) *storage.File {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lookupCalls++
	if _, ok := v.files[path]; !ok {
		return nil
	}
	return &storage.File{Path: path}
}

func (v *fakeVault) Stat(_ context.Context, path string) (*storage.FileStat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statCalls++
	if v.statErr != nil {
		return nil, v.statErr
	}
	return &storage.FileStat{Ctime: v.ctime.UnixMilli(), Mtime: v.ctime.UnixMilli()}, nil
}

func (v *fakeVault) Frontmatter(_ context.Context, f *storage.File) (map[string]any, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fmCalls++
	return v.files[f.Path], nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newCache(t *testing.T, v *fakeVault, clk *clock, opts ...Option) *Cache {
	t.Helper()
	c, err := New(v, v, append([]Option{WithClock(clk.now)}, opts...)...)
	require.NoError(t, err)
	return c
}

func startClock() *clock {
	return &clock{t: time.Date(2024, time.March, 13, 9, 0, 0, 0, time.Local)}
}

func TestGet_DailyNote(t *testing.T) {
	v := newFakeVault()
	v.files["daily/2024-03-15.md"] = nil
	c := newCache(t, v, startClock())

	info := c.Get(context.Background(), "daily/2024-03-15.md")
	assert.True(t, info.Exists)
	assert.True(t, info.IsDailyNote)
	require.NotNil(t, info.DailyNoteDate)
	assert.Equal(t, calendar.MustNew(2024, time.March, 15), *info.DailyNoteDate)
	assert.Nil(t, info.MetadataDate)
	assert.Equal(t, calendar.FromTime(v.ctime), info.Ctime)
}

func TestGet_Metadata(t *testing.T) {
	v := newFakeVault()
	v.files["projects/plan.md"] = map[string]any{
		"created":       "2024-03-10",
		"date":          "2024-03-15",
		"creation-date": "2024-03-05",
	}
	c := newCache(t, v, startClock())

	info := c.Get(context.Background(), "projects/plan.md")
	assert.False(t, info.IsDailyNote)
	assert.Nil(t, info.DailyNoteDate)
	require.NotNil(t, info.MetadataDate)
	assert.Equal(t, calendar.MustNew(2024, time.March, 15), *info.MetadataDate)
	assert.Equal(t, "date", info.MetadataProperty)
}

func TestGet_EmbeddedDateIsNotConfirmedDailyNote(t *testing.T) {
	v := newFakeVault()
	v.files["meetings/meeting-2024-03-15-notes.md"] = nil
	c := newCache(t, v, startClock())

	info := c.Get(context.Background(), "meetings/meeting-2024-03-15-notes.md")
	require.NotNil(t, info.DailyNoteDate)
	assert.False(t, info.IsDailyNote)
}

func TestGet_Idempotent(t *testing.T) {
	v := newFakeVault()
	v.files["a.md"] = map[string]any{"date": "2024-03-01"}
	clk := startClock()
	c := newCache(t, v, clk)

	first := c.Get(context.Background(), "a.md")
	clk.advance(time.Minute)
	second := c.Get(context.Background(), "a.md")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, v.statCalls)
	assert.Equal(t, 1, v.fmCalls)
	assert.Equal(t, 1, v.lookupCalls)
}

func TestGet_StaleEntryReloads(t *testing.T) {
	v := newFakeVault()
	v.files["a.md"] = nil
	clk := startClock()
	c := newCache(t, v, clk, WithTTL(5*time.Minute))

	c.Get(context.Background(), "a.md")
	clk.advance(5 * time.Minute)
	info := c.Get(context.Background(), "a.md")

	assert.Equal(t, 2, v.statCalls)
	assert.Equal(t, clk.t, info.CachedAt)
	assert.Equal(t, 1, c.Len())
}

func TestGet_MissingFileNotCached(t *testing.T) {
	v := newFakeVault()
	clk := startClock()
	c := newCache(t, v, clk)

	info := c.Get(context.Background(), "nope.md")
	assert.False(t, info.Exists)
	assert.False(t, info.IsDailyNote)
	assert.Nil(t, info.DailyNoteDate)
	assert.Nil(t, info.MetadataDate)
	assert.Equal(t, calendar.FromTime(clk.t), info.Ctime)
	assert.Zero(t, info.Mtime)

	c.Get(context.Background(), "nope.md")
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, v.statCalls, "stat skipped for a missing file")
	assert.Equal(t, 2, v.lookupCalls, "negative result is not cached")
}

func TestGet_StatFailureTreatedAsMissing(t *testing.T) {
	v := newFakeVault()
	v.files["a.md"] = nil
	v.statErr = errors.New("permission denied")
	c := newCache(t, v, startClock())

	info := c.Get(context.Background(), "a.md")
	assert.False(t, info.Exists)
	assert.Equal(t, 0, v.fmCalls)
	assert.Equal(t, 0, c.Len())
}

func TestEviction_OldestInsertionFirst(t *testing.T) {
	v := newFakeVault()
	for i := 0; i < 4; i++ {
		v.files[fmt.Sprintf("n%d.md", i)] = nil
	}
	c := newCache(t, v, startClock(), WithMaxSize(3))
	ctx := context.Background()

	c.Get(ctx, "n0.md")
	c.Get(ctx, "n1.md")
	c.Get(ctx, "n2.md")
	// A hit must not protect n0 from eviction.
	c.Get(ctx, "n0.md")
	c.Get(ctx, "n3.md")

	assert.Equal(t, 3, c.Len())
	calls := v.statCalls
	c.Get(ctx, "n1.md")
	c.Get(ctx, "n2.md")
	c.Get(ctx, "n3.md")
	assert.Equal(t, calls, v.statCalls, "n1..n3 still cached")
	c.Get(ctx, "n0.md")
	assert.Equal(t, calls+1, v.statCalls, "n0 was evicted")
}

func TestEviction_ReloadCountsAsInsertion(t *testing.T) {
	v := newFakeVault()
	for i := 0; i < 3; i++ {
		v.files[fmt.Sprintf("n%d.md", i)] = nil
	}
	clk := startClock()
	c := newCache(t, v, clk, WithMaxSize(2), WithTTL(5*time.Minute))
	ctx := context.Background()

	c.Get(ctx, "n0.md")
	clk.advance(time.Minute)
	c.Get(ctx, "n1.md")
	clk.advance(4 * time.Minute)
	// n0 is stale and reloads; n1 is now the oldest insertion.
	c.Get(ctx, "n0.md")
	c.Get(ctx, "n2.md")

	calls := v.statCalls
	c.Get(ctx, "n0.md")
	assert.Equal(t, calls, v.statCalls, "reloaded n0 survives")
	c.Get(ctx, "n1.md")
	assert.Equal(t, calls+1, v.statCalls, "n1 was evicted")
}

func TestClearAndInvalidate(t *testing.T) {
	v := newFakeVault()
	v.files["a.md"] = nil
	v.files["b.md"] = nil
	c := newCache(t, v, startClock())
	ctx := context.Background()

	c.Get(ctx, "a.md")
	c.Get(ctx, "b.md")
	c.Invalidate("a.md")
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	c.Get(ctx, "b.md")
	assert.Equal(t, 3, v.statCalls)
}

func TestConcurrentGet(t *testing.T) {
	v := newFakeVault()
	v.files["a.md"] = nil
	c := newCache(t, v, startClock())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info := c.Get(context.Background(), "a.md")
			assert.True(t, info.Exists)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
