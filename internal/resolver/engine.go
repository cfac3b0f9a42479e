// Package resolver picks a calendar date for tasks that only carry a clock time.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/dayfinder/internal/calendar"
	"github.com/starford/dayfinder/internal/filecache"
	"github.com/starford/dayfinder/internal/hierarchy"
	"github.com/starford/dayfinder/internal/linescan"
	"github.com/starford/dayfinder/internal/models"
)

// DefaultBatchConcurrency bounds ResolveBatch when no limit is configured.
const DefaultBatchConcurrency = 8

// Engine applies the resolution priority: a date on or near the task line,
// then the parent chain, then the file (daily-note name or frontmatter),
// then the file creation time.
type Engine struct {
	cache      *filecache.Cache
	lines      *linescan.Scanner
	walker     *hierarchy.Walker
	logger     *slog.Logger
	batchLimit int
	// lookup overrides the per-call AllTasks slice when set.
	lookup hierarchy.TaskLookup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLineScanner replaces the default line scanner.
func WithLineScanner(s *linescan.Scanner) Option {
	return func(e *Engine) { e.lines = s }
}

// WithMaxParentDepth bounds the parent walk.
func WithMaxParentDepth(n int) Option {
	return func(e *Engine) { e.walker = hierarchy.New(n) }
}

// WithTaskLookup resolves parent ids through l instead of the context's AllTasks.
func WithTaskLookup(l hierarchy.TaskLookup) Option {
	return func(e *Engine) { e.lookup = l }
}

// WithLogger sets the logger for rule decisions and walk failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithBatchConcurrency bounds the number of concurrent resolutions in ResolveBatch.
func WithBatchConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchLimit = n
		}
	}
}

// New creates an Engine that owns cache.
func New(cache *filecache.Cache, opts ...Option) *Engine {
	e := &Engine{
		cache:      cache,
		lines:      linescan.New(),
		walker:     hierarchy.New(hierarchy.DefaultMaxDepth),
		logger:     slog.Default(),
		batchLimit: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the engine's file date cache.
func (e *Engine) Cache() *filecache.Cache { return e.cache }

// ClearCache drops every cached file entry.
func (e *Engine) ClearCache() { e.cache.Clear() }

// Resolve always produces a result. The weakest outcome is the file
// creation time with low confidence and UsedFallback set.
func (e *Engine) Resolve(ctx context.Context, task *models.Task, tc *models.TimeComponent, rc models.ResolutionContext) models.Result {
	res := e.resolve(ctx, task, rc)
	e.logger.Debug("resolver: resolved",
		slog.String("task", taskID(task)),
		slog.String("time", timeText(tc)),
		slog.String("source", res.Source.String()),
		slog.String("date", res.ResolvedDate.String()),
	)
	return res
}

func (e *Engine) resolve(ctx context.Context, task *models.Task, rc models.ResolutionContext) models.Result {
	if d, ok := e.lines.Scan(rc.CurrentLine, rc.LineNumber, rc.AllLines); ok {
		return models.Result{
			ResolvedDate: d,
			Source:       models.SourceLineDate,
			Confidence:   models.ConfidenceHigh,
			Explanation:  "Date found on the task line or an adjacent line",
		}
	}

	if parent := parentOf(task, rc); parent != nil {
		if res, ok := e.fromParent(parent, rc); ok {
			return res
		}
	}

	path := rc.FilePath
	if path == "" && task != nil {
		path = task.FilePath
	}
	info := e.cache.Get(ctx, path)

	switch {
	case info.IsDailyNote && info.DailyNoteDate != nil:
		return models.Result{
			ResolvedDate: *info.DailyNoteDate,
			Source:       models.SourceDailyNoteDate,
			Confidence:   models.ConfidenceHigh,
			Explanation:  fmt.Sprintf("Date taken from daily note %q", path),
		}
	case info.MetadataDate != nil:
		return models.Result{
			ResolvedDate: *info.MetadataDate,
			Source:       models.SourceMetadataDate,
			Confidence:   models.ConfidenceMedium,
			Explanation:  fmt.Sprintf("Date taken from frontmatter property %q", info.MetadataProperty),
		}
	case info.DailyNoteDate != nil:
		return models.Result{
			ResolvedDate: *info.DailyNoteDate,
			Source:       models.SourceDailyNoteDate,
			Confidence:   models.ConfidenceMedium,
			Explanation:  fmt.Sprintf("Date taken from the path of %q", path),
		}
	}

	return models.Result{
		ResolvedDate: info.Ctime.DateOnly(),
		Source:       models.SourceFileCtime,
		Confidence:   models.ConfidenceLow,
		UsedFallback: true,
		Explanation:  "No date found; using the file creation time",
	}
}

func (e *Engine) fromParent(parent *models.Task, rc models.ResolutionContext) (models.Result, bool) {
	var lookup hierarchy.TaskLookup = hierarchy.TaskSlice(rc.AllTasks)
	if e.lookup != nil {
		lookup = e.lookup
	}
	found, err := e.walker.Walk(parent, lookup)
	if err != nil {
		// The walker reads the direct parent before any lookup, so a
		// WalkError means the parent itself had no date. Retry over the
		// tasks of the current file.
		e.logger.Warn("resolver: parent walk failed, retrying over file tasks",
			slog.String("parent", parent.ID), slog.String("error", err.Error()))
		found, err = e.walker.Walk(parent, hierarchy.TaskSlice(rc.AllTasks))
		if err != nil || found == nil {
			return models.Result{}, false
		}
		return models.Result{
			ResolvedDate: found.Date,
			Source:       models.SourceParentTask,
			Confidence:   models.ConfidenceForDepth(found.Depth),
			Explanation: fmt.Sprintf("Inherited %s from %s (depth %d, fallback)",
				found.Field, ancestor(found.Depth), found.Depth),
		}, true
	}
	if found == nil {
		return models.Result{}, false
	}
	return models.Result{
		ResolvedDate: found.Date,
		Source:       models.SourceParentTask,
		Confidence:   models.ConfidenceForDepth(found.Depth),
		Explanation:  fmt.Sprintf("Inherited %s from %s (depth %d)", found.Field, ancestor(found.Depth), found.Depth),
	}, true
}

// parentOf prefers the explicit parent and falls back to the task's parent id.
func parentOf(task *models.Task, rc models.ResolutionContext) *models.Task {
	if rc.ParentTask != nil {
		return rc.ParentTask
	}
	if task == nil || task.Metadata.Parent == "" {
		return nil
	}
	p, err := hierarchy.TaskSlice(rc.AllTasks).TaskByID(task.Metadata.Parent)
	if err != nil {
		return nil
	}
	return p
}

func ancestor(depth int) string {
	switch depth {
	case 0:
		return "parent task"
	case 1:
		return "grandparent task"
	default:
		return "ancestor task"
	}
}

// Request is one input to ResolveBatch.
type Request struct {
	Task    *models.Task
	Time    *models.TimeComponent
	Context models.ResolutionContext
}

// ResolveBatch resolves reqs concurrently and returns results in input
// order. It fails only when ctx is cancelled.
func (e *Engine) ResolveBatch(ctx context.Context, reqs []Request) ([]models.Result, error) {
	out := make([]models.Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchLimit)
	for i, r := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.Resolve(gctx, r.Task, r.Time, r.Context)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// At combines a resolved date with a time component. End is set for ranges.
func At(d calendar.Date, tc *models.TimeComponent) (start calendar.Date, end *calendar.Date) {
	day := d.DateOnly()
	if tc == nil {
		return day, nil
	}
	start = withClock(day, tc)
	if tc.IsRange && tc.RangePartner != nil {
		e := withClock(day, tc.RangePartner)
		if e.Before(start) {
			e = e.AddDays(1)
		}
		end = &e
	}
	return start, end
}

func withClock(d calendar.Date, tc *models.TimeComponent) calendar.Date {
	dt, err := calendar.NewDateTime(d.Year, d.Month, d.Day, tc.Hour, tc.Minute, 0)
	if err != nil {
		return d
	}
	return dt
}

func taskID(t *models.Task) string {
	if t == nil {
		return ""
	}
	return t.ID
}

func timeText(tc *models.TimeComponent) string {
	if tc == nil {
		return ""
	}
	return tc.OriginalText
}
