// Package noteservice ties vault storage, the resolver, and the index together
// for the CLI, HTTP, and MCP surfaces.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/dayfinder/internal/apperr"
	"github.com/starford/dayfinder/internal/calendar"
	"github.com/starford/dayfinder/internal/filecache"
	"github.com/starford/dayfinder/internal/hierarchy"
	"github.com/starford/dayfinder/internal/index"
	"github.com/starford/dayfinder/internal/models"
	"github.com/starford/dayfinder/internal/parser"
	"github.com/starford/dayfinder/internal/resolver"
	"github.com/starford/dayfinder/internal/storage"
)

// Resolution is a resolved task with its full start and optional end time.
type Resolution struct {
	Path   string                `json:"path"`
	Line   int                   `json:"line"`
	Task   *models.Task          `json:"task"`
	Time   *models.TimeComponent `json:"time,omitempty"`
	Result models.Result         `json:"result"`
	Start  calendar.Date         `json:"start"`
	End    *calendar.Date        `json:"end,omitempty"`
}

// Service coordinates storage, resolution, and index operations.
type Service struct {
	store  storage.Provider
	engine *resolver.Engine
	db     *index.DB
	logger *slog.Logger
}

var _ index.FileResolver = (*Service)(nil)

// NewService creates a new service. db may be nil when no index is configured.
func NewService(store storage.Provider, engine *resolver.Engine, db *index.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, engine: engine, db: db, logger: logger}
}

// ResolveAt resolves the task on a zero-based line of a vault file.
func (s *Service) ResolveAt(ctx context.Context, path string, line int) (*Resolution, error) {
	if line < 0 {
		return nil, fmt.Errorf("%w: line must not be negative", apperr.ErrInvalidArgument)
	}
	res, err := s.parse(path)
	if err != nil {
		return nil, err
	}
	for _, t := range res.Tasks {
		if t.Line == line {
			return s.resolveTask(ctx, path, res, t), nil
		}
	}
	return nil, apperr.ErrNoTask
}

// FileInfo returns the cached date facts for an existing vault file.
func (s *Service) FileInfo(ctx context.Context, path string) (filecache.FileDateInfo, error) {
	if s.store.File(path) == nil {
		return filecache.FileDateInfo{}, apperr.ErrNotFound
	}
	return s.engine.Cache().Get(ctx, path), nil
}

// TasksOnDate lists indexed tasks resolved to date (YYYY-MM-DD).
func (s *Service) TasksOnDate(_ context.Context, date string) ([]index.Row, error) {
	d, err := calendar.Parse(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}
	if s.db == nil {
		return nil, errors.New("noteservice: no index configured")
	}
	rows, err := s.db.ListByDate(d.DateOnly().String())
	if err != nil {
		return nil, err
	}
	return nonNilSlice(rows), nil
}

// ClearCache drops every cached file entry and reports how many there were.
func (s *Service) ClearCache() int {
	n := s.engine.Cache().Len()
	s.engine.ClearCache()
	return n
}

// Scan brings the index up to date with the vault.
func (s *Service) Scan(ctx context.Context) (index.SyncStats, error) {
	if s.db == nil {
		return index.SyncStats{}, errors.New("noteservice: no index configured")
	}
	return index.Sync(ctx, s.db, s.store, s, s.logger)
}

// SourceSummary counts indexed tasks per resolution source.
func (s *Service) SourceSummary(_ context.Context) (map[string]int, error) {
	if s.db == nil {
		return nil, errors.New("noteservice: no index configured")
	}
	return s.db.CountBySource()
}

// ResolveFile resolves every time-only task in data.
func (s *Service) ResolveFile(ctx context.Context, path string, data []byte) ([]index.Row, error) {
	res, err := parser.Parse(path, data)
	if err != nil {
		return nil, err
	}
	var reqs []resolver.Request
	var tasks []*models.Task
	var times []*models.TimeComponent
	for _, t := range res.Tasks {
		line := res.Lines[t.Line]
		if !parser.IsTimeOnly(line) {
			continue
		}
		tc, _ := parser.ExtractTime(line)
		reqs = append(reqs, resolver.Request{Task: t, Time: tc, Context: contextFor(path, res, t)})
		tasks = append(tasks, t)
		times = append(times, tc)
	}
	results, err := s.engine.ResolveBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}
	rows := make([]index.Row, len(results))
	for i, r := range results {
		rows[i] = index.Row{
			Path:         path,
			Line:         tasks[i].Line,
			TaskID:       tasks[i].ID,
			Text:         tasks[i].Content,
			TimeText:     times[i].OriginalText,
			ResolvedDate: r.ResolvedDate.String(),
			Source:       r.Source.String(),
			Confidence:   r.Confidence.String(),
			UsedFallback: r.UsedFallback,
			Explanation:  r.Explanation,
		}
	}
	return rows, nil
}

func (s *Service) parse(path string) (*parser.Result, error) {
	if s.store.File(path) == nil {
		return nil, apperr.ErrNotFound
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return parser.Parse(path, data)
}

func (s *Service) resolveTask(ctx context.Context, path string, res *parser.Result, t *models.Task) *Resolution {
	tc, _ := parser.ExtractTime(res.Lines[t.Line])
	r := s.engine.Resolve(ctx, t, tc, contextFor(path, res, t))
	start, end := resolver.At(r.ResolvedDate, tc)
	return &Resolution{Path: path, Line: t.Line, Task: t, Time: tc, Result: r, Start: start, End: end}
}

func contextFor(path string, res *parser.Result, t *models.Task) models.ResolutionContext {
	line := t.Line
	rc := models.ResolutionContext{
		CurrentLine: res.Lines[line],
		FilePath:    path,
		LineNumber:  &line,
		AllLines:    res.Lines,
		AllTasks:    res.Tasks,
	}
	if t.Metadata.Parent != "" {
		if p, err := hierarchy.TaskSlice(res.Tasks).TaskByID(t.Metadata.Parent); err == nil {
			rc.ParentTask = p
		}
	}
	return rc
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
