// Package hierarchy inherits a date from a task's ancestors.
package hierarchy

import (
	"errors"
	"fmt"
	"time"

	"github.com/starford/dayfinder/internal/calendar"
	"github.com/starford/dayfinder/internal/models"
)

// DefaultMaxDepth bounds the ancestor walk.
const DefaultMaxDepth = 3

// ErrTaskNotFound is returned by a TaskLookup when no task has the id.
// The walker treats it as the end of the chain, not as a failure.
var ErrTaskNotFound = errors.New("task not found")

// TaskLookup resolves task ids to tasks.
type TaskLookup interface {
	TaskByID(id string) (*models.Task, error)
}

// TaskSlice is a TaskLookup over an in-memory task collection.
type TaskSlice []*models.Task

// TaskByID implements TaskLookup with a linear scan.
func (ts TaskSlice) TaskByID(id string) (*models.Task, error) {
	for _, t := range ts {
		if t != nil && t.ID == id {
			return t, nil
		}
	}
	return nil, ErrTaskNotFound
}

// Field names the task property a date was read from.
type Field string

const (
	FieldStartDate         Field = "startDate"
	FieldDueDate           Field = "dueDate"
	FieldScheduledDate     Field = "scheduledDate"
	FieldStartDateTime     Field = "enhancedDates.startDateTime"
	FieldDueDateTime       Field = "enhancedDates.dueDateTime"
	FieldScheduledDateTime Field = "enhancedDates.scheduledDateTime"
	FieldCreatedDate       Field = "createdDate"
)

// Found is a date inherited from an ancestor.
type Found struct {
	Date   calendar.Date
	Field  Field
	TaskID string
	// Depth is 0 for the direct parent, 1 for the grandparent, and so on.
	Depth int
}

// WalkError reports a failure while following the ancestor chain.
type WalkError struct {
	TaskID string
	Depth  int
	Err    error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("hierarchy: walk from %q at depth %d: %v", e.TaskID, e.Depth, e.Err)
}

func (e *WalkError) Unwrap() error { return e.Err }

// Walker follows parent links up to a fixed depth.
type Walker struct {
	maxDepth int
}

// New creates a Walker. A non-positive maxDepth selects DefaultMaxDepth.
func New(maxDepth int) *Walker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Walker{maxDepth: maxDepth}
}

// MaxDepth returns the configured depth cap.
func (w *Walker) MaxDepth() int { return w.maxDepth }

// Walk looks for a date on parent, then on its ancestors via lookup.
// It returns (nil, nil) when no ancestor within the depth cap has a date
// and a *WalkError when the lookup fails. The depth cap also bounds
// parent cycles.
func (w *Walker) Walk(parent *models.Task, lookup TaskLookup) (*Found, error) {
	return w.walk(parent, lookup, 0)
}

func (w *Walker) walk(task *models.Task, lookup TaskLookup, depth int) (*Found, error) {
	if task == nil || depth >= w.maxDepth {
		return nil, nil
	}
	if f, ok := TaskDate(task); ok {
		f.Depth = depth
		return &f, nil
	}
	if lookup == nil || task.Metadata.Parent == "" {
		return nil, nil
	}
	next, err := lookup.TaskByID(task.Metadata.Parent)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, nil
		}
		return nil, &WalkError{TaskID: task.ID, Depth: depth, Err: err}
	}
	return w.walk(next, lookup, depth+1)
}

type candidate struct {
	field Field
	t     *time.Time
}

// TaskDate reads the first usable date off a single task, in priority
// order. An unusable field never hides a usable one further down.
func TaskDate(task *models.Task) (Found, bool) {
	if task == nil {
		return Found{}, false
	}
	md := task.Metadata
	candidates := []candidate{
		{FieldStartDate, md.StartDate},
		{FieldDueDate, md.DueDate},
		{FieldScheduledDate, md.ScheduledDate},
	}
	if ed := md.EnhancedDates; ed != nil {
		candidates = append(candidates,
			candidate{FieldStartDateTime, ed.StartDateTime},
			candidate{FieldDueDateTime, ed.DueDateTime},
			candidate{FieldScheduledDateTime, ed.ScheduledDateTime},
		)
	}
	candidates = append(candidates, candidate{FieldCreatedDate, md.CreatedDate})

	for _, c := range candidates {
		if c.t == nil || c.t.IsZero() {
			continue
		}
		return Found{Date: calendar.FromTime(*c.t).DateOnly(), Field: c.field, TaskID: task.ID}, true
	}
	return Found{}, false
}
