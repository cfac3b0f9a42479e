// Package models defines the domain types shared by the resolver and its adapters.
package models

import (
	"time"

	"github.com/starford/dayfinder/internal/calendar"
)

// Task is a parsed task consumed read-only by the resolver.
type Task struct {
	ID      string `json:"id"`
	Content string `json:"content,omitempty"`
	// FilePath and Line locate the task in the vault (Line is zero-based).
	FilePath string `json:"file_path,omitempty"`
	Line     int    `json:"line"`

	Metadata TaskMetadata `json:"metadata"`
}

// TaskMetadata carries the date-bearing fields of a task.
type TaskMetadata struct {
	// Parent is the id of the enclosing task, empty for top-level tasks.
	Parent string `json:"parent,omitempty"`

	StartDate     *time.Time     `json:"start_date,omitempty"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	ScheduledDate *time.Time     `json:"scheduled_date,omitempty"`
	CreatedDate   *time.Time     `json:"created_date,omitempty"`
	EnhancedDates *EnhancedDates `json:"enhanced_dates,omitempty"`
}

// EnhancedDates holds full date-times when the task text carried a time.
type EnhancedDates struct {
	StartDateTime     *time.Time `json:"start_date_time,omitempty"`
	DueDateTime       *time.Time `json:"due_date_time,omitempty"`
	ScheduledDateTime *time.Time `json:"scheduled_date_time,omitempty"`
}

// TimeComponent is a clock time found in a task line.
type TimeComponent struct {
	Hour         int            `json:"hour"`
	Minute       int            `json:"minute"`
	OriginalText string         `json:"original_text"`
	IsRange      bool           `json:"is_range"`
	RangePartner *TimeComponent `json:"range_partner,omitempty"`
}

// ResolutionContext is built fresh for every resolution call.
type ResolutionContext struct {
	CurrentLine string
	FilePath    string
	// LineNumber is a zero-based index into AllLines; nil when unknown.
	LineNumber *int
	AllLines   []string
	ParentTask *Task
	AllTasks   []*Task
}

// Result is the resolved date and how it was obtained.
type Result struct {
	ResolvedDate calendar.Date `json:"resolved_date"`
	Source       Source        `json:"source"`
	Confidence   Confidence    `json:"confidence"`
	UsedFallback bool          `json:"used_fallback"`
	Explanation  string        `json:"explanation"`
}
