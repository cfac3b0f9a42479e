package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dayfinder/internal/index"
	"github.com/starford/dayfinder/internal/noteservice"
)

// ResolveRequest is the request body for resolving one task.
type ResolveRequest struct {
	Path string `json:"path" example:"daily/2024-03-15.md" validate:"required"`
	// Line is the zero-based line of the task in the file.
	Line *int `json:"line" example:"12" validate:"required"`
}

// Validate checks the request fields.
func (r ResolveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required, validation.By(isMarkdown)),
		validation.Field(&r.Line, validation.NotNil, validation.Min(0)),
	)
}

func isMarkdown(v any) error {
	s, _ := v.(string)
	if !strings.HasSuffix(s, ".md") {
		return validation.NewError("validation_not_markdown", "must be a .md file")
	}
	return nil
}

// Resolution is the resolve response (aliased from the domain layer).
type Resolution = noteservice.Resolution

// DateTasksResponse lists the indexed tasks on one date.
type DateTasksResponse struct {
	Date  string      `json:"date" example:"2024-03-15" validate:"required"`
	Tasks []index.Row `json:"tasks" validate:"required"`
}

// SummaryResponse counts indexed tasks per resolution source.
type SummaryResponse struct {
	Sources map[string]int `json:"sources" validate:"required"`
}

// CacheClearedResponse reports how many entries a cache clear dropped.
type CacheClearedResponse struct {
	Cleared int `json:"cleared" example:"42"`
}
