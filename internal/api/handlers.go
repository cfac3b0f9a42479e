package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dayfinder/internal/noteservice"
	"github.com/starford/dayfinder/internal/sse"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *noteservice.Service
	events *sse.Broker
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(svc *noteservice.Service, events *sse.Broker) *Handler {
	return &Handler{svc: svc, events: events}
}

// filePath extracts the vault path from the URL (everything after /api/files/).
// Supports encoded slashes from OpenAPI clients (e.g. daily%2F2024-03-15.md).
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Resolve handles POST /api/resolve.
//
//	@Summary		Resolve the date of a time-only task
//	@Tags			resolve
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ResolveRequest	true	"Task location"
//	@Success		200		{object}	Resolution
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [post]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.ResolveAt(r.Context(), req.Path, *req.Line)
	if err != nil {
		writeError(w, err, "resolve", slog.String("path", req.Path), slog.Int("line", *req.Line))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// FileInfo handles GET /api/files/*.
//
//	@Summary		Get the cached date facts of a file
//	@Tags			files
//	@Produce		json
//	@Param			path	path		string	true	"File path"
//	@Success		200		{object}	filecache.FileDateInfo
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *Handler) FileInfo(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	info, err := h.svc.FileInfo(r.Context(), path)
	if err != nil {
		writeError(w, err, "file info", slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// TasksOnDate handles GET /api/dates/{date}.
//
//	@Summary		List indexed tasks resolved to a date
//	@Tags			dates
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	DateTasksResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dates/{date} [get]
func (h *Handler) TasksOnDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if err := validation.Validate(date, validation.Required, validation.Date("2006-01-02")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("date: "+err.Error()))
		return
	}
	rows, err := h.svc.TasksOnDate(r.Context(), date)
	if err != nil {
		writeError(w, err, "tasks on date", slog.String("date", date))
		return
	}
	writeJSON(w, http.StatusOK, DateTasksResponse{Date: date, Tasks: rows})
}

// Summary handles GET /api/summary.
//
//	@Summary		Count indexed tasks per resolution source
//	@Tags			dates
//	@Produce		json
//	@Success		200	{object}	SummaryResponse
//	@Security		BearerAuth
//	@Router			/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.SourceSummary(r.Context())
	if err != nil {
		writeError(w, err, "summary")
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Sources: counts})
}

// ClearCache handles DELETE /api/cache.
//
//	@Summary		Drop every cached file entry
//	@Tags			cache
//	@Produce		json
//	@Success		200	{object}	CacheClearedResponse
//	@Security		BearerAuth
//	@Router			/cache [delete]
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	n := h.svc.ClearCache()
	if h.events != nil {
		h.events.Publish(sse.Event{Type: sse.TypeCacheCleared, Data: CacheClearedResponse{Cleared: n}})
	}
	writeJSON(w, http.StatusOK, CacheClearedResponse{Cleared: n})
}
