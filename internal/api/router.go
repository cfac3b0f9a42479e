package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/dayfinder/internal/noteservice"
	"github.com/starford/dayfinder/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, events *sse.Broker) chi.Router {
	h := NewHandler(svc, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/resolve", h.Resolve)
	r.Get("/files/*", h.FileInfo)
	r.Get("/dates/{date}", h.TasksOnDate)
	r.Get("/summary", h.Summary)
	r.Delete("/cache", h.ClearCache)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
