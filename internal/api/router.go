package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesd/internal/metrics"
	"github.com/starford/notesd/internal/notes"
)

// RouterOptions configure NewRouter.
type RouterOptions struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events  http.Handler
	Metrics *metrics.Metrics
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *notes.Service, opts RouterOptions) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(opts.Metrics))
	r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

	// Notes CRUD. The static pinned route wins over {id}.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/pinned", h.ListPinned)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Content.
	r.Get("/notes/{id}/content", h.GetContent)
	r.Put("/notes/{id}/content", h.SaveContent)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	return r
}
