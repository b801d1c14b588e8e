package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter assembles the chi router: middleware first, then probe
// endpoints, then the versioned API surface.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware, s.loggingMiddleware, s.recoveryMiddleware)

	// Probes live at the root so orchestrators can reach them unversioned.
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}
