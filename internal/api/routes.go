package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.sourceMiddleware)

		r.Post("/source", s.handleSelectSource)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/session", s.handleSession)
		r.Get("/facets", s.handleFacets)
		r.Put("/filters", s.handleSetFilters)
		r.Post("/direction", s.handleSetDirection)
		r.Post("/flip", s.handleFlip)
		r.Post("/reveal", s.handleReveal)
		r.Post("/next", s.handleNext)
		r.Post("/prev", s.handlePrev)
		r.Post("/advance", s.handleAdvance)
		r.Post("/grade", s.handleGrade)
		r.Delete("/progress", s.handleResetProgress)
	})
	return r
}
