package api

import (
	"net/http"

	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/source"
)

type sourceRequest struct {
	URL string `json:"url"`
}

type directionRequest struct {
	Direction string `json:"direction"`
}

type advanceRequest struct {
	Step int `json:"step"`
}

type gradeRequest struct {
	Outcome string `json:"outcome"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, snap *models.Snapshot, err error) {
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

// handleSelectSource remembers the source in a cookie and queues a first load
// when nothing is in memory for it yet.
func (s *Server) handleSelectSource(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req sourceRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.URL == "" {
		handleError(w, r, errors.NewValidationError("url", "cannot be empty"))
		return
	}
	if err := source.ValidateURL(req.URL); err != nil {
		handleError(w, r, errors.NewValidationError("url", err.Error()))
		return
	}

	setSourceCookie(w, req.URL)
	snap, err := s.StudyService.Snapshot(r.Context(), req.URL)
	if err != nil {
		handleError(w, r, err)
		return
	}

	status := http.StatusOK
	if !snap.Loaded && s.JobQueue != nil {
		if err := s.JobQueue.EnqueueRefresh(req.URL, false); err != nil {
			log.Warn("failed to queue initial load: %v", err)
		} else {
			status = http.StatusAccepted
		}
	}
	log.Info("source selected: %s", req.URL)
	writeJSON(w, r, status, snap)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	bust := r.URL.Query().Get("bust") == "1"
	snap, err := s.StudyService.Refresh(r.Context(), sourceFromContext(r.Context()), bust)
	s.respond(w, r, snap, err)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.StudyService.Snapshot(r.Context(), sourceFromContext(r.Context()))
	s.respond(w, r, snap, err)
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := s.StudyService.Facets(r.Context(), sourceFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, facets)
}

// handleSetFilters replaces every filter; omitted fields take their defaults.
func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	f := models.DefaultFilters()
	if err := decodeJSON(r, &f); err != nil {
		handleError(w, r, err)
		return
	}
	snap, err := s.StudyService.SetFilters(r.Context(), sourceFromContext(r.Context()), f)
	s.respond(w, r, snap, err)
}

func (s *Server) handleSetDirection(w http.ResponseWriter, r *http.Request) {
	var req directionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	dir, err := models.ParseDirection(req.Direction)
	if err != nil {
		handleError(w, r, errors.NewValidationError("direction", err.Error()))
		return
	}
	snap, err := s.StudyService.SetDirection(r.Context(), sourceFromContext(r.Context()), dir)
	s.respond(w, r, snap, err)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	snap, err := s.StudyService.Flip(r.Context(), sourceFromContext(r.Context()))
	s.respond(w, r, snap, err)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	snap, err := s.StudyService.ToggleReveal(r.Context(), sourceFromContext(r.Context()))
	s.respond(w, r, snap, err)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	snap, err := s.StudyService.Advance(r.Context(), sourceFromContext(r.Context()), 1)
	s.respond(w, r, snap, err)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	snap, err := s.StudyService.Advance(r.Context(), sourceFromContext(r.Context()), -1)
	s.respond(w, r, snap, err)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	req := advanceRequest{Step: 1}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	snap, err := s.StudyService.Advance(r.Context(), sourceFromContext(r.Context()), req.Step)
	s.respond(w, r, snap, err)
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	outcome, err := models.ParseOutcome(req.Outcome)
	if err != nil {
		handleError(w, r, errors.NewValidationError("outcome", err.Error()))
		return
	}
	snap, err := s.StudyService.Grade(r.Context(), sourceFromContext(r.Context()), outcome)
	s.respond(w, r, snap, err)
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	snap, err := s.StudyService.ResetProgress(r.Context(), sourceFromContext(r.Context()))
	s.respond(w, r, snap, err)
}
