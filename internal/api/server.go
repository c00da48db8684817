// internal/api/server.go

// Package api exposes the intake HTTP surface: submit a parsed resume,
// poll the record, read the event trail. The observing dashboard is an
// external reader of these endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "refcheck/internal/common/errors"
	"refcheck/internal/common/logger"
	"refcheck/internal/models"
	"refcheck/internal/resume"
	"refcheck/internal/store"
)

// Runner starts a verification run for an already-inserted record.
type Runner interface {
	Run(ctx context.Context, record *models.VerificationRecord) error
}

// Server wires the intake handlers over the store and the pipeline runner.
type Server struct {
	store     store.Store
	validator *resume.Validator
	runner    Runner
	logger    logger.Logger
}

func NewServer(st store.Store, validator *resume.Validator, runner Runner, log logger.Logger) *Server {
	return &Server{
		store:     st,
		validator: validator,
		runner:    runner,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Handler returns the route table. Metrics are served here too so a single
// listener covers the whole surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /verifications", s.handleSubmit)
	mux.HandleFunc("GET /verifications/{id}", s.handleGetRecord)
	mux.HandleFunc("GET /verifications/{id}/events", s.handleListEvents)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ==========================
// 1. Request / Response Types
// ==========================

// SubmitRequest is the intake payload. The resume arrives already parsed;
// document extraction happens upstream.
type SubmitRequest struct {
	CandidateName string               `json:"candidateName"`
	Email         string               `json:"email,omitempty"`
	ProfileHandle string               `json:"profileHandle,omitempty"`
	Resume        *models.ParsedResume `json:"resume"`
}

type SubmitResponse struct {
	ID     string        `json:"id"`
	Status models.Status `json:"status"`
}

type errorResponse struct {
	Error *apperrors.StandardError `json:"error"`
}

// ==========================
// 2. Handlers
// ==========================

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.NewResumeValidationFailedError("request body is not valid JSON: "+err.Error()))
		return
	}
	if req.CandidateName == "" {
		writeError(w, http.StatusBadRequest, apperrors.NewResumeValidationFailedError("candidateName is required"))
		return
	}

	// Input errors are rejected here; the run never starts for them.
	if err := s.validator.Validate(req.Resume); err != nil {
		if stdErr, ok := err.(*apperrors.StandardError); ok {
			writeError(w, http.StatusBadRequest, stdErr)
		} else {
			writeError(w, http.StatusBadRequest, apperrors.NewResumeValidationFailedError(err.Error()))
		}
		return
	}

	record := &models.VerificationRecord{
		ID:            uuid.NewString(),
		CandidateName: req.CandidateName,
		Email:         req.Email,
		ProfileHandle: req.ProfileHandle,
		Status:        models.StatusPending,
		Resume:        req.Resume,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.store.InsertRecord(r.Context(), record); err != nil {
		s.logger.WithError(err).Error("record insert failed", map[string]interface{}{"recordId": record.ID})
		writeError(w, http.StatusInternalServerError, apperrors.NewRecordPersistFailedError(err))
		return
	}

	s.logger.Info("verification accepted", map[string]interface{}{
		"recordId":  record.ID,
		"candidate": record.CandidateName,
	})

	// The run outlives the request; it carries its own per-stage timeouts.
	go func() {
		if err := s.runner.Run(context.Background(), record); err != nil {
			s.logger.WithError(err).Error("verification run failed", map[string]interface{}{"recordId": record.ID})
		}
	}()

	writeJSON(w, http.StatusAccepted, SubmitResponse{ID: record.ID, Status: record.Status})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		if err == store.ErrNotFound {
			writeError(w, http.StatusNotFound, apperrors.NewRecordNotFoundError(id))
			return
		}
		s.logger.WithError(err).Error("record lookup failed", map[string]interface{}{"recordId": id})
		writeError(w, http.StatusInternalServerError, apperrors.NewRecordPersistFailedError(err))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetRecord(r.Context(), id); err != nil {
		if err == store.ErrNotFound {
			writeError(w, http.StatusNotFound, apperrors.NewRecordNotFoundError(id))
			return
		}
		s.logger.WithError(err).Error("record lookup failed", map[string]interface{}{"recordId": id})
		writeError(w, http.StatusInternalServerError, apperrors.NewRecordPersistFailedError(err))
		return
	}

	events, err := s.store.ListEvents(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("event list failed", map[string]interface{}{"recordId": id})
		writeError(w, http.StatusInternalServerError, apperrors.NewEventAppendFailedError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recordId": id,
		"events":   events,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// ==========================
// 3. Response Helpers
// ==========================

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, stdErr *apperrors.StandardError) {
	writeJSON(w, status, errorResponse{Error: stdErr})
}
