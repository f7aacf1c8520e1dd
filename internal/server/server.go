// Package server exposes the admission core over HTTP. Routing stays thin:
// handlers translate requests into admission calls and admission results into
// status codes. Authentication happens upstream; the verified principal
// arrives in the request.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Adeniyi-Bella/admina-backend/internal/admission"
	"github.com/Adeniyi-Bella/admina-backend/internal/config"
	"github.com/Adeniyi-Bella/admina-backend/internal/queue"
)

// Server hosts the HTTP handlers.
type Server struct {
	cfg        *config.Config
	controller *admission.Controller
	logger     *zap.Logger
	server     *http.Server
	once       sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, controller *admission.Controller, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:        cfg,
		controller: controller,
		logger:     logger,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", s.handleHealth)
		mux.HandleFunc("/v1/jobs", s.handleJobs)
		mux.HandleFunc("/v1/jobs/", s.handleJobRoute)
		s.server = &http.Server{
			Addr:    s.cfg.Address,
			Handler: mux,
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.logger.Info("api listening", zap.String("address", s.cfg.Address))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type admitRequest struct {
	JobID      string `json:"jobId"`
	DocumentID string `json:"documentId"`
	Principal  string `json:"principal"`
	Operation  string `json:"operation"`
	TargetLang string `json:"targetLang,omitempty"`
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req admitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.JobID == "" || req.DocumentID == "" || req.Principal == "" || req.Operation == "" {
		http.Error(w, "jobId, documentId, principal and operation are required", http.StatusBadRequest)
		return
	}

	err := s.controller.Admit(r.Context(), queue.Entry{
		JobID:      req.JobID,
		DocumentID: req.DocumentID,
		Principal:  req.Principal,
		Operation:  req.Operation,
		TargetLang: req.TargetLang,
	})
	switch {
	case err == nil:
		respondJSON(w, http.StatusAccepted, map[string]string{"jobId": req.JobID, "status": "queued"})
	case errors.Is(err, admission.ErrWorkerPoolUnavailable):
		http.Error(w, "no workers available, retry later", http.StatusServiceUnavailable)
	case errors.Is(err, admission.ErrAlreadyProcessing):
		http.Error(w, "a job is already in flight for this user", http.StatusConflict)
	case errors.Is(err, admission.ErrQueueFull):
		http.Error(w, "processing queue is full, retry later", http.StatusTooManyRequests)
	default:
		s.logger.Error("admission fault", zap.String("jobId", req.JobID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleJobRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		http.NotFound(w, r)
		return
	}
	rec, err := s.controller.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, admission.ErrJobNotFound) {
			http.Error(w, "processing status unavailable", http.StatusNotFound)
			return
		}
		s.logger.Error("status fault", zap.String("jobId", jobID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
