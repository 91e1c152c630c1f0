package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"studymate-backend/internal/models"
	"studymate-backend/internal/repository"
)

// JobQueue creates and looks up background jobs.
type JobQueue interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

type JobHandler struct {
	jobs JobQueue
	log  *zap.Logger
}

// NewJobHandler builds the job endpoints. jobs may be nil when Redis is not configured.
func NewJobHandler(jobs JobQueue, log *zap.Logger) *JobHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &JobHandler{jobs: jobs, log: log}
}

func isJobType(t string) bool {
	for _, known := range models.JobTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("JOBS_DISABLED", "Background jobs require Redis", r))
		return
	}

	var req models.CreateJobRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !isJobType(req.Type) {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"type": "unknown job type"}, r))
		return
	}
	if len(req.Config) == 0 || string(req.Config) == "null" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"config": "is required"}, r))
		return
	}

	job := &models.Job{Type: req.Type, ConfigJSON: req.Config}
	if err := h.jobs.Create(r.Context(), job); err != nil {
		h.log.Error("failed to create job", zap.String("type", req.Type), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("JOBS_DISABLED", "Background jobs require Redis", r))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}
	if err != nil {
		h.log.Error("failed to load job", zap.Stringer("job_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load job", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}
