package api

import (
	"errors"
	"log/slog"
	"net/http"

	"tunereel/pkg/backend"
	"tunereel/pkg/db"
)

// JobsHandler serves the persisted job history.
type JobsHandler struct {
	db      *db.DB
	backend *backend.Client
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(database *db.DB, be *backend.Client) *JobsHandler {
	return &JobsHandler{db: database, backend: be}
}

// HandleList returns recent jobs, newest first.
func (h *JobsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.db.ListJobs(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// HandleGet returns one job record by ID.
func (h *JobsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.db.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, errors.New("unknown job"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleDelete removes the job from the backend and the local history.
// A backend failure is logged but does not block the local delete; the
// backend may have already evicted the job.
func (h *JobsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.backend.DeleteJob(r.Context(), id); err != nil {
		slog.Warn("backend job delete failed", "job", id, "error", err)
	}
	if err := h.db.DeleteJob(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
