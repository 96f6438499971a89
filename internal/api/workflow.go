package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"tunereel/pkg/backend"
	"tunereel/pkg/style"
	"tunereel/pkg/workflow"
)

// WorkflowHandler exposes the workflow service over HTTP.
type WorkflowHandler struct {
	svc     *workflow.Service
	backend *backend.Client
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(svc *workflow.Service, be *backend.Client) *WorkflowHandler {
	return &WorkflowHandler{svc: svc, backend: be}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// HandleState returns the current workflow state snapshot.
func (h *WorkflowHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State())
}

// HandleFile enters the pipeline with a selected audio file.
// Upload and analysis run before the response is written, mirroring the
// synchronous feel of the desktop flow.
func (h *WorkflowHandler) HandleFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing file path"))
		return
	}

	if err := h.checkFormat(r.Context(), req.Path); err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err)
		return
	}

	if err := h.svc.SelectFile(r.Context(), req.Path); err != nil {
		if errors.Is(err, workflow.ErrBusy) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.State())
}

// checkFormat rejects files whose extension the backend does not accept.
// The formats list is cached, so the common path costs nothing; if the
// backend cannot answer we let the upload itself report the problem.
func (h *WorkflowHandler) checkFormat(ctx context.Context, path string) error {
	formats, err := h.backend.SupportedFormats(ctx)
	if err != nil {
		slog.Warn("Formats lookup failed, skipping pre-check", "error", err)
		return nil
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range formats {
		if strings.ToLower(strings.TrimPrefix(f, ".")) == ext {
			return nil
		}
	}
	return fmt.Errorf("unsupported audio format %q", ext)
}

// HandleGenerate submits the generation job.
func (h *WorkflowHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Generate(r.Context()); err != nil {
		if errors.Is(err, workflow.ErrBusy) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.State())
}

// HandleReset returns the workflow to the upload stage.
func (h *WorkflowHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.svc.Reset()
	writeJSON(w, http.StatusOK, h.svc.State())
}

// HandleStyle serves and updates the style customization.
// GET returns the active snapshot; PUT merges a partial edit.
func (h *WorkflowHandler) HandleStyle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.svc.State().Style)
	case http.MethodPut, http.MethodPost:
		var partial style.Partial
		if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, h.svc.UpdateStyle(partial))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// HandleDownload streams the generated video through to the caller.
func (h *WorkflowHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	state := h.svc.State()
	if state.VideoPath == "" {
		writeError(w, http.StatusNotFound, errors.New("no video available"))
		return
	}

	data, err := h.backend.Download(r.Context(), state.VideoPath)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="music-video.mp4"`)
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to stream video", "error", err)
	}
}
