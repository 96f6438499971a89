package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tunereel/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, wf *WorkflowHandler, jobs *JobsHandler, stats *StatsHandler, hub *EventHub, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Workflow Endpoints
	mux.HandleFunc("GET /api/state", wf.HandleState)
	mux.HandleFunc("POST /api/workflow/file", wf.HandleFile)
	mux.HandleFunc("POST /api/workflow/generate", wf.HandleGenerate)
	mux.HandleFunc("POST /api/workflow/reset", wf.HandleReset)
	mux.HandleFunc("/api/style", wf.HandleStyle)
	mux.HandleFunc("GET /api/download", wf.HandleDownload)

	// 4. Job History Endpoints
	if jobs != nil {
		mux.HandleFunc("GET /api/jobs", jobs.HandleList)
		mux.HandleFunc("GET /api/jobs/{id}", jobs.HandleGet)
		mux.HandleFunc("DELETE /api/jobs/{id}", jobs.HandleDelete)
	}

	// 5. Stats Endpoint
	mux.Handle("GET /api/stats", stats)

	// 6. Event Stream
	mux.HandleFunc("GET /api/events", hub.HandleWS)

	// 7. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	// No WriteTimeout: /api/workflow/file blocks through upload and
	// analysis, and /api/events is a long-lived websocket.
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
