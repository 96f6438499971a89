package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tunereel/internal/api"
	"tunereel/pkg/backend"
	"tunereel/pkg/cache"
	"tunereel/pkg/config"
	"tunereel/pkg/db"
	"tunereel/pkg/logging"
	"tunereel/pkg/model"
	"tunereel/pkg/poller"
	"tunereel/pkg/request"
	"tunereel/pkg/style"
	"tunereel/pkg/tracker"
	"tunereel/pkg/version"
	"tunereel/pkg/workflow"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/tunereel.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/tunereel.yaml")
		return
	}

	if err := run(context.Background(), "configs/tunereel.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// .env.local overrides .env; both are optional
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("TuneReel Started", "version", version.Version, "backend", appCfg.Backend.BaseURL)

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.PruneCache(30 * 24 * time.Hour); err != nil {
		slog.Warn("Cache maintenance failed", "error", err)
	}

	tr := tracker.New()
	reqClient := request.New(cache.NewSQLiteCache(dbConn), tr, request.Options{
		Timeout:   time.Duration(appCfg.Backend.Timeout),
		Retries:   appCfg.Request.Retries,
		BaseDelay: time.Duration(appCfg.Request.Backoff.BaseDelay),
		MaxDelay:  time.Duration(appCfg.Request.Backoff.MaxDelay),
	})
	backendClient := backend.New(appCfg.Backend, reqClient, tr)

	// Surface backend availability early; the app still starts without it
	healthCtx, healthCancel := context.WithTimeout(ctx, 5*time.Second)
	if status, err := backendClient.Health(healthCtx); err != nil {
		slog.Warn("Render backend not reachable", "error", err)
	} else {
		slog.Info("Render backend healthy", "status", status)
		reconcileJobs(healthCtx, backendClient, dbConn)
	}
	healthCancel()

	styleStore := style.NewStore(appCfg.Style)
	jobPoller := poller.New(appCfg.Poll)
	svc := workflow.New(backendClient, styleStore, jobPoller, dbConn)

	hub := api.NewEventHub()
	svc.OnChange(hub.BroadcastState)
	svc.OnNotify(hub.Notify)

	return runServer(ctx, appCfg, svc, backendClient, dbConn, tr, hub)
}

// reconcileJobs marks local history rows as errored when the backend has
// forgotten the job, which happens after a backend restart mid-generation.
func reconcileJobs(ctx context.Context, be *backend.Client, dbConn *db.DB) {
	remote, err := be.ListJobs(ctx)
	if err != nil {
		slog.Warn("Job reconciliation skipped", "error", err)
		return
	}
	local, err := dbConn.ListJobs(ctx, 0)
	if err != nil {
		slog.Warn("Job reconciliation skipped", "error", err)
		return
	}
	for _, rec := range local {
		if rec.Status != model.StatusGenerating {
			continue
		}
		if _, ok := remote[rec.ID]; ok {
			continue
		}
		slog.Warn("Backend lost job, marking errored", "job_id", rec.ID)
		if err := dbConn.CompleteJob(ctx, rec.ID, model.StatusError, ""); err != nil {
			slog.Warn("Failed to mark lost job", "job_id", rec.ID, "error", err)
		}
	}
}

func runServer(ctx context.Context, cfg *config.Config, svc *workflow.Service, be *backend.Client, dbConn *db.DB, tr *tracker.Tracker, hub *api.EventHub) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewWorkflowHandler(svc, be),
		api.NewJobsHandler(dbConn, be),
		api.NewStatsHandler(tr, hub),
		hub,
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
