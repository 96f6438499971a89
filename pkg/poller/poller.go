// Package poller drives the status loop for a submitted generation job.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tunereel/pkg/config"
	"tunereel/pkg/model"
)

// ErrTimeout is returned when a job does not finish within the attempt budget.
var ErrTimeout = errors.New("generation timed out")

// StatusFunc fetches the current progress of one job.
type StatusFunc func(ctx context.Context, jobID string) (model.GenerationProgress, error)

// EmitFunc receives every progress update, including the final one.
type EmitFunc func(model.GenerationProgress)

// Poller runs a fixed-interval status loop with a hard attempt budget.
// The budget doubles as the timeout: MaxAttempts * Interval bounds how
// long a job may run before we give up on it.
type Poller struct {
	interval    time.Duration
	maxAttempts int
}

// New creates a poller from the configured interval and budget.
func New(cfg config.PollConfig) *Poller {
	return &Poller{
		interval:    time.Duration(cfg.Interval),
		maxAttempts: cfg.MaxAttempts,
	}
}

// Poll queries the job status until the job completes, fails, the budget
// runs out, or ctx is cancelled. The first query fires immediately; the
// interval wait sits between attempts, not before them. Each update is
// passed to emit before Poll acts on it. Transient status-query errors
// consume an attempt but do not stop the loop, so a flaky backend only
// shortens the budget rather than killing the job.
func (p *Poller) Poll(ctx context.Context, jobID string, status StatusFunc, emit EmitFunc) (model.GenerationProgress, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		progress, err := status(ctx, jobID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return model.GenerationProgress{}, ctx.Err()
			}
			slog.Warn("status query failed", "job", jobID, "attempt", attempt, "error", err)
		case progress.Status == model.StatusComplete:
			// Terminal shape is fixed regardless of what the backend reported
			progress.Progress = 100
			emit(progress)
			return progress, nil
		case progress.Status == model.StatusError:
			if progress.Message == "" {
				progress.Message = "Video generation failed."
			}
			emit(progress)
			return progress, fmt.Errorf("job %s: %s", jobID, progress.Message)
		default:
			if progress.CurrentStep == "" {
				progress.CurrentStep = "Processing..."
			}
			emit(progress)
		}

		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return model.GenerationProgress{}, ctx.Err()
		case <-ticker.C:
		}
	}

	timedOut := model.GenerationProgress{
		Status:      model.StatusError,
		CurrentStep: "Generation Timeout",
		Message:     "Video generation timed out. Please try again.",
	}
	emit(timedOut)
	return timedOut, fmt.Errorf("job %s: %w", jobID, ErrTimeout)
}
