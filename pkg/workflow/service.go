package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"tunereel/pkg/db"
	"tunereel/pkg/model"
	"tunereel/pkg/poller"
	"tunereel/pkg/style"
)

// ErrBusy is returned when an operation is rejected because another one is
// already in flight.
var ErrBusy = errors.New("operation already in progress")

// Backend is the collaborator contract the workflow drives. The HTTP client
// in pkg/backend satisfies it; tests substitute doubles.
type Backend interface {
	UploadFile(ctx context.Context, path string) (string, error)
	Analyze(ctx context.Context, filePath string) (*model.AudioAnalysis, error)
	Generate(ctx context.Context, filePath string, s model.StyleCustomization) (*model.Job, error)
	JobStatus(ctx context.Context, jobID string) (model.GenerationProgress, error)
}

// JobPoller drives the status loop for a submitted job.
type JobPoller interface {
	Poll(ctx context.Context, jobID string, status poller.StatusFunc, emit poller.EmitFunc) (model.GenerationProgress, error)
}

// Service executes the workflow. The reducer in machine.go decides what
// happens; the Service performs the effects, serializes event application,
// and owns the poll goroutine's lifetime.
type Service struct {
	backend Backend
	styles  *style.Store
	poller  JobPoller
	history *db.DB // nil disables job history

	mu    sync.Mutex
	state State
	runID string

	// inFlight rejects a second SelectFile/Generate call while the first
	// one's synchronous phase is still running.
	inFlight atomic.Bool

	pollMu     sync.Mutex
	pollCancel context.CancelFunc

	onChange func(State)
	onNotify func(string)
}

// New wires the service to its collaborators and subscribes to style
// updates so prompts stay in sync with the active style.
func New(backend Backend, styles *style.Store, p JobPoller, history *db.DB) *Service {
	s := &Service{
		backend: backend,
		styles:  styles,
		poller:  p,
		history: history,
		state:   NewState(styles.Current()),
	}
	styles.Subscribe(func(snap model.StyleCustomization) {
		s.dispatch(context.Background(), StyleChanged{Style: snap})
	})
	return s
}

// OnChange registers a callback fired with a state snapshot after every
// transition. Must be set before the service is used.
func (s *Service) OnChange(fn func(State)) { s.onChange = fn }

// OnNotify registers a callback for interrupt-style user notifications.
func (s *Service) OnNotify(fn func(string)) { s.onNotify = fn }

// State returns a snapshot of the current workflow state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// dispatch applies one event and executes its effects. Effects may produce
// further events; those recurse through dispatch in the same goroutine,
// except polling, which gets its own goroutine and cancel handle.
func (s *Service) dispatch(ctx context.Context, ev Event) State {
	s.mu.Lock()
	next, effects := Apply(s.state, ev)
	s.state = next
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(next)
	}
	for _, eff := range effects {
		s.execute(ctx, eff)
	}
	return next
}

func (s *Service) execute(ctx context.Context, eff Effect) {
	switch e := eff.(type) {

	case EffectUpload:
		slog.Info("uploading audio", "run", s.currentRunID(), "file", e.Path)
		storagePath, err := s.backend.UploadFile(ctx, e.Path)
		if err != nil {
			slog.Warn("upload failed", "run", s.currentRunID(), "error", err)
			s.dispatch(ctx, UploadFailed{Err: err})
			return
		}
		s.dispatch(ctx, UploadSucceeded{StoragePath: storagePath})

	case EffectAnalyze:
		slog.Info("analyzing audio", "run", s.currentRunID(), "path", e.StoragePath)
		analysis, err := s.backend.Analyze(ctx, e.StoragePath)
		if err != nil {
			slog.Warn("analysis failed", "run", s.currentRunID(), "error", err)
			s.dispatch(ctx, AnalysisFailed{Err: err})
			return
		}
		s.dispatch(ctx, AnalysisSucceeded{Analysis: analysis})

	case EffectSubmitGenerate:
		slog.Info("submitting generation job", "run", s.currentRunID())
		job, err := s.backend.Generate(ctx, e.StoragePath, e.Style)
		if err != nil {
			slog.Warn("generation submit failed", "run", s.currentRunID(), "error", err)
			s.dispatch(ctx, GenerationFailed{Err: err})
			return
		}
		if s.history != nil {
			if err := s.history.RecordJob(ctx, job.ID, e.StoragePath); err != nil {
				slog.Warn("job history write failed", "job", job.ID, "error", err)
			}
		}
		s.dispatch(ctx, GenerationSubmitted{Job: job})

	case EffectStartPolling:
		s.startPolling(e.JobID)

	case EffectStopPolling:
		s.stopPolling()

	case EffectNotify:
		if s.onNotify != nil {
			s.onNotify(e.Message)
		}
	}
}

// startPolling runs the poll loop in its own goroutine. A reset cancels the
// loop's context; a late status response after cancellation is discarded
// because the loop has already returned.
func (s *Service) startPolling(jobID string) {
	ctx, cancel := context.WithCancel(context.Background())
	s.pollMu.Lock()
	if s.pollCancel != nil {
		s.pollCancel()
	}
	s.pollCancel = cancel
	s.pollMu.Unlock()

	go func() {
		defer cancel()

		_, err := s.poller.Poll(ctx, jobID, s.backend.JobStatus, func(p model.GenerationProgress) {
			if ctx.Err() != nil {
				return
			}
			s.dispatch(ctx, PollUpdate{Progress: p})
			if s.history != nil {
				if herr := s.history.UpdateJobProgress(ctx, jobID, p); herr != nil {
					slog.Warn("job history update failed", "job", jobID, "error", herr)
				}
			}
		})

		if ctx.Err() != nil {
			slog.Info("polling cancelled", "job", jobID)
			return
		}
		if err != nil {
			slog.Warn("generation did not complete", "job", jobID, "error", err)
			s.recordJobDone(jobID, model.StatusError, "")
			return
		}

		videoPath := ""
		s.mu.Lock()
		if s.state.Job != nil && s.state.Job.ID == jobID {
			videoPath = s.state.Job.VideoPath
		}
		s.mu.Unlock()

		s.dispatch(context.Background(), GenerationCompleted{VideoPath: videoPath})
		s.recordJobDone(jobID, model.StatusComplete, videoPath)
	}()
}

func (s *Service) recordJobDone(jobID string, status model.Status, videoPath string) {
	if s.history == nil {
		return
	}
	if err := s.history.CompleteJob(context.Background(), jobID, status, videoPath); err != nil {
		slog.Warn("job history close failed", "job", jobID, "error", err)
	}
}

func (s *Service) stopPolling() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.pollCancel != nil {
		s.pollCancel()
		s.pollCancel = nil
	}
}

func (s *Service) currentRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// SelectFile enters the pipeline with a local audio file. It uploads and
// analyzes synchronously, returning once the workflow has reached the
// customize stage or recorded the failure.
func (s *Service) SelectFile(ctx context.Context, path string) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.inFlight.Store(false)

	s.mu.Lock()
	if s.state.Stage != model.StageUpload || s.state.Processing {
		s.mu.Unlock()
		return ErrBusy
	}
	s.runID = uuid.NewString()
	s.mu.Unlock()

	s.dispatch(ctx, FileSelected{Path: path})

	state := s.State()
	if state.Progress.Status == model.StatusError {
		return errors.New(state.Progress.Message)
	}
	if state.Stage == model.StageUpload {
		return errors.New("upload failed")
	}
	return nil
}

// Generate submits the generation job and starts polling. It returns as soon
// as the job is accepted; progress arrives through OnChange.
func (s *Service) Generate(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.inFlight.Store(false)

	before := s.State()
	if before.Analysis == nil || before.UploadedPath == "" {
		return errors.New("no analyzed audio to generate from")
	}
	if before.Processing {
		return ErrBusy
	}

	s.dispatch(ctx, GenerateRequested{})

	state := s.State()
	if state.Progress.Status == model.StatusError {
		return errors.New(state.Progress.Message)
	}
	return nil
}

// UpdateStyle merges a partial style edit. Prompt re-synthesis happens via
// the style store subscription.
func (s *Service) UpdateStyle(p style.Partial) model.StyleCustomization {
	return s.styles.Update(p)
}

// Reset returns the workflow to the upload stage and stops any active poll
// loop. The style customization survives.
func (s *Service) Reset() {
	s.dispatch(context.Background(), Reset{})
}
