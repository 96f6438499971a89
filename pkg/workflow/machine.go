// Package workflow sequences the upload → analyze → customize → generate →
// complete pipeline. The transition logic lives in a pure reducer: events go
// in, the next state plus a list of effects comes out, and all I/O happens in
// the Service that executes the effects. That keeps every transition testable
// without a backend.
package workflow

import (
	"tunereel/pkg/model"
	"tunereel/pkg/prompt"
)

// State is the full workflow state. It is a value; the reducer returns a new
// one and never mutates its input beyond the copied struct.
type State struct {
	Stage        model.Stage              `json:"stage"`
	SelectedFile string                   `json:"selected_file,omitempty"`
	UploadedPath string                   `json:"uploaded_path,omitempty"`
	Analysis     *model.AudioAnalysis     `json:"analysis,omitempty"`
	Prompts      []model.VideoPrompt      `json:"prompts,omitempty"`
	Style        model.StyleCustomization `json:"style"`
	Job          *model.Job               `json:"job,omitempty"`
	VideoPath    string                   `json:"video_path,omitempty"`
	Progress     model.GenerationProgress `json:"progress"`
	Processing   bool                     `json:"processing"`
}

// NewState returns the initial state with the given style snapshot.
func NewState(style model.StyleCustomization) State {
	return State{
		Stage:    model.StageUpload,
		Style:    style.Clone(),
		Progress: model.IdleProgress(),
	}
}

// Event is a workflow input. Events are facts (something happened), never
// commands; the reducer decides what follows from them.
type Event interface{ isEvent() }

type (
	// FileSelected enters the pipeline with a local audio file path.
	FileSelected struct{ Path string }
	// UploadSucceeded carries the server-side storage path.
	UploadSucceeded struct{ StoragePath string }
	// UploadFailed reports an upload error.
	UploadFailed struct{ Err error }
	// AnalysisSucceeded carries the completed analysis.
	AnalysisSucceeded struct{ Analysis *model.AudioAnalysis }
	// AnalysisFailed reports an analysis error.
	AnalysisFailed struct{ Err error }
	// StyleChanged carries a fresh style snapshot from the style store.
	StyleChanged struct{ Style model.StyleCustomization }
	// GenerateRequested is the explicit user action to start generation.
	GenerateRequested struct{}
	// GenerationSubmitted carries the accepted job handle.
	GenerationSubmitted struct{ Job *model.Job }
	// GenerationFailed reports a submission or job error.
	GenerationFailed struct{ Err error }
	// PollUpdate carries one progress report from the poller.
	PollUpdate struct{ Progress model.GenerationProgress }
	// GenerationCompleted reports terminal success with the video path.
	GenerationCompleted struct{ VideoPath string }
	// Reset returns the workflow to the upload stage.
	Reset struct{}
)

func (FileSelected) isEvent()        {}
func (UploadSucceeded) isEvent()     {}
func (UploadFailed) isEvent()        {}
func (AnalysisSucceeded) isEvent()   {}
func (AnalysisFailed) isEvent()      {}
func (StyleChanged) isEvent()        {}
func (GenerateRequested) isEvent()   {}
func (GenerationSubmitted) isEvent() {}
func (GenerationFailed) isEvent()    {}
func (PollUpdate) isEvent()          {}
func (GenerationCompleted) isEvent() {}
func (Reset) isEvent()               {}

// Effect is an I/O action the Service must perform after a transition.
type Effect interface{ isEffect() }

type (
	// EffectUpload uploads the selected file.
	EffectUpload struct{ Path string }
	// EffectAnalyze requests analysis of the uploaded file.
	EffectAnalyze struct{ StoragePath string }
	// EffectSubmitGenerate submits a generation job.
	EffectSubmitGenerate struct {
		StoragePath string
		Style       model.StyleCustomization
	}
	// EffectStartPolling begins the status loop for the job.
	EffectStartPolling struct{ JobID string }
	// EffectStopPolling cancels any active status loop.
	EffectStopPolling struct{}
	// EffectNotify surfaces an interrupt-style message to the user.
	EffectNotify struct{ Message string }
)

func (EffectUpload) isEffect()         {}
func (EffectAnalyze) isEffect()        {}
func (EffectSubmitGenerate) isEffect() {}
func (EffectStartPolling) isEffect()   {}
func (EffectStopPolling) isEffect()    {}
func (EffectNotify) isEffect()         {}

// errMessage returns err's message or a fallback.
func errMessage(err error, fallback string) string {
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

// Apply is the transition function. Events that are not valid in the current
// state (a duplicate upload while processing, a generate request with no
// analysis) are ignored and produce no effects. An error status never moves
// the stage backwards; recovery is always an explicit retry or reset.
func Apply(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {

	case FileSelected:
		if s.Stage != model.StageUpload || s.Processing {
			return s, nil
		}
		s.SelectedFile = e.Path
		s.Processing = true
		return s, []Effect{EffectUpload{Path: e.Path}}

	case UploadSucceeded:
		s.UploadedPath = e.StoragePath
		s.Stage = model.StageAnalyze
		s.Progress = model.GenerationProgress{
			Status:      model.StatusAnalyzing,
			CurrentStep: "Analyzing Audio",
			Progress:    25,
			Message:     "Extracting audio features and characteristics...",
		}
		return s, []Effect{EffectAnalyze{StoragePath: e.StoragePath}}

	case UploadFailed:
		// stage stays upload; the failure is a notification, not a progress state
		s.Processing = false
		return s, []Effect{EffectNotify{Message: "Failed to upload audio file. Please try again."}}

	case AnalysisSucceeded:
		s.Analysis = e.Analysis
		s.Prompts = prompt.Synthesize(e.Analysis.Segments, s.Style)
		s.Stage = model.StageCustomize
		s.Processing = false
		s.Progress = model.GenerationProgress{
			Status:      model.StatusComplete,
			CurrentStep: "Analysis Complete",
			Progress:    100,
			Message:     "Audio analysis finished successfully",
		}
		return s, nil

	case AnalysisFailed:
		s.Processing = false
		s.Progress = model.GenerationProgress{
			Status:      model.StatusError,
			CurrentStep: "Analysis Failed",
			Message:     "Failed to analyze audio. Please try again.",
		}
		return s, nil

	case StyleChanged:
		s.Style = e.Style.Clone()
		if s.Analysis != nil {
			s.Prompts = prompt.Synthesize(s.Analysis.Segments, s.Style)
		}
		return s, nil

	case GenerateRequested:
		if s.Analysis == nil || s.UploadedPath == "" || s.Processing {
			return s, nil
		}
		if s.Stage != model.StageCustomize && s.Stage != model.StageGenerate {
			return s, nil
		}
		s.Stage = model.StageGenerate
		s.Processing = true
		s.Progress = model.GenerationProgress{
			Status:      model.StatusGenerating,
			CurrentStep: "Generating Video",
			Message:     "Starting video generation...",
		}
		return s, []Effect{EffectSubmitGenerate{StoragePath: s.UploadedPath, Style: s.Style}}

	case GenerationSubmitted:
		s.Job = e.Job
		return s, []Effect{EffectStartPolling{JobID: e.Job.ID}}

	case GenerationFailed:
		s.Processing = false
		s.Progress = model.GenerationProgress{
			Status:      model.StatusError,
			CurrentStep: "Generation Failed",
			Message:     errMessage(e.Err, "Failed to generate video. Please try again."),
		}
		return s, nil

	case PollUpdate:
		if s.Stage != model.StageGenerate {
			// a late result after reset is discarded
			return s, nil
		}
		// overwritten wholesale, never merged
		s.Progress = e.Progress
		if e.Progress.Status == model.StatusError {
			s.Processing = false
		}
		return s, nil

	case GenerationCompleted:
		if s.Stage != model.StageGenerate {
			return s, nil
		}
		s.VideoPath = e.VideoPath
		s.Stage = model.StageComplete
		s.Processing = false
		s.Progress = model.GenerationProgress{
			Status:      model.StatusComplete,
			CurrentStep: "Generation Complete",
			Progress:    100,
			Message:     "Your music video is ready!",
		}
		return s, nil

	case Reset:
		// style survives a reset; everything else is cleared
		return NewState(s.Style), []Effect{EffectStopPolling{}}
	}

	return s, nil
}
