package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunereel/pkg/model"
)

var testStyle = model.StyleCustomization{
	Theme:            "cinematic",
	ColorPalette:     []string{"#FF6B6B", "#4ECDC4", "#FFE66D", "#A8E6CF"},
	VisualStyle:      "realistic",
	EffectsIntensity: 0.7,
}

func testAnalysis() *model.AudioAnalysis {
	return &model.AudioAnalysis{
		Tempo:  120,
		Genre:  "electronic",
		Energy: 0.7,
		Segments: []model.AudioSegment{
			{Start: 0, End: 15, Intensity: 0.5, Description: "ambient intro"},
			{Start: 15, End: 45, Intensity: 0.9, Description: "driving chorus"},
		},
	}
}

// advance runs the happy path up to the requested stage.
func advance(t *testing.T, target model.Stage) State {
	t.Helper()
	s := NewState(testStyle)
	if target == model.StageUpload {
		return s
	}

	s, _ = Apply(s, FileSelected{Path: "/home/me/track.mp3"})
	s, _ = Apply(s, UploadSucceeded{StoragePath: "/uploads/track.mp3"})
	if target == model.StageAnalyze {
		return s
	}

	s, _ = Apply(s, AnalysisSucceeded{Analysis: testAnalysis()})
	if target == model.StageCustomize {
		return s
	}

	s, _ = Apply(s, GenerateRequested{})
	s, _ = Apply(s, GenerationSubmitted{Job: &model.Job{ID: "job-1", VideoPath: "/output/v.mp4"}})
	if target == model.StageGenerate {
		return s
	}

	s, _ = Apply(s, GenerationCompleted{VideoPath: "/output/v.mp4"})
	return s
}

func TestHappyPath(t *testing.T) {
	s := NewState(testStyle)
	assert.Equal(t, model.StageUpload, s.Stage)
	assert.Equal(t, model.StatusIdle, s.Progress.Status)

	s, effects := Apply(s, FileSelected{Path: "/home/me/track.mp3"})
	assert.True(t, s.Processing)
	require.Len(t, effects, 1)
	assert.Equal(t, EffectUpload{Path: "/home/me/track.mp3"}, effects[0])

	s, effects = Apply(s, UploadSucceeded{StoragePath: "/uploads/track.mp3"})
	assert.Equal(t, model.StageAnalyze, s.Stage)
	assert.Equal(t, model.StatusAnalyzing, s.Progress.Status)
	require.Len(t, effects, 1)
	assert.Equal(t, EffectAnalyze{StoragePath: "/uploads/track.mp3"}, effects[0])

	s, effects = Apply(s, AnalysisSucceeded{Analysis: testAnalysis()})
	assert.Empty(t, effects)
	assert.Equal(t, model.StageCustomize, s.Stage)
	assert.False(t, s.Processing)
	require.Len(t, s.Prompts, 2)
	assert.Equal(t, "cinematic realistic scene, ambient intro", s.Prompts[0].Prompt)

	s, effects = Apply(s, GenerateRequested{})
	assert.Equal(t, model.StageGenerate, s.Stage)
	assert.True(t, s.Processing)
	require.Len(t, effects, 1)
	assert.Equal(t, EffectSubmitGenerate{StoragePath: "/uploads/track.mp3", Style: s.Style}, effects[0])

	s, effects = Apply(s, GenerationSubmitted{Job: &model.Job{ID: "job-1"}})
	require.Len(t, effects, 1)
	assert.Equal(t, EffectStartPolling{JobID: "job-1"}, effects[0])

	s, _ = Apply(s, GenerationCompleted{VideoPath: "/output/v.mp4"})
	assert.Equal(t, model.StageComplete, s.Stage)
	assert.Equal(t, "/output/v.mp4", s.VideoPath)
	assert.Equal(t, 100, s.Progress.Progress)
	assert.False(t, s.Processing)
}

func TestUploadFailure(t *testing.T) {
	s := NewState(testStyle)
	s, _ = Apply(s, FileSelected{Path: "/home/me/track.mp3"})

	s, effects := Apply(s, UploadFailed{Err: errors.New("connection refused")})
	assert.Equal(t, model.StageUpload, s.Stage)
	assert.False(t, s.Processing)
	require.Len(t, effects, 1)
	notify, ok := effects[0].(EffectNotify)
	require.True(t, ok)
	assert.Contains(t, notify.Message, "Failed to upload")
}

func TestAnalysisFailure(t *testing.T) {
	s := advance(t, model.StageAnalyze)

	s, effects := Apply(s, AnalysisFailed{Err: errors.New("analyzer crashed")})
	assert.Empty(t, effects)
	// stage does not regress; recovery is via reset only
	assert.Equal(t, model.StageAnalyze, s.Stage)
	assert.Equal(t, model.StatusError, s.Progress.Status)
	assert.Equal(t, "Failed to analyze audio. Please try again.", s.Progress.Message)
	assert.False(t, s.Processing)
}

func TestGenerationFailureKeepsStage(t *testing.T) {
	s := advance(t, model.StageGenerate)

	s, _ = Apply(s, GenerationFailed{Err: errors.New("gpu pool exhausted")})
	assert.Equal(t, model.StageGenerate, s.Stage)
	assert.Equal(t, model.StatusError, s.Progress.Status)
	assert.Equal(t, "gpu pool exhausted", s.Progress.Message)
	assert.False(t, s.Processing)
}

func TestPollUpdateOverwritesWholesale(t *testing.T) {
	s := advance(t, model.StageGenerate)

	s, _ = Apply(s, PollUpdate{Progress: model.GenerationProgress{
		Status: model.StatusGenerating, CurrentStep: "Rendering", Progress: 40, Message: "frame 100",
	}})
	s, _ = Apply(s, PollUpdate{Progress: model.GenerationProgress{
		Status: model.StatusGenerating, Progress: 55,
	}})

	// no field-level merge; the second update wipes step and message
	assert.Equal(t, "", s.Progress.CurrentStep)
	assert.Equal(t, "", s.Progress.Message)
	assert.Equal(t, 55, s.Progress.Progress)
}

func TestPollErrorClearsProcessing(t *testing.T) {
	s := advance(t, model.StageGenerate)
	require.True(t, s.Processing)

	s, _ = Apply(s, PollUpdate{Progress: model.GenerationProgress{
		Status: model.StatusError, Message: "Video generation timed out. Please try again.",
	}})
	assert.Equal(t, model.StageGenerate, s.Stage)
	assert.False(t, s.Processing)
}

func TestResetFromEveryStage(t *testing.T) {
	for _, stage := range []model.Stage{
		model.StageUpload, model.StageAnalyze, model.StageCustomize,
		model.StageGenerate, model.StageComplete,
	} {
		t.Run(string(stage), func(t *testing.T) {
			s := advance(t, stage)
			customized := "cosmic"
			s, _ = Apply(s, StyleChanged{Style: model.StyleCustomization{Theme: customized, VisualStyle: "animated"}})

			s, effects := Apply(s, Reset{})
			assert.Equal(t, model.StageUpload, s.Stage)
			assert.Nil(t, s.Analysis)
			assert.Empty(t, s.Prompts)
			assert.Empty(t, s.VideoPath)
			assert.Empty(t, s.UploadedPath)
			assert.Nil(t, s.Job)
			assert.Equal(t, model.IdleProgress(), s.Progress)
			assert.False(t, s.Processing)
			// style survives the reset
			assert.Equal(t, customized, s.Style.Theme)
			require.Len(t, effects, 1)
			assert.Equal(t, EffectStopPolling{}, effects[0])
		})
	}
}

func TestStyleChangeResynthesizesPrompts(t *testing.T) {
	s := advance(t, model.StageCustomize)
	before := s.Prompts

	s, effects := Apply(s, StyleChanged{Style: model.StyleCustomization{Theme: "neon", VisualStyle: "retro"}})
	assert.Empty(t, effects)
	require.Len(t, s.Prompts, len(before))
	assert.Equal(t, "neon retro scene, ambient intro", s.Prompts[0].Prompt)
	// segment references are untouched
	for i := range s.Prompts {
		assert.Same(t, before[i].Segment, s.Prompts[i].Segment)
	}
}

func TestStyleChangeBeforeAnalysis(t *testing.T) {
	s := NewState(testStyle)
	s, _ = Apply(s, StyleChanged{Style: model.StyleCustomization{Theme: "urban"}})
	assert.Empty(t, s.Prompts)
	assert.Equal(t, "urban", s.Style.Theme)
}

func TestDuplicateEventsIgnored(t *testing.T) {
	s := NewState(testStyle)
	s, _ = Apply(s, FileSelected{Path: "/a.mp3"})

	// second selection while processing is a no-op
	next, effects := Apply(s, FileSelected{Path: "/b.mp3"})
	assert.Empty(t, effects)
	assert.Equal(t, "/a.mp3", next.SelectedFile)

	// generate without analysis is a no-op
	next, effects = Apply(NewState(testStyle), GenerateRequested{})
	assert.Empty(t, effects)
	assert.Equal(t, model.StageUpload, next.Stage)
}

func TestGenerateRetryAfterFailure(t *testing.T) {
	s := advance(t, model.StageGenerate)
	s, _ = Apply(s, GenerationFailed{Err: errors.New("boom")})

	s, effects := Apply(s, GenerateRequested{})
	assert.Equal(t, model.StageGenerate, s.Stage)
	assert.True(t, s.Processing)
	require.Len(t, effects, 1)
}
