package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunereel/pkg/cache"
	"tunereel/pkg/config"
	"tunereel/pkg/model"
	"tunereel/pkg/request"
	"tunereel/pkg/tracker"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	tr := tracker.New()
	rc := request.New(cache.Null{}, tr, request.Options{
		Timeout:   5 * time.Second,
		Retries:   1,
		BaseDelay: 10 * time.Millisecond,
	})
	return New(config.BackendConfig{BaseURL: srv.URL}, rc, tr)
}

func TestBuildAnalysis(t *testing.T) {
	tests := []struct {
		name             string
		raw              rawAnalysis
		wantEnergy       float64
		wantDanceability float64
	}{
		{
			name: "FastTempo",
			raw: rawAnalysis{
				Tempo: 120,
				Segments: []rawSegment{
					{StartTime: 0, EndTime: 10, Energy: 0.6, Mood: "calm"},
					{StartTime: 10, EndTime: 20, Energy: 0.8, Mood: "energetic"},
				},
			},
			wantEnergy:       0.7,
			wantDanceability: 0.84, // min(0.7*1.2, 1)
		},
		{
			name: "SlowTempo",
			raw: rawAnalysis{
				Tempo: 80,
				Segments: []rawSegment{
					{StartTime: 0, EndTime: 10, Energy: 0.7, Mood: "mellow"},
				},
			},
			wantEnergy:       0.7,
			wantDanceability: 0.56, // 0.7*0.8
		},
		{
			name:             "NoSegments",
			raw:              rawAnalysis{Tempo: 80},
			wantEnergy:       0.5,
			wantDanceability: 0.4,
		},
		{
			name: "DanceabilityClamped",
			raw: rawAnalysis{
				Tempo: 140,
				Segments: []rawSegment{
					{Energy: 0.95}, {Energy: 0.95},
				},
			},
			wantEnergy:       0.95,
			wantDanceability: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := buildAnalysis(tc.raw)
			assert.InDelta(t, tc.wantEnergy, got.Energy, 1e-9)
			assert.InDelta(t, tc.wantDanceability, got.Danceability, 1e-9)
		})
	}
}

func TestBuildAnalysisDescriptions(t *testing.T) {
	got := buildAnalysis(rawAnalysis{
		Tempo: 90,
		Segments: []rawSegment{
			{StartTime: 0, EndTime: 5, Energy: 0.3, Mood: "dreamy"},
			{StartTime: 5, EndTime: 10, Energy: 0.4},
		},
	})
	require.Len(t, got.Segments, 2)
	assert.Equal(t, "dreamy", got.Segments[0].Description)
	assert.Equal(t, "Instrumental section", got.Segments[1].Description)
	assert.Equal(t, 5.0, got.Segments[1].Start)
	assert.Equal(t, 10.0, got.Segments[1].End)
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/analyze", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "/uploads/track.mp3", req["filepath"])
		json.NewEncoder(w).Encode(rawAnalysis{
			Tempo: 128, Mood: "upbeat", Genre: "electronic", Duration: 180,
			Segments: []rawSegment{{StartTime: 0, EndTime: 180, Energy: 0.9, Mood: "driving"}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	got, err := c.Analyze(context.Background(), "/uploads/track.mp3")
	require.NoError(t, err)
	assert.Equal(t, 128.0, got.Tempo)
	assert.Equal(t, "electronic", got.Genre)
	assert.InDelta(t, 0.9, got.Energy, 1e-9)
	assert.InDelta(t, 1.0, got.Danceability, 1e-9)
}

func TestAnalyzeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "analyzer crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Analyze(context.Background(), "/uploads/track.mp3")
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/upload", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "song.mp3", hdr.Filename)
		json.NewEncoder(w).Encode(map[string]string{"filepath": "/uploads/song.mp3"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	path, err := c.Upload(context.Background(), "/home/me/song.mp3", strings.NewReader("mp3data"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/song.mp3", path)
}

func TestUploadMissingPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Upload(context.Background(), "song.mp3", strings.NewReader("x"))
	var ue *UploadError
	require.ErrorAs(t, err, &ue)
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "retro", req["style"])
		assert.Equal(t, "neon", req["theme"])
		assert.Equal(t, false, req["use_mock"])
		json.NewEncoder(w).Encode(map[string]string{"job_id": "job-42"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	job, err := c.Generate(context.Background(), "/uploads/song.mp3", model.StyleCustomization{
		Theme: "neon", VisualStyle: "retro",
	})
	require.NoError(t, err)
	assert.Equal(t, "job-42", job.ID)
}

func TestGenerateNoJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Generate(context.Background(), "x", model.StyleCustomization{})
	var ge *GenerationSubmitError
	require.ErrorAs(t, err, &ge)
}

func TestJobStatus(t *testing.T) {
	tests := []struct {
		name       string
		resp       string
		wantStatus model.Status
		wantStep   string
		wantPct    int
	}{
		{
			name:       "InProgress",
			resp:       `{"status":"processing","current_step":"Rendering scenes","progress":45,"message":"frame 120/400"}`,
			wantStatus: model.StatusGenerating,
			wantStep:   "Rendering scenes",
			wantPct:    45,
		},
		{
			name:       "Completed",
			resp:       `{"status":"completed","progress":100,"message":"done"}`,
			wantStatus: model.StatusComplete,
			wantStep:   "done", // falls back to message
			wantPct:    100,
		},
		{
			name:       "Errored",
			resp:       `{"status":"error","message":"render failed"}`,
			wantStatus: model.StatusError,
			wantStep:   "render failed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/job/job-7", r.URL.Path)
				w.Write([]byte(tc.resp))
			}))
			defer srv.Close()

			c := newTestClient(t, srv)
			got, err := c.JobStatus(context.Background(), "job-7")
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, got.Status)
			assert.Equal(t, tc.wantStep, got.CurrentStep)
			assert.Equal(t, tc.wantPct, got.Progress)
		})
	}
}

func TestJobStatusPollError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.JobStatus(context.Background(), "gone")
	var pe *PollError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "gone", pe.JobID)
	var se *request.StatusError
	assert.True(t, errors.As(err, &se))
}

func TestListJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"job-1":{"status":"completed","progress":100},"job-2":{"status":"processing","progress":10}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	jobs, err := c.ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "completed", jobs["job-1"].Status)
}

func TestSupportedFormats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"audio":[".mp3",".wav",".flac"]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	got, err := c.SupportedFormats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{".mp3", ".wav", ".flac"}, got)
}
