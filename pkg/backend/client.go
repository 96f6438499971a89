package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"

	"tunereel/pkg/config"
	"tunereel/pkg/model"
	"tunereel/pkg/request"
	"tunereel/pkg/tracker"
)

// Client talks to the render backend over its HTTP API.
// It is the only place that knows the backend's wire formats; everything it
// returns is already mapped into pkg/model types.
type Client struct {
	rc      *request.Client
	tracker *tracker.Tracker
	baseURL string
}

// New creates a backend client.
func New(cfg config.BackendConfig, rc *request.Client, tr *tracker.Tracker) *Client {
	return &Client{
		rc:      rc,
		tracker: tr,
		baseURL: cfg.BaseURL,
	}
}

// Upload sends the audio file as multipart form data.
// Returns the server-side storage path for the uploaded file.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", &UploadError{Err: err}
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", &UploadError{Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &UploadError{Err: err}
	}

	body, err := c.rc.PostWithHeaders(ctx, c.baseURL+"/api/upload", buf.Bytes(),
		map[string]string{"Content-Type": mw.FormDataContentType()}, "")
	if err != nil {
		return "", &UploadError{Err: err}
	}

	var resp struct {
		FilePath string `json:"filepath"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &UploadError{Err: fmt.Errorf("bad upload response: %w", err)}
	}
	if resp.FilePath == "" {
		return "", &UploadError{Err: fmt.Errorf("upload response missing filepath")}
	}
	return resp.FilePath, nil
}

// UploadFile is a convenience wrapper that opens and uploads a local file.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	defer f.Close()
	return c.Upload(ctx, path, f)
}

// rawSegment is the analyzer's wire shape for one segment.
type rawSegment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Energy    float64 `json:"energy"`
	Mood      string  `json:"mood"`
}

// rawAnalysis is the analyzer's wire shape for a full response.
type rawAnalysis struct {
	Tempo    float64      `json:"tempo"`
	Mood     string       `json:"mood"`
	Genre    string       `json:"genre"`
	Duration float64      `json:"duration"`
	Segments []rawSegment `json:"segments"`
}

// Analyze requests audio analysis for an uploaded file. Responses are cached
// by file path, so re-analyzing the same upload never hits the network.
func (c *Client) Analyze(ctx context.Context, filePath string) (*model.AudioAnalysis, error) {
	reqBody, err := json.Marshal(map[string]string{"filepath": filePath})
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}

	body, err := c.rc.PostWithHeaders(ctx, c.baseURL+"/api/analyze", reqBody,
		map[string]string{"Content-Type": "application/json"}, "analysis:"+filePath)
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}

	var raw rawAnalysis
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &AnalysisError{Err: fmt.Errorf("bad analysis response: %w", err)}
	}

	return buildAnalysis(raw), nil
}

// buildAnalysis maps the wire shape into the domain model and performs the
// derivations downstream code relies on: per-segment intensity from reported
// energy, overall energy as the mean intensity (0.5 when there is no segment
// data), and the tempo-class danceability heuristic.
func buildAnalysis(raw rawAnalysis) *model.AudioAnalysis {
	segments := make([]model.AudioSegment, 0, len(raw.Segments))
	for _, s := range raw.Segments {
		desc := s.Mood
		if desc == "" {
			desc = "Instrumental section"
		}
		segments = append(segments, model.AudioSegment{
			Start:       s.StartTime,
			End:         s.EndTime,
			Intensity:   s.Energy,
			Description: desc,
		})
	}

	energy := 0.5 // no segment data; a neutral default, not silence
	if len(segments) > 0 {
		var sum float64
		for _, s := range segments {
			sum += s.Intensity
		}
		energy = sum / float64(len(segments))
	}

	var danceability float64
	if raw.Tempo > 100 {
		danceability = math.Min(energy*1.2, 1)
	} else {
		danceability = energy * 0.8
	}

	return &model.AudioAnalysis{
		Tempo:        raw.Tempo,
		Mood:         raw.Mood,
		Genre:        raw.Genre,
		Duration:     raw.Duration,
		Energy:       energy,
		Danceability: danceability,
		Segments:     segments,
	}
}

// Generate submits a generation job for an uploaded file with the given style.
func (c *Client) Generate(ctx context.Context, filePath string, style model.StyleCustomization) (*model.Job, error) {
	reqBody, err := json.Marshal(map[string]any{
		"filepath": filePath,
		"style":    style.VisualStyle,
		"theme":    style.Theme,
		"use_mock": false,
	})
	if err != nil {
		return nil, &GenerationSubmitError{Err: err}
	}

	body, err := c.rc.PostWithHeaders(ctx, c.baseURL+"/api/generate", reqBody,
		map[string]string{"Content-Type": "application/json"}, "")
	if err != nil {
		return nil, &GenerationSubmitError{Err: err}
	}

	var resp struct {
		JobID  string `json:"job_id"`
		Result *struct {
			OutputPath string `json:"output_path"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &GenerationSubmitError{Err: fmt.Errorf("bad generate response: %w", err)}
	}
	if resp.JobID == "" {
		return nil, &GenerationSubmitError{Err: fmt.Errorf("no job ID received from server")}
	}

	job := &model.Job{ID: resp.JobID}
	if resp.Result != nil {
		job.VideoPath = resp.Result.OutputPath
	}
	return job, nil
}

// JobStatus queries the backend for the current state of a job.
// Any non-"completed"/"error" status maps to generating.
func (c *Client) JobStatus(ctx context.Context, jobID string) (model.GenerationProgress, error) {
	if c.tracker != nil {
		c.tracker.TrackPollQuery("backend")
	}
	body, err := c.rc.Get(ctx, c.baseURL+"/api/job/"+url.PathEscape(jobID), "")
	if err != nil {
		return model.GenerationProgress{}, &PollError{JobID: jobID, Err: err}
	}

	var resp struct {
		Status      string  `json:"status"`
		CurrentStep string  `json:"current_step"`
		Progress    float64 `json:"progress"`
		Message     string  `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.GenerationProgress{}, &PollError{JobID: jobID, Err: fmt.Errorf("bad status response: %w", err)}
	}

	var status model.Status
	switch resp.Status {
	case "completed":
		status = model.StatusComplete
	case "error":
		status = model.StatusError
	default:
		status = model.StatusGenerating
	}

	step := resp.CurrentStep
	if step == "" {
		step = resp.Message
	}

	return model.GenerationProgress{
		Status:      status,
		CurrentStep: step,
		Progress:    int(math.Round(resp.Progress)),
		Message:     resp.Message,
	}, nil
}

// Download fetches the generated video bytes.
func (c *Client) Download(ctx context.Context, videoPath string) ([]byte, error) {
	u := c.baseURL + "/api/download?path=" + url.QueryEscape(videoPath)
	body, err := c.rc.Get(ctx, u, "")
	if err != nil {
		return nil, &DownloadError{Err: err}
	}
	return body, nil
}

// Health checks backend availability.
func (c *Client) Health(ctx context.Context) (string, error) {
	body, err := c.rc.Get(ctx, c.baseURL+"/api/health", "")
	if err != nil {
		return "", err
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("bad health response: %w", err)
	}
	return resp.Status, nil
}

// JobBrief is the backend's summary row in the job listing.
type JobBrief struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
}

// ListJobs returns all jobs the backend still knows about.
func (c *Client) ListJobs(ctx context.Context) (map[string]JobBrief, error) {
	body, err := c.rc.Get(ctx, c.baseURL+"/api/jobs", "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]JobBrief)
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("bad jobs response: %w", err)
	}
	return out, nil
}

// DeleteJob removes a finished job and its output from the backend.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	_, err := c.rc.Delete(ctx, c.baseURL+"/api/job/"+url.PathEscape(jobID))
	return err
}

// SupportedFormats returns the audio file extensions the backend accepts.
func (c *Client) SupportedFormats(ctx context.Context) ([]string, error) {
	body, err := c.rc.Get(ctx, c.baseURL+"/api/formats", "formats")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Audio []string `json:"audio"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("bad formats response: %w", err)
	}
	return resp.Audio, nil
}
