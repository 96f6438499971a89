package backend

import "fmt"

// The render backend is an opaque collaborator; every operation has its own
// error kind so callers can route failures without string matching.

// UploadError wraps any transport or server failure during upload.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload failed: %v", e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// AnalysisError wraps a failed analysis call.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string { return fmt.Sprintf("analysis failed: %v", e.Err) }
func (e *AnalysisError) Unwrap() error { return e.Err }

// GenerationSubmitError wraps a failed generation submission.
type GenerationSubmitError struct {
	Err error
}

func (e *GenerationSubmitError) Error() string {
	return fmt.Sprintf("generation submit failed: %v", e.Err)
}
func (e *GenerationSubmitError) Unwrap() error { return e.Err }

// PollError wraps a failed job-status query. It is a single failed attempt,
// not necessarily a terminal job failure; the poller decides what to do.
type PollError struct {
	JobID string
	Err   error
}

func (e *PollError) Error() string { return fmt.Sprintf("poll failed for job %s: %v", e.JobID, e.Err) }
func (e *PollError) Unwrap() error { return e.Err }

// DownloadError wraps a failed video download.
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string { return fmt.Sprintf("download failed: %v", e.Err) }
func (e *DownloadError) Unwrap() error { return e.Err }
