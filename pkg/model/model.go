package model

// Stage represents the position in the fixed workflow order.
type Stage string

const (
	StageUpload    Stage = "upload"
	StageAnalyze   Stage = "analyze"
	StageCustomize Stage = "customize"
	StageGenerate  Stage = "generate"
	StageComplete  Stage = "complete"
)

// stageOrder defines the total order of stages.
var stageOrder = []Stage{StageUpload, StageAnalyze, StageCustomize, StageGenerate, StageComplete}

// Index returns the position of the stage in the workflow order, or -1.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether the stage is one of the five workflow stages.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Status is the transient progress status. It is orthogonal to the stage:
// an error status never moves the stage backwards.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusAnalyzing  Status = "analyzing"
	StatusGenerating Status = "generating"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// AudioSegment is one analyzed span of the track. Segments arrive ordered by
// Start ascending and non-overlapping; that is the analyzer's contract and is
// not re-validated here.
type AudioSegment struct {
	Start       float64 `json:"start"`     // seconds
	End         float64 `json:"end"`       // seconds
	Intensity   float64 `json:"intensity"` // 0..1
	Description string  `json:"description"`
}

// AudioAnalysis is the full analysis result for one uploaded track.
// It is replaced wholesale on re-analysis, never mutated in place.
type AudioAnalysis struct {
	Tempo        float64        `json:"tempo"` // BPM
	Mood         string         `json:"mood"`
	Genre        string         `json:"genre"`
	Duration     float64        `json:"duration"` // seconds
	Energy       float64        `json:"energy"`   // 0..1, mean of segment intensities
	Danceability float64        `json:"danceability"`
	Segments     []AudioSegment `json:"segments"`
}

// StyleCustomization is one immutable style snapshot. Consumers never see
// partial edits; the style store produces a fresh snapshot per update.
type StyleCustomization struct {
	Theme            string   `json:"theme"`
	ColorPalette     []string `json:"color_palette"` // 4 color strings
	VisualStyle      string   `json:"visual_style"`
	EffectsIntensity float64  `json:"effects_intensity"` // 0..1
}

// Clone returns a deep copy so stored snapshots stay immutable.
func (s StyleCustomization) Clone() StyleCustomization {
	out := s
	out.ColorPalette = append([]string(nil), s.ColorPalette...)
	return out
}

// VideoPrompt is the derived generation instruction for one segment.
// The Segment pointer aliases the entry in AudioAnalysis.Segments.
type VideoPrompt struct {
	Segment           *AudioSegment `json:"segment"`
	Prompt            string        `json:"prompt"`
	VisualDescription string        `json:"visual_description"`
}

// GenerationProgress is overwritten wholesale on every update; fields are
// never merged individually.
type GenerationProgress struct {
	Status      Status `json:"status"`
	CurrentStep string `json:"current_step"`
	Progress    int    `json:"progress"` // 0..100
	Message     string `json:"message"`
}

// IdleProgress returns the zero progress value used after a reset.
func IdleProgress() GenerationProgress {
	return GenerationProgress{Status: StatusIdle}
}

// Job is the handle for one server-side generation job. Created on
// submission, discarded on workflow reset.
type Job struct {
	ID        string `json:"job_id"`
	VideoPath string `json:"video_path,omitempty"`
}

// JobRecord is one persisted job-history row.
type JobRecord struct {
	ID          string `json:"job_id"`
	FilePath    string `json:"file_path"`
	Status      Status `json:"status"`
	Progress    int    `json:"progress"`
	Message     string `json:"message"`
	VideoPath   string `json:"video_path,omitempty"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}
