package domain

import "time"

// RunContext is the resumable state of one pipeline execution. It is
// persisted as run.json after every completed stage, so a failed run can be
// resumed from the last checkpoint instead of restarting from scratch.
type RunContext struct {
	RunID string `json:"run_id"`
	Topic string `json:"topic"`

	// State is the last successfully completed stage (StageIdle before any
	// stage has run, StageDone after publish).
	State Stage `json:"state"`

	ScriptPath   string `json:"script_path,omitempty"`
	AudioPath    string `json:"audio_path,omitempty"`
	ImagePath    string `json:"image_path,omitempty"`
	CaptionsPath string `json:"captions_path,omitempty"`
	VideoPath    string `json:"video_path,omitempty"`

	VideoID     string `json:"video_id,omitempty"`
	DriveFileID string `json:"drive_file_id,omitempty"`

	FailedStage Stage  `json:"failed_stage,omitempty"`
	LastError   string `json:"last_error,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// NewRunContext creates the context for a fresh run.
func NewRunContext(runID, topic string) *RunContext {
	now := time.Now().UTC()
	return &RunContext{
		RunID:     runID,
		Topic:     topic,
		State:     StageIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Fail records a stage failure. Artifact paths from completed stages are
// left intact so a later resume can reuse them.
func (rc *RunContext) Fail(stage Stage, err error) {
	rc.FailedStage = stage
	rc.LastError = err.Error()
	rc.UpdatedAt = time.Now().UTC()
}

// ClearFailure resets failure bookkeeping before a resume attempt.
func (rc *RunContext) ClearFailure() {
	rc.FailedStage = ""
	rc.LastError = ""
	rc.UpdatedAt = time.Now().UTC()
}

// VideoMetadata is the listing metadata attached to an uploaded video.
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"category_id"`
	Privacy     string   `json:"privacy"`
}

// PublishResult holds the identifiers returned by the hosting and storage
// services after a successful publish.
type PublishResult struct {
	VideoID     string    `json:"video_id"`
	DriveFileID string    `json:"drive_file_id,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
