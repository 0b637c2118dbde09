package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per component failure kind. Adapters wrap the
// underlying cause with the matching sentinel (fmt.Errorf with two %w verbs)
// so callers can match either with errors.Is.
var (
	// ErrAuthExpired means the stored refresh token is invalid or revoked
	// and a human must re-authorize. Never retried automatically.
	ErrAuthExpired = errors.New("authorization expired, re-authorization required")

	ErrGeneration    = errors.New("script generation failed")
	ErrSynthesis     = errors.New("speech synthesis failed")
	ErrImageGen      = errors.New("thumbnail generation failed")
	ErrTranscription = errors.New("transcription failed")
	ErrComposition   = errors.New("video composition failed")
	ErrPublish       = errors.New("publish failed")

	// Publish sub-kinds.
	ErrQuotaExceeded = errors.New("upload quota exceeded")
	ErrUpload        = errors.New("upload failed")
)

// StageError is raised by the orchestrator when a stage fails. It names the
// stage so the CLI can pick an exit code and the user knows where to resume.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
