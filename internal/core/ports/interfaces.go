package ports

import (
	"context"
	"io"

	"bookcast/internal/core/domain"
)

// ScriptGenerator defines the contract for drafting a book-summary script
// from a text-generation service.
type ScriptGenerator interface {
	// GenerateScript returns the summary script for the given book topic.
	GenerateScript(ctx context.Context, topic string) (string, error)
}

// SpeechSynthesizer defines the contract for converting script text into
// narration audio.
type SpeechSynthesizer interface {
	// Synthesize returns the complete audio for the script. Implementations
	// must never return partial audio: if any part of the synthesis fails,
	// everything is discarded.
	Synthesize(ctx context.Context, script string) ([]byte, error)
}

// ThumbnailGenerator defines the contract for producing a thumbnail image.
type ThumbnailGenerator interface {
	GenerateThumbnail(ctx context.Context, topic string) ([]byte, error)
}

// Transcriber defines the contract for turning narration audio into timed
// captions. The returned set satisfies the CaptionSet invariant (sorted,
// non-overlapping).
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (domain.CaptionSet, error)
}

// ComposeInput bundles the artifacts the composer combines into a video.
type ComposeInput struct {
	AudioPath    string
	ImagePath    string
	SubtitlePath string
	Captions     domain.CaptionSet
	OutputPath   string
}

// VideoComposer defines the contract for rendering the final video.
type VideoComposer interface {
	Compose(ctx context.Context, in ComposeInput) error
}

// Publisher defines the contract for uploading the finished video.
type Publisher interface {
	Publish(ctx context.Context, videoPath string, meta domain.VideoMetadata) (domain.PublishResult, error)
}

// RunStore defines the contract for persisting run artifacts and the
// resumable run context.
type RunStore interface {
	// InitRun creates the run directory structure.
	InitRun(ctx context.Context, runID string) error

	// SaveArtifact writes an artifact into the run directory and returns its
	// filesystem path.
	SaveArtifact(ctx context.Context, runID, name string, data []byte) (string, error)

	// LoadArtifact reads a previously saved artifact.
	LoadArtifact(ctx context.Context, runID, name string) ([]byte, error)

	// SaveContext checkpoints the run context (run.json).
	SaveContext(ctx context.Context, rc *domain.RunContext) error

	// LoadContext reloads a checkpointed run context by run ID.
	LoadContext(ctx context.Context, runID string) (*domain.RunContext, error)

	// RunPath returns the filesystem path of the run directory.
	RunPath(runID string) string

	// ArtifactPath returns the path an artifact would occupy in the run
	// directory, whether or not it exists yet.
	ArtifactPath(runID, name string) string
}

// Downloader defines the contract for fetching binary content over HTTP,
// e.g. a generated image the service returns by URL.
type Downloader interface {
	// Download fetches the resource at the given URL.
	// Returns a ReadCloser that the caller must close.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}
