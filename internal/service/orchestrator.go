package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookcast/internal/core/domain"
	"bookcast/internal/core/ports"
)

// Artifact names inside a run directory.
const (
	artifactScript   = "script.txt"
	artifactAudio    = "voice.mp3"
	artifactImage    = "thumbnail.png"
	artifactCaptions = "captions.srt"
	artifactVideo    = "summary.mp4"
)

// Default tags attached to every published video, plus the topic itself.
var defaultTags = []string{
	"Book Summary", "Self Help", "Personal Growth", "Motivation",
	"Life Improvement", "Success", "Mindfulness", "Happiness",
	"Personal Development", "Inspiration", "Productivity", "Well-being",
	"Life Hacks", "Mental Health", "Goal Setting", "Self-Care",
	"Positive Thinking", "Life Coaching", "Self-Improvement", "Empowerment",
}

// Options tune a pipeline run.
type Options struct {
	// StageTimeout bounds each stage's external call. Zero means no timeout.
	StageTimeout time.Duration
	// Privacy is the hosting-service visibility for the published video.
	Privacy string
	// SkipPublish stops the pipeline after composition.
	SkipPublish bool
}

// Orchestrator sequences the pipeline stages, persisting the run context
// after every completed stage so a failed run can resume from its last
// checkpoint. Execution is strictly sequential: a stage starts only after
// the previous stage's artifact is fully on disk.
type Orchestrator struct {
	generator   ports.ScriptGenerator
	synthesizer ports.SpeechSynthesizer
	thumbnails  ports.ThumbnailGenerator
	transcriber ports.Transcriber
	composer    ports.VideoComposer
	publisher   ports.Publisher
	store       ports.RunStore
	logger      *log.Logger
	opts        Options
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	generator ports.ScriptGenerator,
	synthesizer ports.SpeechSynthesizer,
	thumbnails ports.ThumbnailGenerator,
	transcriber ports.Transcriber,
	composer ports.VideoComposer,
	publisher ports.Publisher,
	store ports.RunStore,
	logger *log.Logger,
	opts Options,
) *Orchestrator {
	if opts.Privacy == "" {
		opts.Privacy = "public"
	}
	return &Orchestrator{
		generator:   generator,
		synthesizer: synthesizer,
		thumbnails:  thumbnails,
		transcriber: transcriber,
		composer:    composer,
		publisher:   publisher,
		store:       store,
		logger:      logger,
		opts:        opts,
	}
}

// Run executes a complete pipeline run for the given book topic.
func (o *Orchestrator) Run(ctx context.Context, topic string) (*domain.RunContext, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("empty topic")
	}

	runID := uuid.New().String()
	rc := domain.NewRunContext(runID, topic)

	o.logger.Printf("[RUN %s] starting run for topic %q", runID, topic)
	if err := o.store.InitRun(ctx, runID); err != nil {
		return rc, fmt.Errorf("failed to init run: %w", err)
	}
	if err := o.store.SaveContext(ctx, rc); err != nil {
		return rc, fmt.Errorf("failed to checkpoint run: %w", err)
	}
	return o.advance(ctx, rc)
}

// Resume reloads a checkpointed run and continues from the first incomplete
// stage. Completed stages are never re-executed.
func (o *Orchestrator) Resume(ctx context.Context, runID string) (*domain.RunContext, error) {
	rc, err := o.store.LoadContext(ctx, runID)
	if err != nil {
		return nil, err
	}
	if rc.State == domain.StageDone {
		o.logger.Printf("[RUN %s] already complete, nothing to resume", runID)
		return rc, nil
	}

	o.logger.Printf("[RUN %s] resuming after stage %s", runID, rc.State)
	rc.ClearFailure()
	return o.advance(ctx, rc)
}

// advance drives the state machine forward until done or a stage fails.
func (o *Orchestrator) advance(ctx context.Context, rc *domain.RunContext) (*domain.RunContext, error) {
	for {
		next, ok := rc.State.Next()
		if !ok {
			return rc, nil
		}
		if !rc.State.CanAdvanceTo(next) {
			return rc, fmt.Errorf("invalid transition %s -> %s", rc.State, next)
		}

		if next == domain.StageDone {
			rc.State = domain.StageDone
			rc.CompletedAt = time.Now().UTC()
			rc.UpdatedAt = rc.CompletedAt
			if err := o.store.SaveContext(ctx, rc); err != nil {
				return rc, fmt.Errorf("failed to checkpoint run: %w", err)
			}
			o.logger.Printf("[RUN %s] run complete, artifacts in %s", rc.RunID, o.store.RunPath(rc.RunID))
			return rc, nil
		}

		if next == domain.StagePublishing && o.opts.SkipPublish {
			o.logger.Printf("[RUN %s] skipping publish stage", rc.RunID)
			rc.State = domain.StagePublishing
			continue
		}

		o.logger.Printf("[RUN %s] stage %s starting", rc.RunID, next)
		start := time.Now()
		err := o.runStage(ctx, rc, next)
		if err != nil {
			rc.Fail(next, err)
			if serr := o.store.SaveContext(ctx, rc); serr != nil {
				o.logger.Printf("[RUN %s] ERROR: failed to checkpoint after failure: %v", rc.RunID, serr)
			}
			o.logger.Printf("[RUN %s] stage %s failed: %v", rc.RunID, next, err)
			return rc, &domain.StageError{Stage: next, Err: err}
		}

		rc.State = next
		rc.UpdatedAt = time.Now().UTC()
		if err := o.store.SaveContext(ctx, rc); err != nil {
			return rc, fmt.Errorf("failed to checkpoint run: %w", err)
		}
		o.logger.Printf("[RUN %s] stage %s completed in %s", rc.RunID, next, time.Since(start).Round(time.Millisecond))
	}
}

func (o *Orchestrator) runStage(ctx context.Context, rc *domain.RunContext, stage domain.Stage) error {
	if o.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.StageTimeout)
		defer cancel()
	}

	switch stage {
	case domain.StageGenerating:
		script, err := o.generator.GenerateScript(ctx, rc.Topic)
		if err != nil {
			return err
		}
		path, err := o.store.SaveArtifact(ctx, rc.RunID, artifactScript, []byte(script))
		if err != nil {
			return err
		}
		rc.ScriptPath = path
		return nil

	case domain.StageSynthesizing:
		script, err := o.store.LoadArtifact(ctx, rc.RunID, artifactScript)
		if err != nil {
			return err
		}
		audio, err := o.synthesizer.Synthesize(ctx, string(script))
		if err != nil {
			return err
		}
		path, err := o.store.SaveArtifact(ctx, rc.RunID, artifactAudio, audio)
		if err != nil {
			return err
		}
		rc.AudioPath = path
		return nil

	case domain.StageImaging:
		image, err := o.thumbnails.GenerateThumbnail(ctx, rc.Topic)
		if err != nil {
			return err
		}
		path, err := o.store.SaveArtifact(ctx, rc.RunID, artifactImage, image)
		if err != nil {
			return err
		}
		rc.ImagePath = path
		return nil

	case domain.StageTranscribing:
		captions, err := o.transcriber.Transcribe(ctx, rc.AudioPath)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := captions.WriteSRT(&buf); err != nil {
			return err
		}
		path, err := o.store.SaveArtifact(ctx, rc.RunID, artifactCaptions, buf.Bytes())
		if err != nil {
			return err
		}
		rc.CaptionsPath = path
		return nil

	case domain.StageComposing:
		data, err := o.store.LoadArtifact(ctx, rc.RunID, artifactCaptions)
		if err != nil {
			return err
		}
		captions, err := domain.ParseSRT(data)
		if err != nil {
			return err
		}
		out := o.store.ArtifactPath(rc.RunID, artifactVideo)
		err = o.composer.Compose(ctx, ports.ComposeInput{
			AudioPath:    rc.AudioPath,
			ImagePath:    rc.ImagePath,
			SubtitlePath: rc.CaptionsPath,
			Captions:     captions,
			OutputPath:   out,
		})
		if err != nil {
			return err
		}
		rc.VideoPath = out
		return nil

	case domain.StagePublishing:
		meta, err := o.metadata(ctx, rc)
		if err != nil {
			return err
		}
		result, err := o.publisher.Publish(ctx, rc.VideoPath, meta)
		if err != nil {
			return err
		}
		rc.VideoID = result.VideoID
		rc.DriveFileID = result.DriveFileID
		return nil

	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

// metadata derives the video listing from the run: the title names the book
// and the description is the opening of the generated script.
func (o *Orchestrator) metadata(ctx context.Context, rc *domain.RunContext) (domain.VideoMetadata, error) {
	script, err := o.store.LoadArtifact(ctx, rc.RunID, artifactScript)
	if err != nil {
		return domain.VideoMetadata{}, err
	}

	lines := strings.SplitN(strings.TrimSpace(string(script)), "\n", 3)
	description := strings.TrimSpace(string(script))
	if len(lines) >= 2 {
		description = strings.TrimSpace(lines[0] + "\n" + lines[1])
	}

	tags := make([]string, 0, len(defaultTags)+1)
	tags = append(tags, defaultTags...)
	tags = append(tags, rc.Topic)

	return domain.VideoMetadata{
		Title:       "Book Summary: " + rc.Topic,
		Description: description,
		Tags:        tags,
		CategoryID:  "22",
		Privacy:     o.opts.Privacy,
	}, nil
}
