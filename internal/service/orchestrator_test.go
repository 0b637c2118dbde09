package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"bookcast/internal/adapters/localstorage"
	"bookcast/internal/core/domain"
	"bookcast/internal/core/ports"
)

type fakeGenerator struct {
	calls int
	err   error
}

func (f *fakeGenerator) GenerateScript(ctx context.Context, topic string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "First line about " + topic + ".\nSecond line.\nThird line.", nil
}

type fakeSynthesizer struct {
	calls int
	err   error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, script string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3-bytes"), nil
}

type fakeThumbnails struct {
	calls int
}

func (f *fakeThumbnails) GenerateThumbnail(ctx context.Context, topic string) ([]byte, error) {
	f.calls++
	return []byte("png-bytes"), nil
}

type fakeTranscriber struct {
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (domain.CaptionSet, error) {
	f.calls++
	return domain.CaptionSet{
		{Start: 0, End: 2 * time.Second, Text: "hello"},
		{Start: 2 * time.Second, End: 4 * time.Second, Text: "world"},
	}, nil
}

type fakeComposer struct {
	calls int
	last  ports.ComposeInput
}

func (f *fakeComposer) Compose(ctx context.Context, in ports.ComposeInput) error {
	f.calls++
	f.last = in
	return os.WriteFile(in.OutputPath, []byte("mp4-bytes"), 0644)
}

type fakePublisher struct {
	calls int
	err   error
	path  string
	meta  domain.VideoMetadata
}

func (f *fakePublisher) Publish(ctx context.Context, videoPath string, meta domain.VideoMetadata) (domain.PublishResult, error) {
	f.calls++
	f.path = videoPath
	f.meta = meta
	if f.err != nil {
		return domain.PublishResult{}, f.err
	}
	return domain.PublishResult{VideoID: "yt-123", DriveFileID: "gd-456", UploadedAt: time.Now().UTC()}, nil
}

type pipeline struct {
	generator   *fakeGenerator
	synthesizer *fakeSynthesizer
	thumbnails  *fakeThumbnails
	transcriber *fakeTranscriber
	composer    *fakeComposer
	publisher   *fakePublisher
	store       *localstorage.LocalStorage
	orch        *Orchestrator
}

func newPipeline(t *testing.T, opts Options) *pipeline {
	t.Helper()
	p := &pipeline{
		generator:   &fakeGenerator{},
		synthesizer: &fakeSynthesizer{},
		thumbnails:  &fakeThumbnails{},
		transcriber: &fakeTranscriber{},
		composer:    &fakeComposer{},
		publisher:   &fakePublisher{},
		store:       localstorage.NewLocalStorage(t.TempDir()),
	}
	p.orch = NewOrchestrator(
		p.generator, p.synthesizer, p.thumbnails, p.transcriber,
		p.composer, p.publisher, p.store,
		log.New(io.Discard, "", 0), opts,
	)
	return p
}

func TestRunCompletesAllStages(t *testing.T) {
	p := newPipeline(t, Options{Privacy: "unlisted"})

	rc, err := p.orch.Run(context.Background(), "Atomic Habits")
	if err != nil {
		t.Fatal(err)
	}
	if rc.State != domain.StageDone {
		t.Fatalf("state = %s, want %s", rc.State, domain.StageDone)
	}
	if rc.CompletedAt.IsZero() {
		t.Fatal("CompletedAt not set")
	}
	if rc.VideoID != "yt-123" || rc.DriveFileID != "gd-456" {
		t.Fatalf("publish ids = %q %q", rc.VideoID, rc.DriveFileID)
	}

	// Each stage's artifact was persisted to the run directory.
	for _, name := range []string{"script.txt", "voice.mp3", "thumbnail.png", "captions.srt", "summary.mp4"} {
		if _, err := os.Stat(p.store.ArtifactPath(rc.RunID, name)); err != nil {
			t.Errorf("artifact %s missing: %v", name, err)
		}
	}

	// The publisher received the composed video and derived metadata.
	if p.publisher.path != rc.VideoPath {
		t.Fatalf("published %q, want %q", p.publisher.path, rc.VideoPath)
	}
	if p.publisher.meta.Title != "Book Summary: Atomic Habits" {
		t.Fatalf("title = %q", p.publisher.meta.Title)
	}
	if p.publisher.meta.Privacy != "unlisted" {
		t.Fatalf("privacy = %q", p.publisher.meta.Privacy)
	}
	if !strings.Contains(p.publisher.meta.Description, "First line") || !strings.Contains(p.publisher.meta.Description, "Second line") {
		t.Fatalf("description = %q", p.publisher.meta.Description)
	}
	if p.publisher.meta.Tags[len(p.publisher.meta.Tags)-1] != "Atomic Habits" {
		t.Fatalf("topic not appended to tags: %v", p.publisher.meta.Tags)
	}

	// The composer saw the real artifact paths and parsed captions.
	if p.composer.last.AudioPath != rc.AudioPath || p.composer.last.SubtitlePath != rc.CaptionsPath {
		t.Fatalf("composer input = %+v", p.composer.last)
	}
	if len(p.composer.last.Captions) != 2 {
		t.Fatalf("captions = %v", p.composer.last.Captions)
	}
}

func TestRunRejectsEmptyTopic(t *testing.T) {
	p := newPipeline(t, Options{})
	if _, err := p.orch.Run(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty topic")
	}
	if p.generator.calls != 0 {
		t.Fatal("generator must not run for an empty topic")
	}
}

func TestPublishQuotaFailureKeepsVideoArtifact(t *testing.T) {
	p := newPipeline(t, Options{})
	p.publisher.err = fmt.Errorf("%w: daily limit", domain.ErrQuotaExceeded)

	rc, err := p.orch.Run(context.Background(), "Deep Work")
	if err == nil {
		t.Fatal("expected publish failure")
	}

	var serr *domain.StageError
	if !errors.As(err, &serr) || serr.Stage != domain.StagePublishing {
		t.Fatalf("err = %v, want StageError at publishing", err)
	}
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}

	// The composed video survives the failed upload.
	if rc.VideoPath == "" {
		t.Fatal("video path lost on publish failure")
	}
	if _, statErr := os.Stat(rc.VideoPath); statErr != nil {
		t.Fatalf("video artifact missing: %v", statErr)
	}

	// The checkpoint records composing as the last completed stage plus the
	// failure details.
	persisted, loadErr := p.store.LoadContext(context.Background(), rc.RunID)
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	if persisted.State != domain.StageComposing {
		t.Fatalf("persisted state = %s, want %s", persisted.State, domain.StageComposing)
	}
	if persisted.FailedStage != domain.StagePublishing || persisted.LastError == "" {
		t.Fatalf("failure not recorded: %+v", persisted)
	}
}

func TestResumeRetriesOnlyTheFailedStage(t *testing.T) {
	p := newPipeline(t, Options{})
	p.publisher.err = fmt.Errorf("%w: daily limit", domain.ErrQuotaExceeded)

	rc, err := p.orch.Run(context.Background(), "Deep Work")
	if err == nil {
		t.Fatal("expected publish failure")
	}

	p.publisher.err = nil
	resumed, err := p.orch.Resume(context.Background(), rc.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.State != domain.StageDone {
		t.Fatalf("state = %s, want %s", resumed.State, domain.StageDone)
	}
	if resumed.VideoID != "yt-123" {
		t.Fatalf("video id = %q", resumed.VideoID)
	}
	if resumed.FailedStage != "" || resumed.LastError != "" {
		t.Fatalf("failure bookkeeping not cleared: %+v", resumed)
	}

	// Earlier stages ran exactly once across the original run and the resume.
	if p.generator.calls != 1 || p.synthesizer.calls != 1 || p.thumbnails.calls != 1 ||
		p.transcriber.calls != 1 || p.composer.calls != 1 {
		t.Fatalf("stage reruns: gen=%d synth=%d thumb=%d trans=%d comp=%d",
			p.generator.calls, p.synthesizer.calls, p.thumbnails.calls,
			p.transcriber.calls, p.composer.calls)
	}
	if p.publisher.calls != 2 {
		t.Fatalf("publisher calls = %d, want 2", p.publisher.calls)
	}
}

func TestResumeMidPipelineReloadsArtifactsFromDisk(t *testing.T) {
	p := newPipeline(t, Options{})
	p.synthesizer.err = fmt.Errorf("%w: service unavailable", domain.ErrSynthesis)

	rc, err := p.orch.Run(context.Background(), "Deep Work")
	if err == nil {
		t.Fatal("expected synthesis failure")
	}

	// A fresh orchestrator over the same store resumes without any in-memory
	// state from the first attempt.
	p2 := &pipeline{
		generator:   &fakeGenerator{},
		synthesizer: &fakeSynthesizer{},
		thumbnails:  &fakeThumbnails{},
		transcriber: &fakeTranscriber{},
		composer:    &fakeComposer{},
		publisher:   &fakePublisher{},
		store:       p.store,
	}
	p2.orch = NewOrchestrator(
		p2.generator, p2.synthesizer, p2.thumbnails, p2.transcriber,
		p2.composer, p2.publisher, p2.store,
		log.New(io.Discard, "", 0), Options{},
	)

	resumed, err := p2.orch.Resume(context.Background(), rc.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.State != domain.StageDone {
		t.Fatalf("state = %s", resumed.State)
	}
	if p2.generator.calls != 0 {
		t.Fatal("script must not be regenerated on resume")
	}
	if p2.synthesizer.calls != 1 {
		t.Fatalf("synthesizer calls = %d, want 1", p2.synthesizer.calls)
	}
}

func TestResumeCompletedRunIsANoOp(t *testing.T) {
	p := newPipeline(t, Options{})
	rc, err := p.orch.Run(context.Background(), "Deep Work")
	if err != nil {
		t.Fatal(err)
	}

	resumed, err := p.orch.Resume(context.Background(), rc.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.State != domain.StageDone {
		t.Fatalf("state = %s", resumed.State)
	}
	if p.publisher.calls != 1 {
		t.Fatalf("publisher calls = %d, want 1", p.publisher.calls)
	}
}

func TestSkipPublishStopsAfterComposition(t *testing.T) {
	p := newPipeline(t, Options{SkipPublish: true})

	rc, err := p.orch.Run(context.Background(), "Deep Work")
	if err != nil {
		t.Fatal(err)
	}
	if rc.State != domain.StageDone {
		t.Fatalf("state = %s", rc.State)
	}
	if p.publisher.calls != 0 {
		t.Fatalf("publisher calls = %d, want 0", p.publisher.calls)
	}
	if rc.VideoID != "" {
		t.Fatalf("video id = %q, want empty", rc.VideoID)
	}
	if _, err := os.Stat(rc.VideoPath); err != nil {
		t.Fatalf("video artifact missing: %v", err)
	}
}
