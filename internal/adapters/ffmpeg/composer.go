package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"bookcast/internal/core/domain"
	"bookcast/internal/core/ports"
)

// Fixed render settings. Everything here is deterministic: identical inputs
// produce identical ffmpeg invocations.
const (
	videoWidth  = 1280
	videoHeight = 720
	frameRate   = 24
)

// Composer implements ports.VideoComposer by shelling out to ffmpeg. The
// thumbnail image loops as a static backdrop, captions are burned in from
// the SRT artifact, and the narration audio is muxed underneath.
type Composer struct {
	ffmpegPath  string
	ffprobePath string
	tolerance   time.Duration
	logger      *log.Logger

	// probe is swappable in tests.
	probe func(ctx context.Context, audioPath string) (time.Duration, error)
}

// NewComposer creates a Composer using ffmpeg/ffprobe from PATH. tolerance
// is the maximum allowed divergence between the audio duration and the last
// caption's end time.
func NewComposer(tolerance time.Duration, logger *log.Logger) *Composer {
	c := &Composer{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		tolerance:   tolerance,
		logger:      logger,
	}
	c.probe = c.probeDuration
	return c
}

// Compose renders the final video. The captions are authoritative for the
// sync check: if the audio duration and the last caption's end diverge
// beyond the tolerance, composition fails rather than producing a video
// with drifting subtitles.
func (c *Composer) Compose(ctx context.Context, in ports.ComposeInput) error {
	if len(in.Captions) == 0 {
		return fmt.Errorf("%w: no captions", domain.ErrComposition)
	}

	audioDur, err := c.probe(ctx, in.AudioPath)
	if err != nil {
		return fmt.Errorf("%w: probing audio: %w", domain.ErrComposition, err)
	}

	lastEnd := in.Captions.Duration()
	if diff := absDuration(audioDur - lastEnd); diff > c.tolerance {
		return fmt.Errorf("%w: audio duration %s and caption end %s diverge by %s (tolerance %s)",
			domain.ErrComposition, audioDur, lastEnd, diff, c.tolerance)
	}

	args := composeArgs(in)
	c.logger.Printf("[COMPOSE] ffmpeg %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: ffmpeg: %w: %s", domain.ErrComposition, err, tail(stderr.String(), 500))
	}
	return nil
}

// composeArgs builds the ffmpeg argument list. Kept separate so the
// deterministic mapping from inputs to invocation is testable.
func composeArgs(in ports.ComposeInput) []string {
	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,subtitles=%s",
		videoWidth, videoHeight, videoWidth, videoHeight, in.SubtitlePath)
	return []string{
		"-y",
		"-loop", "1",
		"-i", in.ImagePath,
		"-i", in.AudioPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-r", strconv.Itoa(frameRate),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		in.OutputPath,
	}
}

// probeDuration reads the container duration via ffprobe.
func (c *Composer) probeDuration(ctx context.Context, audioPath string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
