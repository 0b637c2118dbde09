package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	oai "github.com/sashabaranov/go-openai"

	"bookcast/internal/core/domain"
)

// Transcribe sends the narration audio to the transcription service and maps
// the returned timed segments onto a normalized CaptionSet. Segments with a
// malformed time range (end <= start) are dropped with a warning; the call
// fails only when the service errors or no valid segment remains.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (domain.CaptionSet, error) {
	resp, err := c.api.CreateTranscription(ctx, oai.AudioRequest{
		Model:    oai.Whisper1,
		FilePath: audioPath,
		Format:   oai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTranscription, err)
	}
	if len(resp.Segments) == 0 {
		return nil, fmt.Errorf("%w: service returned no segments", domain.ErrTranscription)
	}

	raw := make(domain.CaptionSet, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		raw = append(raw, domain.Caption{
			Start: secondsToDuration(seg.Start),
			End:   secondsToDuration(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	captions, dropped := raw.Normalize()
	if dropped > 0 {
		c.logger.Printf("[TRANSCRIBE] warning: dropped %d malformed segment(s) out of %d", dropped, len(raw))
	}
	if len(captions) == 0 {
		return nil, fmt.Errorf("%w: all %d segments malformed", domain.ErrTranscription, len(raw))
	}
	return captions, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
