package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	oai "github.com/sashabaranov/go-openai"

	"bookcast/internal/core/domain"
)

// Synthesize converts the script into narration audio. Scripts longer than
// the service's input limit are split on sentence boundaries and the chunk
// audio is concatenated in order. If any chunk fails, all partial audio is
// discarded and nothing is returned.
func (c *Client) Synthesize(ctx context.Context, script string) ([]byte, error) {
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("%w: empty script", domain.ErrSynthesis)
	}

	chunks := splitScript(script, c.cfg.MaxSpeechChars)
	c.logger.Printf("[SYNTHESIZE] script split into %d chunk(s), voice %s", len(chunks), c.cfg.Voice)

	var buf bytes.Buffer
	for i, chunk := range chunks {
		audio, err := c.synthesizeChunk(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d/%d: %w", domain.ErrSynthesis, i+1, len(chunks), err)
		}
		buf.Write(audio)
	}
	return buf.Bytes(), nil
}

func (c *Client) synthesizeChunk(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.api.CreateSpeech(ctx, oai.CreateSpeechRequest{
		Model: oai.TTSModel1,
		Input: text,
		Voice: c.cfg.Voice,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	return io.ReadAll(resp)
}

// splitScript breaks text into chunks of at most max bytes, preferring
// sentence boundaries. A single sentence longer than max is hard-split.
func splitScript(text string, max int) []string {
	text = strings.TrimSpace(text)
	if max <= 0 || len(text) <= max {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}

	for _, sentence := range splitSentences(text) {
		for len(sentence) > max {
			flush()
			chunks = append(chunks, strings.TrimSpace(sentence[:max]))
			sentence = strings.TrimSpace(sentence[max:])
		}
		if sentence == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+1+len(sentence) > max {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(sentence)
	}
	flush()
	return chunks
}

// splitSentences splits on terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			end := i + 1
			for end < len(text) && (text[end] == '.' || text[end] == '!' || text[end] == '?') {
				end++
			}
			if end >= len(text) || text[end] == ' ' || text[end] == '\n' || text[end] == '\t' {
				if s := strings.TrimSpace(text[start:end]); s != "" {
					out = append(out, s)
				}
				start = end
				i = end - 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
