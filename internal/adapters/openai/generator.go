package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/sashabaranov/go-openai"

	"bookcast/internal/core/domain"
)

const (
	generatorSystemPrompt = "You are a helpful assistant."
	scriptPromptTemplate  = "Summarize the book, make the summary around 525 words and keep the words and text simple '%s'."

	// Appended to every script so the narration ends with a call to action.
	scriptOutro = " Thank you for watching! Please subscribe to the channel and feel free to leave any requests in the comments."

	maxGenerateAttempts = 3
)

// GenerateScript asks the chat model for a book summary script. Only
// rate-limit responses are retried, with exponential backoff and at most
// three attempts total.
func (c *Client) GenerateScript(ctx context.Context, topic string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", fmt.Errorf("%w: empty topic", domain.ErrGeneration)
	}

	req := oai.ChatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []oai.ChatCompletionMessage{
			{Role: oai.ChatMessageRoleSystem, Content: generatorSystemPrompt},
			{Role: oai.ChatMessageRoleUser, Content: fmt.Sprintf(scriptPromptTemplate, topic)},
		},
	}

	var lastErr error
	delay := c.cfg.RetryBase
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			if !isRateLimited(err) {
				return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
			}
			lastErr = err
			c.logger.Printf("[GENERATE] rate limited, attempt %d/%d, backing off %s", attempt, maxGenerateAttempts, delay)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", domain.ErrGeneration, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
			continue
		}

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%w: service returned no choices", domain.ErrGeneration)
		}
		script := strings.TrimSpace(resp.Choices[0].Message.Content)
		if len(script) < c.cfg.MinScriptChars {
			return "", fmt.Errorf("%w: degenerate response (%d chars, minimum %d)",
				domain.ErrGeneration, len(script), c.cfg.MinScriptChars)
		}
		return script + scriptOutro, nil
	}

	return "", fmt.Errorf("%w: rate limited after %d attempts: %w", domain.ErrGeneration, maxGenerateAttempts, lastErr)
}

func isRateLimited(err error) bool {
	var apiErr *oai.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests
}
