package openai

import (
	"context"
	"fmt"
	"io"

	oai "github.com/sashabaranov/go-openai"

	"bookcast/internal/core/domain"
)

const thumbnailPromptTemplate = "Create a thumbnail for my YouTube video. The video is a book summary about the book '%s'."

// GenerateThumbnail requests a single thumbnail image and downloads it.
// No retry: a content-policy rejection will fail the same way every time.
func (c *Client) GenerateThumbnail(ctx context.Context, topic string) ([]byte, error) {
	resp, err := c.api.CreateImage(ctx, oai.ImageRequest{
		Model:          oai.CreateImageModelDallE3,
		Prompt:         fmt.Sprintf(thumbnailPromptTemplate, topic),
		Size:           oai.CreateImageSize1792x1024,
		Quality:        oai.CreateImageQualityStandard,
		ResponseFormat: oai.CreateImageResponseFormatURL,
		N:              1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageGen, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, fmt.Errorf("%w: service returned no image", domain.ErrImageGen)
	}

	body, err := c.download.Download(ctx, resp.Data[0].URL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching image: %w", domain.ErrImageGen, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading image: %w", domain.ErrImageGen, err)
	}
	return data, nil
}
