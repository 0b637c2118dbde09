package youtube

import (
	"context"
	"fmt"
	"log"
	"os"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"bookcast/internal/auth"
	"bookcast/internal/core/domain"
)

// Uploader pushes finished videos to YouTube via the Data API. Sessions come
// from the credential manager on every call, so an expired token is
// refreshed (or rejected) before any bytes move.
type Uploader struct {
	sessions *auth.Manager
	logger   *log.Logger
}

// NewUploader creates an Uploader backed by the given credential manager.
func NewUploader(sessions *auth.Manager, logger *log.Logger) *Uploader {
	return &Uploader{sessions: sessions, logger: logger}
}

// Upload performs a resumable multipart upload and returns the video ID.
func (u *Uploader) Upload(ctx context.Context, videoPath string, meta domain.VideoMetadata) (string, error) {
	client, err := u.sessions.Client(ctx, auth.ServiceYouTube)
	if err != nil {
		return "", err
	}
	svc, err := ytapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("creating youtube service: %w", err)
	}

	f, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("opening video %s: %w", videoPath, err)
	}
	defer f.Close()

	video := &ytapi.Video{
		Snippet: &ytapi.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  meta.CategoryID,
		},
		Status: &ytapi.VideoStatus{PrivacyStatus: meta.Privacy},
	}

	u.logger.Printf("[YOUTUBE] uploading %s (%q, privacy %s)", videoPath, meta.Title, meta.Privacy)
	resp, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(f).Do()
	if err != nil {
		return "", err
	}
	u.logger.Printf("[YOUTUBE] uploaded video %s", resp.Id)
	return resp.Id, nil
}
