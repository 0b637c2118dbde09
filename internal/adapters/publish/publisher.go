package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"google.golang.org/api/googleapi"

	"bookcast/internal/core/domain"
)

// VideoUploader uploads the composed video to the hosting service.
type VideoUploader interface {
	Upload(ctx context.Context, videoPath string, meta domain.VideoMetadata) (string, error)
}

// BackupUploader copies an artifact to cloud storage.
type BackupUploader interface {
	Upload(ctx context.Context, path, name, description, folderID string) (string, error)
}

// Publisher implements ports.Publisher by uploading the video to YouTube and
// optionally backing it up to Drive. The hosting upload is authoritative: a
// failed backup is logged but does not undo a successful publish.
type Publisher struct {
	hosting  VideoUploader
	backup   BackupUploader
	folderID string
	logger   *log.Logger
}

// NewPublisher creates a Publisher. backup may be nil to disable the Drive
// copy.
func NewPublisher(hosting VideoUploader, backup BackupUploader, folderID string, logger *log.Logger) *Publisher {
	return &Publisher{
		hosting:  hosting,
		backup:   backup,
		folderID: folderID,
		logger:   logger,
	}
}

// Publish uploads the video and returns the hosting/storage identifiers.
func (p *Publisher) Publish(ctx context.Context, videoPath string, meta domain.VideoMetadata) (domain.PublishResult, error) {
	var res domain.PublishResult

	videoID, err := p.hosting.Upload(ctx, videoPath, meta)
	if err != nil {
		return res, fmt.Errorf("%w: %w", domain.ErrPublish, Classify(err))
	}
	res.VideoID = videoID
	res.UploadedAt = time.Now().UTC()

	if p.backup != nil {
		fileID, err := p.backup.Upload(ctx, videoPath, filepath.Base(videoPath), meta.Description, p.folderID)
		if err != nil {
			p.logger.Printf("[PUBLISH] warning: backup upload failed: %v", err)
		} else {
			res.DriveFileID = fileID
		}
	}
	return res, nil
}

// Classify maps a raw upload failure onto the publish error taxonomy:
// expired auth, exhausted quota, or a plain upload error. Errors already
// carrying a taxonomy sentinel pass through unchanged.
func Classify(err error) error {
	if errors.Is(err, domain.ErrAuthExpired) ||
		errors.Is(err, domain.ErrQuotaExceeded) ||
		errors.Is(err, domain.ErrUpload) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", domain.ErrAuthExpired, err)
		case gerr.Code == http.StatusForbidden && hasReason(gerr, "quotaExceeded", "uploadLimitExceeded", "userRateLimitExceeded"):
			return fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrUpload, err)
}

func hasReason(gerr *googleapi.Error, reasons ...string) bool {
	for _, item := range gerr.Errors {
		for _, reason := range reasons {
			if item.Reason == reason {
				return true
			}
		}
	}
	return false
}
