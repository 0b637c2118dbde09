package gdrive

import (
	"context"
	"fmt"
	"log"
	"os"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"bookcast/internal/auth"
)

// Uploader copies artifacts to Google Drive as an off-site backup.
type Uploader struct {
	sessions *auth.Manager
	logger   *log.Logger
}

// NewUploader creates an Uploader backed by the given credential manager.
func NewUploader(sessions *auth.Manager, logger *log.Logger) *Uploader {
	return &Uploader{sessions: sessions, logger: logger}
}

// Upload stores the file on Drive and returns the file ID. folderID may be
// empty, in which case the file lands in the Drive root.
func (u *Uploader) Upload(ctx context.Context, path, name, description, folderID string) (string, error) {
	client, err := u.sessions.Client(ctx, auth.ServiceDrive)
	if err != nil {
		return "", err
	}
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("creating drive service: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	file := &drive.File{
		Name:        name,
		Description: description,
		MimeType:    "video/mp4",
	}
	if folderID != "" {
		file.Parents = []string{folderID}
	}

	u.logger.Printf("[DRIVE] uploading %s as %q", path, name)
	created, err := svc.Files.Create(file).Media(f).Fields("id").Do()
	if err != nil {
		return "", err
	}
	u.logger.Printf("[DRIVE] uploaded file %s", created.Id)
	return created.Id, nil
}
