package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/oauth2"
)

// TokenStore persists OAuth tokens across process lifetimes. Load returns
// (nil, nil) when no token has been stored for the service yet.
type TokenStore interface {
	Load(service string) (*oauth2.Token, error)
	Save(service string, tok *oauth2.Token) error
}

// FileTokenStore keeps one JSON token file per service under a directory.
// Saves take a file lock so concurrent pipeline runs never interleave
// refresh writes, and the file itself is replaced atomically.
type FileTokenStore struct {
	dir string
}

// NewFileTokenStore creates the token directory if needed.
func NewFileTokenStore(dir string) (*FileTokenStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory %s: %w", dir, err)
	}
	return &FileTokenStore{dir: dir}, nil
}

func (s *FileTokenStore) path(service string) string {
	return filepath.Join(s.dir, service+"_token.json")
}

// Load reads the stored token for a service.
func (s *FileTokenStore) Load(service string) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path(service))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token for %s: %w", service, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token for %s: %w", service, err)
	}
	return &tok, nil
}

// Save writes the token under a file lock.
func (s *FileTokenStore) Save(service string, tok *oauth2.Token) error {
	path := s.path(service)

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock token store for %s: %w", service, err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token for %s: %w", service, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write token for %s: %w", service, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit token for %s: %w", service, err)
	}
	return nil
}
