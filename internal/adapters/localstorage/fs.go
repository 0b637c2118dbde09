package localstorage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"bookcast/internal/core/domain"
)

const contextFile = "run.json"

// LocalStorage implements ports.RunStore on the local filesystem. Each run
// gets its own directory under <base>/runs/<run-id> holding every artifact
// plus the run.json checkpoint.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

// InitRun creates the run directory.
func (s *LocalStorage) InitRun(ctx context.Context, runID string) error {
	path := s.RunPath(runID)
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create run directory %s: %w", path, err)
	}
	return nil
}

// SaveArtifact writes an artifact into the run directory.
func (s *LocalStorage) SaveArtifact(ctx context.Context, runID, name string, data []byte) (string, error) {
	path := s.ArtifactPath(runID, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}
	return path, nil
}

// LoadArtifact reads a previously saved artifact.
func (s *LocalStorage) LoadArtifact(ctx context.Context, runID, name string) ([]byte, error) {
	data, err := os.ReadFile(s.ArtifactPath(runID, name))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return data, nil
}

// SaveContext checkpoints the run context. The file is written to a temp
// path and renamed so a crash mid-write never leaves a torn run.json.
func (s *LocalStorage) SaveContext(ctx context.Context, rc *domain.RunContext) error {
	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run context: %w", err)
	}
	path := s.ArtifactPath(rc.RunID, contextFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write run context: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit run context: %w", err)
	}
	return nil
}

// LoadContext reloads a checkpointed run context.
func (s *LocalStorage) LoadContext(ctx context.Context, runID string) (*domain.RunContext, error) {
	data, err := os.ReadFile(s.ArtifactPath(runID, contextFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load run context for %s: %w", runID, err)
	}
	var rc domain.RunContext
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("failed to decode run context for %s: %w", runID, err)
	}
	return &rc, nil
}

// RunPath returns the path for a run directory.
func (s *LocalStorage) RunPath(runID string) string {
	return filepath.Join(s.BaseDir, "runs", runID)
}

// ArtifactPath returns the path an artifact occupies in the run directory.
func (s *LocalStorage) ArtifactPath(runID, name string) string {
	return filepath.Join(s.RunPath(runID), name)
}
