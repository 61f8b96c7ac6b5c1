package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists reports as JSON files under a base directory.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a FileStore that saves reports under baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

// Save writes the report to a JSON file named by its RunID and returns the path.
func (s *FileStore) Save(r Report) (string, error) {
	p, err := s.path(r.RunID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("report: creating directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshaling: %w", err)
	}

	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("report: writing %s: %w", p, err)
	}
	return p, nil
}

// Load reads the report for the given run ID.
// Returns (report, true, nil) if found, (zero, false, nil) if not found.
func (s *FileStore) Load(runID string) (Report, bool, error) {
	p, err := s.path(runID)
	if err != nil {
		return Report{}, false, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Report{}, false, nil
		}
		return Report{}, false, fmt.Errorf("report: reading %s: %w", p, err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, false, fmt.Errorf("report: parsing %s: %w", p, err)
	}
	return r, true, nil
}

// ErrInvalidID indicates a run ID is empty or contains path traversal components.
var ErrInvalidID = errors.New("report: invalid run ID")

// path returns the filesystem path for a report file.
// It rejects IDs that are empty, dot-segments, or contain path separators.
func (s *FileStore) path(runID string) (string, error) {
	if runID == "" || runID == "." || runID == ".." || runID != filepath.Base(runID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, runID)
	}
	return filepath.Join(s.baseDir, runID+".json"), nil
}
