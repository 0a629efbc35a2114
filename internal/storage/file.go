package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileFormatVersion guards against documents written by incompatible builds.
const fileFormatVersion = "1.0"

// fileDocument is the on-disk JSON shape.
type fileDocument struct {
	Version string    `json:"version"`
	SavedAt time.Time `json:"savedAt"`
	Snapshot
}

// FileAdapter persists the snapshot as a single JSON document. Writes go
// through a temp file and rename so a crash mid-save never leaves a torn
// document behind.
type FileAdapter struct {
	path string
}

// NewFileAdapter creates a file-backed adapter writing to path.
func NewFileAdapter(path string) (*FileAdapter, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	return &FileAdapter{path: path}, nil
}

// Load reads and decodes the JSON document.
// Returns ErrNotFound when the file does not exist.
func (f *FileAdapter) Load(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if doc.Version != fileFormatVersion {
		return nil, fmt.Errorf("unsupported state file version: %s (expected: %s)", doc.Version, fileFormatVersion)
	}

	return &doc.Snapshot, nil
}

// Save writes the snapshot atomically.
func (f *FileAdapter) Save(_ context.Context, snap *Snapshot) error {
	doc := fileDocument{
		Version:  fileFormatVersion,
		SavedAt:  time.Now().UTC(),
		Snapshot: *snap,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".drey-state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// Close is a no-op for the file backend. Implements io.Closer.
func (f *FileAdapter) Close() error {
	return nil
}
