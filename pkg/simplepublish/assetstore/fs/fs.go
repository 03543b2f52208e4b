package fs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// Store is a filesystem implementation of the simplepublish.AssetStore
// interface. Blobs are staged as files under a base directory, one file
// per local key, so staged uploads survive a process restart.
type Store struct {
	baseDir string
}

// Config options for the filesystem asset store
type Config struct {
	BaseDir string // Base directory for staged blobs
}

// New creates a new filesystem asset store
func New(config Config) (*Store, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{baseDir: config.BaseDir}, nil
}

// Put stages a blob as a file named by a freshly generated local key.
func (s *Store) Put(ctx context.Context, blob simplepublish.Blob) (string, error) {
	id := simplepublish.LocalRefPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")

	if err := os.WriteFile(s.path(id), blob.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to stage blob: %w", err)
	}
	return id, nil
}

// Get retrieves a staged blob; the MIME type is re-detected from
// content since only the bytes are persisted.
func (s *Store) Get(ctx context.Context, id string) (*simplepublish.Blob, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, simplepublish.ErrAssetNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to read staged blob: %w", err)
	}

	return &simplepublish.Blob{
		Data:     data,
		MimeType: http.DetectContentType(data),
		FileName: id,
	}, nil
}

// Delete removes a staged blob file.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return simplepublish.ErrAssetNotFound
	}
	return err
}

// path maps a local key to its staging file. Keys are generated by Put,
// but filepath.Base guards against traversal through crafted keys.
func (s *Store) path(id string) string {
	return filepath.Join(s.baseDir, filepath.Base(id))
}
