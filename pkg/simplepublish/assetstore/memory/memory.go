package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// Store is an in-memory implementation of the simplepublish.AssetStore
// interface.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]simplepublish.Blob
}

// New creates a new in-memory asset store
func New() *Store {
	return &Store{blobs: make(map[string]simplepublish.Blob)}
}

// Put stages a blob under a freshly generated local key.
func (s *Store) Put(ctx context.Context, blob simplepublish.Blob) (string, error) {
	id := simplepublish.LocalRefPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[id] = blob
	return id, nil
}

// Get retrieves a staged blob by key.
func (s *Store) Get(ctx context.Context, id string) (*simplepublish.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, exists := s.blobs[id]
	if !exists {
		return nil, simplepublish.ErrAssetNotFound
	}
	return &blob, nil
}

// Delete removes a staged blob.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blobs[id]; !exists {
		return simplepublish.ErrAssetNotFound
	}
	delete(s.blobs, id)
	return nil
}

// Len reports the number of staged blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
