package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// Repository is an in-memory implementation of the
// simplepublish.PersistenceStore interface.
type Repository struct {
	mu    sync.RWMutex
	docs  map[uuid.UUID]*simplepublish.ContentDocument
	slugs map[string]uuid.UUID
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		docs:  make(map[uuid.UUID]*simplepublish.ContentDocument),
		slugs: make(map[string]uuid.UUID),
	}
}

// Upsert stores a deep copy of the document and returns another copy,
// so callers can never mutate repository state through a shared pointer.
func (r *Repository) Upsert(ctx context.Context, doc *simplepublish.ContentDocument) (*simplepublish.ContentDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := doc.Clone()

	if previous, exists := r.docs[stored.ID]; exists && previous.Slug != stored.Slug {
		delete(r.slugs, previous.Slug)
	}

	r.docs[stored.ID] = stored
	if stored.Slug != "" {
		r.slugs[stored.Slug] = stored.ID
	}
	return stored.Clone(), nil
}

// ExistsBySlug reports whether any stored document owns the slug.
func (r *Repository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.slugs[slug]
	return exists, nil
}

// GetDocument fetches a stored document by ID.
func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*simplepublish.ContentDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.docs[id]
	if !exists {
		return nil, simplepublish.ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

// Len reports the number of stored documents.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
