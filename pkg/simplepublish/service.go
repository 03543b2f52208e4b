package simplepublish

import (
	"context"

	"github.com/google/uuid"
)

// Service is the publication entry point. One call drives one run; the
// caller's document is replaced only when the run succeeds, so a failed
// run can always be retried against unchanged input.
type Service interface {
	// Publish runs the full pipeline: validate, resolve assets, SEO
	// synthesis and slug assignment, optional social fan-out, persist.
	// On success the caller's document is updated to the stored form,
	// which is also returned.
	Publish(ctx context.Context, doc *ContentDocument, onProgress ProgressFunc) (*ContentDocument, error)

	// SaveDraft resolves pending assets and persists without SEO, slug
	// or social work.
	SaveDraft(ctx context.Context, doc *ContentDocument, onProgress ProgressFunc) (*ContentDocument, error)

	// ResolveAssets runs only the asset resolution stage and returns the
	// resolved copy. The input document is never modified.
	ResolveAssets(ctx context.Context, doc *ContentDocument, onProgress ProgressFunc) (*ContentDocument, error)

	// ValidateDocument checks publication completeness without mutating
	// or persisting anything.
	ValidateDocument(doc *ContentDocument) error

	// GetDocument fetches a stored document.
	GetDocument(ctx context.Context, id uuid.UUID) (*ContentDocument, error)
}
