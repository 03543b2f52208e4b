package simplepublish

import (
	"context"

	"github.com/google/uuid"
)

// Blob is a staged binary asset.
type Blob struct {
	Data     []byte
	MimeType string
	FileName string
}

// AssetStore is the keyed cache of not-yet-durable blobs. Entries are
// deleted only after the referencing MediaRef is confirmed durable.
type AssetStore interface {
	// Put stages a blob and returns its generated local reference key
	// ("local_<token>").
	Put(ctx context.Context, blob Blob) (string, error)

	// Get retrieves a staged blob by key. Returns ErrAssetNotFound when
	// the key is unknown.
	Get(ctx context.Context, id string) (*Blob, error)

	// Delete removes a staged blob. Deleting an unknown key is an error.
	Delete(ctx context.Context, id string) error
}

// SyncResolver uploads one blob to the synchronous CDN-style host and
// blocks until the host confirms storage. Failures are classified into
// ProviderError kinds from response signals.
type SyncResolver interface {
	Upload(ctx context.Context, blob *Blob, folder, uploadContext string) (string, error)
}

// QueuedResolver hands one blob to the asynchronous video platform. It
// returns as soon as the platform accepts the job; the final URL is
// delivered out-of-band by an external process.
type QueuedResolver interface {
	Enqueue(ctx context.Context, blob *Blob, meta VideoMetadata, ownerDocID string) (string, error)
}

// PersistenceStore is the sole durable write path for documents.
type PersistenceStore interface {
	// Upsert stores the document and returns the stored form.
	Upsert(ctx context.Context, doc *ContentDocument) (*ContentDocument, error)

	// ExistsBySlug reports whether a document already owns the slug.
	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	// GetDocument fetches a stored document by ID.
	GetDocument(ctx context.Context, id uuid.UUID) (*ContentDocument, error)
}

// ChannelStatusFunc is invoked once per social channel as it settles.
type ChannelStatusFunc func(channel string, state DistributionState)

// SocialDistributor fans a published document out to social channels.
type SocialDistributor interface {
	Dispatch(ctx context.Context, doc *ContentDocument, webhookURL string, onStatus ChannelStatusFunc) error
}

// ProgressFunc receives monotonic progress within one run. Percent is
// non-decreasing; current and total count resolved upload tasks.
type ProgressFunc func(percent int, message string, current, total int)

// EventSink observes pipeline lifecycle events. It replaces the ambient
// broadcast channel the upload flow historically leaned on: sinks are
// passed in explicitly and default to a no-op. Sink errors are never
// allowed to fail the run.
type EventSink interface {
	// UploadStarted fires before a task is handed to its resolver.
	UploadStarted(ctx context.Context, task UploadTask)

	// UploadCompleted fires after a task resolved, including tasks that
	// completed before a later task failed the run.
	UploadCompleted(ctx context.Context, task UploadTask, resolved MediaRef)

	// UploadFailed fires when a task fails after any retries.
	UploadFailed(ctx context.Context, task UploadTask, err error)

	// DocumentPublished fires after the persistence stage commits.
	DocumentPublished(ctx context.Context, doc *ContentDocument)
}
