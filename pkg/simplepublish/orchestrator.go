package simplepublish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the upload worker pool when no explicit
// limit is configured.
const DefaultConcurrency = 3

// DefaultQueuedPlaceholderBase prefixes synthesized placeholder URLs
// for queued video jobs.
const DefaultQueuedPlaceholderBase = "https://www.youtube.com/embed"

const uploadContextAutoSync = "auto_sync"

// RetryPolicy controls retries of transient upload failures. Only
// failures classified as network errors are retried; auth and quota
// failures always fail immediately. The zero value disables retries.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) enabled() bool { return p.MaxRetries > 0 }

// orchestrator drives the walker and the resolvers over one document.
type orchestrator struct {
	assets          AssetStore
	sync            SyncResolver
	queued          QueuedResolver
	events          EventSink
	concurrency     int
	retry           RetryPolicy
	placeholderBase string
	now             func() time.Time
}

// resolve discovers pending references, uploads each unique one under a
// bounded worker pool, rewrites the document in place and purges the
// asset store. Failure policy is fail-fast: the first task error aborts
// the run, the document is left unrewritten and no store entry is
// deleted, so the run is safely retryable.
func (o *orchestrator) resolve(ctx context.Context, doc *ContentDocument, onProgress ProgressFunc) error {
	plan, err := WalkDocument(doc)
	if err != nil {
		return err
	}

	total := len(plan.Tasks)
	if total == 0 {
		if onProgress != nil {
			onProgress(100, "no pending media", 0, 0)
		}
		return nil
	}

	var (
		mu        sync.Mutex
		completed int
		resolved  = make(map[string]MediaRef, total)
	)
	report := func(msg string) {
		if onProgress == nil {
			return
		}
		onProgress(completed*100/total, msg, completed, total)
	}

	mu.Lock()
	report(fmt.Sprintf("uploading %d pending assets", total))
	mu.Unlock()

	folderDate := o.now().Format("2006-01-02")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, task := range plan.Tasks {
		g.Go(func() error {
			// Cancellation checkpoint before any provider traffic.
			if err := gctx.Err(); err != nil {
				return err
			}

			o.events.UploadStarted(gctx, task)
			ref, err := o.resolveTask(gctx, doc, task, folderDate)
			if err != nil {
				terr := &TaskError{LogicalPath: task.LogicalPath, LocalID: task.Ref.LocalID, Err: err}
				o.events.UploadFailed(gctx, task, terr)
				return terr
			}
			o.events.UploadCompleted(gctx, task, ref)

			mu.Lock()
			resolved[task.Ref.LocalID] = ref
			completed++
			report(fmt.Sprintf("uploaded %s %d/%d", task.Folder, completed, total))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ApplyResolutions(doc, resolved)

	// Confirmed-durable entries are no longer needed; cleanup is best
	// effort because the uploads themselves already succeeded.
	for id := range resolved {
		_ = o.assets.Delete(ctx, id)
	}

	if onProgress != nil {
		onProgress(100, "media resolution complete", total, total)
	}
	return nil
}

// resolveTask runs one task against the resolver selected by its
// provider hint.
func (o *orchestrator) resolveTask(ctx context.Context, doc *ContentDocument, task UploadTask, folderDate string) (MediaRef, error) {
	blob, err := o.assets.Get(ctx, task.Ref.LocalID)
	if err != nil {
		return MediaRef{}, err
	}

	folder := uploadFolder(doc.Author, task.Folder, folderDate)

	switch task.Provider {
	case ProviderQueued:
		if o.queued == nil {
			return MediaRef{}, ErrNoQueuedResolver
		}
		jobID, err := o.queued.Enqueue(ctx, blob, *task.VideoMeta, doc.ID.String())
		if err != nil {
			return MediaRef{}, err
		}
		placeholder := fmt.Sprintf("%s/%s%s", o.placeholderBase, QueuedRefMarker, jobID)
		return QueuedRef(jobID, placeholder), nil

	default:
		if o.sync == nil {
			return MediaRef{}, ErrNoSyncResolver
		}
		url, err := o.uploadSync(ctx, blob, folder)
		if err != nil {
			return MediaRef{}, err
		}
		return RemoteRef(url), nil
	}
}

// uploadSync calls the sync resolver, retrying with exponential backoff
// when the policy allows it and the failure is transient.
func (o *orchestrator) uploadSync(ctx context.Context, blob *Blob, folder string) (string, error) {
	if !o.retry.enabled() {
		return o.sync.Upload(ctx, blob, folder, uploadContextAutoSync)
	}

	var url string
	operation := func() error {
		u, err := o.sync.Upload(ctx, blob, folder, uploadContextAutoSync)
		if err != nil {
			var perr *ProviderError
			if errors.As(err, &perr) && perr.Retryable() {
				return err
			}
			return backoff.Permanent(err)
		}
		url = u
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	if o.retry.InitialInterval > 0 {
		policy.InitialInterval = o.retry.InitialInterval
	}
	if o.retry.MaxInterval > 0 {
		policy.MaxInterval = o.retry.MaxInterval
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(o.retry.MaxRetries)), ctx))
	return url, err
}

// uploadFolder composes the provider folder path as
// <author>/<context>/<date>, with the author sanitized to a safe path
// segment.
func uploadFolder(author, sub, date string) string {
	segment := sanitizePathSegment(author)
	if segment == "" {
		segment = "anonymous"
	}
	return segment + "/" + sub + "/" + date
}

func sanitizePathSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
