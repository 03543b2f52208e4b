package simplepublish

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Pipeline stage names, used in PipelineError.
const (
	StageValidate = "validate"
	StageResolve  = "resolve"
	StageSEO      = "seo"
	StageSocial   = "social"
	StagePersist  = "persist"
)

// Progress ceilings per pipeline stage.
const (
	progressResolveEnd = 70
	progressSEOStart   = 75
	progressSEOEnd     = 85
	progressSocialEnd  = 90
	progressPersist    = 95
	progressDone       = 100
)

// Validation thresholds for publication.
const (
	validateMinTitle = 10
	validateMinLead  = 50
	validateMinBody  = 100
)

// pipeline implements the Service interface.
type pipeline struct {
	orchestrator orchestrator
	store        PersistenceStore
	distributor  SocialDistributor
	events       EventSink
	seo          SEOConfig
	webhookURL   string
	enableSocial bool
	now          func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*pipeline)

// WithAssetStore sets the local store of staged blobs.
func WithAssetStore(store AssetStore) Option {
	return func(p *pipeline) { p.orchestrator.assets = store }
}

// WithSyncResolver sets the synchronous CDN-style upload backend.
func WithSyncResolver(r SyncResolver) Option {
	return func(p *pipeline) { p.orchestrator.sync = r }
}

// WithQueuedResolver sets the asynchronous video platform backend.
func WithQueuedResolver(r QueuedResolver) Option {
	return func(p *pipeline) { p.orchestrator.queued = r }
}

// WithPersistenceStore sets the durable document store.
func WithPersistenceStore(store PersistenceStore) Option {
	return func(p *pipeline) { p.store = store }
}

// WithSocialDistributor enables the social fan-out stage.
func WithSocialDistributor(d SocialDistributor, webhookURL string) Option {
	return func(p *pipeline) {
		p.distributor = d
		p.webhookURL = webhookURL
		p.enableSocial = d != nil
	}
}

// WithEventSink sets the lifecycle event sink.
func WithEventSink(sink EventSink) Option {
	return func(p *pipeline) { p.events = sink }
}

// WithConcurrency bounds the upload worker pool.
func WithConcurrency(n int) Option {
	return func(p *pipeline) {
		if n > 0 {
			p.orchestrator.concurrency = n
		}
	}
}

// WithRetryPolicy enables retry with exponential backoff for transient
// network failures during uploads.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *pipeline) { p.orchestrator.retry = policy }
}

// WithSEOConfig sets the site identity used for SEO synthesis.
func WithSEOConfig(cfg SEOConfig) Option {
	return func(p *pipeline) { p.seo = cfg }
}

// WithQueuedPlaceholderBase overrides the URL base of synthesized
// queued-video placeholders.
func WithQueuedPlaceholderBase(base string) Option {
	return func(p *pipeline) { p.orchestrator.placeholderBase = base }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(p *pipeline) {
		p.now = now
		p.orchestrator.now = now
	}
}

// New creates a new publication service with the given options.
func New(options ...Option) (Service, error) {
	p := &pipeline{
		events: NewNoopEventSink(),
		now:    time.Now,
	}
	p.orchestrator.concurrency = DefaultConcurrency
	p.orchestrator.placeholderBase = DefaultQueuedPlaceholderBase
	p.orchestrator.now = time.Now

	for _, option := range options {
		option(p)
	}
	p.orchestrator.events = p.events

	if p.store == nil {
		return nil, ErrPersistenceRequired
	}
	if p.orchestrator.assets == nil {
		return nil, fmt.Errorf("asset store is required")
	}

	return p, nil
}

// progressTracker clamps reported percentages so progress is
// non-decreasing within one run.
type progressTracker struct {
	fn   ProgressFunc
	last int
}

func (t *progressTracker) report(percent int, msg string, current, total int) {
	if percent < t.last {
		percent = t.last
	}
	t.last = percent
	if t.fn != nil {
		t.fn(percent, msg, current, total)
	}
}

func (p *pipeline) Publish(ctx context.Context, doc *ContentDocument, onProgress ProgressFunc) (*ContentDocument, error) {
	progress := &progressTracker{fn: onProgress}
	work := doc.Clone()

	// Stage 1: validation. Terminal on failure; nothing has been mutated.
	progress.report(0, "validating content", 0, 0)
	if err := p.ValidateDocument(work); err != nil {
		return nil, &PipelineError{Stage: StageValidate, Err: err}
	}

	// Stage 2: asset resolution, owning the 0-70% range.
	if err := p.orchestrator.resolve(ctx, work, scaleProgress(progress, progressResolveEnd)); err != nil {
		return nil, &PipelineError{Stage: StageResolve, Err: err}
	}

	// Stage 3: SEO synthesis and slug assignment.
	progress.report(progressSEOStart, "optimizing for search", 0, 0)
	if err := p.applySEO(ctx, work); err != nil {
		return nil, &PipelineError{Stage: StageSEO, Err: err}
	}
	progress.report(progressSEOEnd, fmt.Sprintf("seo score %d/100", work.SEO.Score), 0, 0)

	// Stage 4: social fan-out (optional).
	if p.enableSocial {
		progress.report(progressSocialEnd, "distributing to social channels", 0, 0)
		if err := p.dispatchSocial(ctx, work); err != nil {
			return nil, &PipelineError{Stage: StageSocial, Err: err}
		}
	}

	// Stage 5: persistence, the only externally visible effect.
	progress.report(progressPersist, "saving publication", 0, 0)
	work.Status = DocumentStatusPublished
	stored, err := p.persist(ctx, work)
	if err != nil {
		return nil, &PipelineError{Stage: StagePersist, Err: err}
	}
	p.events.DocumentPublished(ctx, stored)
	progress.report(progressDone, "published", 0, 0)

	*doc = *stored
	return stored, nil
}

func (p *pipeline) SaveDraft(ctx context.Context, doc *ContentDocument, onProgress ProgressFunc) (*ContentDocument, error) {
	progress := &progressTracker{fn: onProgress}
	work := doc.Clone()

	if err := p.orchestrator.resolve(ctx, work, scaleProgress(progress, progressSocialEnd)); err != nil {
		return nil, &PipelineError{Stage: StageResolve, Err: err}
	}

	progress.report(progressPersist, "saving draft", 0, 0)
	if work.Status == "" {
		work.Status = DocumentStatusDraft
	}
	stored, err := p.persist(ctx, work)
	if err != nil {
		return nil, &PipelineError{Stage: StagePersist, Err: err}
	}
	progress.report(progressDone, "draft saved", 0, 0)

	*doc = *stored
	return stored, nil
}

func (p *pipeline) ResolveAssets(ctx context.Context, doc *ContentDocument, onProgress ProgressFunc) (*ContentDocument, error) {
	progress := &progressTracker{fn: onProgress}
	work := doc.Clone()
	if err := p.orchestrator.resolve(ctx, work, progress.report); err != nil {
		return nil, err
	}
	return work, nil
}

// ValidateDocument rejects documents too incomplete to publish.
func (p *pipeline) ValidateDocument(doc *ContentDocument) error {
	var issues []string
	if len([]rune(doc.Title)) < validateMinTitle {
		issues = append(issues, fmt.Sprintf("title must be at least %d characters", validateMinTitle))
	}
	if len([]rune(doc.Lead)) < validateMinLead {
		issues = append(issues, fmt.Sprintf("lead must be at least %d characters", validateMinLead))
	}
	if len([]rune(doc.Body)) < validateMinBody {
		issues = append(issues, fmt.Sprintf("body must be at least %d characters", validateMinBody))
	}
	if doc.Category == "" {
		issues = append(issues, "category is required")
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func (p *pipeline) GetDocument(ctx context.Context, id uuid.UUID) (*ContentDocument, error) {
	return p.store.GetDocument(ctx, id)
}

// applySEO assigns the unique slug and canonical URL, then synthesizes
// SEO metadata onto the working copy.
func (p *pipeline) applySEO(ctx context.Context, work *ContentDocument) error {
	now := p.now()

	if work.Slug == "" {
		slug, err := UniqueSlug(ctx, BaseSlug(work, now), p.store.ExistsBySlug)
		if err != nil {
			return err
		}
		work.Slug = slug
	}
	work.CanonicalURL = p.seo.BaseURL + "/news/" + work.Slug

	analysis := AnalyzeSEO(work, work.CanonicalURL, p.seo, now)
	work.SEO = analysis.Metadata
	work.SEO.Score = analysis.Score
	return nil
}

// dispatchSocial fans the document out and records per-channel status
// as each channel settles.
func (p *pipeline) dispatchSocial(ctx context.Context, work *ContentDocument) error {
	return p.distributor.Dispatch(ctx, work, p.webhookURL, func(channel string, state DistributionState) {
		for i := range work.SocialDistribution {
			if work.SocialDistribution[i].Channel == channel {
				work.SocialDistribution[i].State = state
				return
			}
		}
		work.SocialDistribution = append(work.SocialDistribution, DistributionStatus{Channel: channel, State: state})
	})
}

// persist stamps timestamps and ID, then performs the single durable
// write.
func (p *pipeline) persist(ctx context.Context, work *ContentDocument) (*ContentDocument, error) {
	now := p.now()
	if work.ID == uuid.Nil {
		work.ID = uuid.New()
	}
	if work.CreatedAt.IsZero() {
		work.CreatedAt = now
	}
	work.UpdatedAt = now
	return p.store.Upsert(ctx, work)
}

// scaleProgress maps a stage-local 0-100 progress stream onto the
// pipeline range ending at ceiling.
func scaleProgress(t *progressTracker, ceiling int) ProgressFunc {
	return func(percent int, msg string, current, total int) {
		t.report(percent*ceiling/100, msg, current, total)
	}
}
