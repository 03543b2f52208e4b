package simplepublish

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus is the domain type for document lifecycle states.
type DocumentStatus string

// Document status constants (typed).
const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusPublished DocumentStatus = "published"
	DocumentStatusArchived  DocumentStatus = "archived"
)

// ProcessingStatus marks documents that still wait on out-of-band work.
type ProcessingStatus string

const (
	// ProcessingStatusNone means every media reference is durable.
	ProcessingStatusNone ProcessingStatus = ""
	// ProcessingStatusQueued means at least one video job was accepted by
	// the queued platform and its final URL will be patched out-of-band.
	ProcessingStatusQueued ProcessingStatus = "queued"
)

// BlockKind identifies the shape of a content block.
type BlockKind string

const (
	BlockKindParagraph BlockKind = "paragraph"
	BlockKindHeading   BlockKind = "heading"
	BlockKindQuote     BlockKind = "quote"
	BlockKindList      BlockKind = "list"
	BlockKindImage     BlockKind = "image"
	BlockKindGallery   BlockKind = "gallery"
	BlockKindVideo     BlockKind = "video"
	BlockKindSeparator BlockKind = "separator"
)

// richTextKinds are the block kinds whose text is scanned for inline
// local-reference markers.
var richTextKinds = map[BlockKind]bool{
	BlockKindParagraph: true,
	BlockKindHeading:   true,
	BlockKindQuote:     true,
	BlockKindList:      true,
}

// ProviderHint selects the upload backend for a media reference. It is
// chosen upstream (per block or banner), never inferred from content.
type ProviderHint string

const (
	// ProviderSync routes to the synchronous CDN-style host.
	ProviderSync ProviderHint = "cdn"
	// ProviderQueued routes to the asynchronous queued video platform.
	ProviderQueued ProviderHint = "queued"
)

// VideoMetadata describes a video handed to the queued platform.
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Privacy     string   `json:"privacy,omitempty"` // public, unlisted, private
	CategoryID  string   `json:"category_id,omitempty"`
}

// ContentBlock is one ordered unit of document body content.
type ContentBlock struct {
	ID        string         `json:"id"`
	Kind      BlockKind      `json:"kind"`
	Text      string         `json:"text,omitempty"`    // rich text for paragraph/heading/quote/list
	Media     MediaRef       `json:"media,omitempty"`   // image and video blocks
	Gallery   []MediaRef     `json:"gallery,omitempty"` // gallery blocks, array order preserved
	Provider  ProviderHint   `json:"provider,omitempty"`
	VideoMeta *VideoMetadata `json:"video_meta,omitempty"`
	Settings  map[string]any `json:"settings,omitempty"`
}

// Block settings keys written by the pipeline when a video job is queued.
const (
	SettingQueuedJobID  = "queued_job_id"
	SettingUploadStatus = "upload_status"
	UploadStatusQueued  = "uploading"
)

// DistributionState is the per-channel outcome of social fan-out.
type DistributionState string

const (
	DistributionPending DistributionState = "pending"
	DistributionPosted  DistributionState = "posted"
	DistributionFailed  DistributionState = "failed"
)

// DistributionStatus records the settlement of one social channel.
type DistributionStatus struct {
	Channel string            `json:"channel"`
	State   DistributionState `json:"state"`
	Caption string            `json:"caption,omitempty"` // custom caption, falls back to the lead
}

// SEOIssueSeverity weights an SEO issue for scoring.
type SEOIssueSeverity string

const (
	SEOSeverityError   SEOIssueSeverity = "error"
	SEOSeverityWarning SEOIssueSeverity = "warning"
	SEOSeverityInfo    SEOIssueSeverity = "info"
)

// SEOIssue is one detected problem with a document's metadata.
type SEOIssue struct {
	Severity   SEOIssueSeverity `json:"severity"`
	Field      string           `json:"field"`
	Message    string           `json:"message"`
	Suggestion string           `json:"suggestion,omitempty"`
}

// OpenGraphTags is the Open Graph share metadata for a document.
type OpenGraphTags struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	URL           string   `json:"url"`
	Type          string   `json:"type"`
	SiteName      string   `json:"site_name"`
	Locale        string   `json:"locale"`
	PublishedTime string   `json:"published_time,omitempty"`
	ModifiedTime  string   `json:"modified_time,omitempty"`
	Author        string   `json:"author,omitempty"`
	Section       string   `json:"section,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// TwitterCardTags is the Twitter/X card share metadata for a document.
type TwitterCardTags struct {
	Card        string `json:"card"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Site        string `json:"site,omitempty"`
}

// NewsArticleSchema is the Schema.org NewsArticle structured data object.
type NewsArticleSchema struct {
	Context       string          `json:"@context"`
	Type          string          `json:"@type"`
	Headline      string          `json:"headline"`
	Image         []string        `json:"image"`
	DatePublished string          `json:"datePublished"`
	DateModified  string          `json:"dateModified"`
	Author        SchemaPerson    `json:"author"`
	Publisher     SchemaPublisher `json:"publisher"`
	Description   string          `json:"description"`
	ArticleBody   string          `json:"articleBody"`
	Section       string          `json:"articleSection,omitempty"`
	Keywords      string          `json:"keywords,omitempty"`
}

// SchemaPerson is a Schema.org Person node.
type SchemaPerson struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// SchemaPublisher is a Schema.org Organization node with a logo.
type SchemaPublisher struct {
	Type string     `json:"@type"`
	Name string     `json:"name"`
	Logo SchemaLogo `json:"logo"`
}

// SchemaLogo is a Schema.org ImageObject node.
type SchemaLogo struct {
	Type string `json:"@type"`
	URL  string `json:"url"`
}

// SEOMetadata is the synthesized SEO state of a published document.
type SEOMetadata struct {
	Title          string             `json:"title,omitempty"`
	Description    string             `json:"description,omitempty"`
	Keywords       []string           `json:"keywords,omitempty"`
	OGTags         *OpenGraphTags     `json:"og_tags,omitempty"`
	TwitterTags    *TwitterCardTags   `json:"twitter_tags,omitempty"`
	StructuredData *NewsArticleSchema `json:"structured_data,omitempty"`
	Score          int                `json:"score"` // 0-100
}

// ContentDocument is a structured news document. It is created upstream
// (the editor is out of scope) and handed to the pipeline at publish
// time. The pipeline operates on a working copy; the caller's document
// is replaced only on success.
type ContentDocument struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Lead     string    `json:"lead"`
	Body     string    `json:"body"` // flattened plain-text body, used for validation and SEO
	Category string    `json:"category"`
	City     string    `json:"city"`
	Author   string    `json:"author,omitempty"`
	Tags     []string  `json:"tags,omitempty"`

	Blocks []ContentBlock `json:"blocks,omitempty"`

	BannerImages     []MediaRef     `json:"banner_images,omitempty"`
	BannerVideo      MediaRef       `json:"banner_video,omitempty"`
	BannerProvider   ProviderHint   `json:"banner_provider,omitempty"`
	BannerVideoMeta  *VideoMetadata `json:"banner_video_meta,omitempty"`
	BannerVideoJobID string         `json:"banner_video_job_id,omitempty"`

	// FeaturedImage tracks the first banner image; it is re-pointed to the
	// first durable banner URL after resolution.
	FeaturedImage MediaRef `json:"featured_image,omitempty"`

	Slug         string      `json:"slug,omitempty"`
	CanonicalURL string      `json:"canonical_url,omitempty"`
	SEO          SEOMetadata `json:"seo,omitempty"`

	SocialDistribution []DistributionStatus `json:"social_distribution,omitempty"`

	Status           DocumentStatus   `json:"status"`
	ProcessingStatus ProcessingStatus `json:"processing_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the document. The pipeline clones before
// any mutation so a failed run cannot corrupt the caller's document.
func (d *ContentDocument) Clone() *ContentDocument {
	c := *d

	c.Tags = append([]string(nil), d.Tags...)
	c.BannerImages = append([]MediaRef(nil), d.BannerImages...)
	c.SocialDistribution = append([]DistributionStatus(nil), d.SocialDistribution...)

	if d.BannerVideoMeta != nil {
		meta := *d.BannerVideoMeta
		meta.Tags = append([]string(nil), d.BannerVideoMeta.Tags...)
		c.BannerVideoMeta = &meta
	}

	if d.Blocks != nil {
		c.Blocks = make([]ContentBlock, len(d.Blocks))
		for i, b := range d.Blocks {
			nb := b
			nb.Gallery = append([]MediaRef(nil), b.Gallery...)
			if b.VideoMeta != nil {
				meta := *b.VideoMeta
				meta.Tags = append([]string(nil), b.VideoMeta.Tags...)
				nb.VideoMeta = &meta
			}
			if b.Settings != nil {
				nb.Settings = make(map[string]any, len(b.Settings))
				for k, v := range b.Settings {
					nb.Settings[k] = v
				}
			}
			c.Blocks[i] = nb
		}
	}

	if d.SEO.Keywords != nil {
		c.SEO.Keywords = append([]string(nil), d.SEO.Keywords...)
	}
	if d.SEO.OGTags != nil {
		og := *d.SEO.OGTags
		og.Tags = append([]string(nil), d.SEO.OGTags.Tags...)
		c.SEO.OGTags = &og
	}
	if d.SEO.TwitterTags != nil {
		tw := *d.SEO.TwitterTags
		c.SEO.TwitterTags = &tw
	}
	if d.SEO.StructuredData != nil {
		sd := *d.SEO.StructuredData
		sd.Image = append([]string(nil), d.SEO.StructuredData.Image...)
		c.SEO.StructuredData = &sd
	}

	return &c
}

// UploadTask is the transient unit of work for one unique pending media
// reference. Tasks are created by the walker and destroyed after
// resolution.
type UploadTask struct {
	Ref         MediaRef       // always a Local ref
	LogicalPath string         // e.g. "banner[0]", "block[3].gallery[2]"
	Provider    ProviderHint   // explicit routing, never inferred
	Folder      string         // upload sub-context: banners, content, inline, gallery, videos
	VideoMeta   *VideoMetadata // set for queued-platform tasks
}

// ProgressState is a snapshot of resolution progress. The invariant
// 0 <= Completed <= Total holds and percent is non-decreasing within a
// single run.
type ProgressState struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Message   string `json:"message"`
}

// Percent returns the integer completion percentage. An empty run is
// complete by definition.
func (p ProgressState) Percent() int {
	if p.Total == 0 {
		return 100
	}
	return p.Completed * 100 / p.Total
}
