package simplepublish

import (
	"regexp"
	"strings"
	"time"
)

// SEOConfig carries the site identity stamped into share metadata.
type SEOConfig struct {
	SiteName    string
	BaseURL     string
	LogoURL     string
	Locale      string
	TwitterSite string
	// DefaultKeywords are always appended to extracted keywords.
	DefaultKeywords []string
	// DefaultAuthor names the publisher's newsroom when a document has
	// no author.
	DefaultAuthor string
}

// SEOAnalysis is the scored outcome of analyzing a document.
type SEOAnalysis struct {
	Score    int         `json:"score"` // 0-100
	Issues   []SEOIssue  `json:"issues,omitempty"`
	Metadata SEOMetadata `json:"metadata"`
}

// Title/lead/body thresholds used by analysis and validation.
const (
	minTitleLength = 10
	maxTitleLength = 60
	minLeadLength  = 50
	maxLeadLength  = 160
	minBodyWords   = 300
	bonusBodyChars = 500

	idealTitleMin = 50
	idealLeadMin  = 150
	minTagBonus   = 3
)

// AnalyzeSEO detects metadata issues, scores the document and builds
// its optimized share metadata. The document is not modified.
func AnalyzeSEO(doc *ContentDocument, canonicalURL string, cfg SEOConfig, now time.Time) SEOAnalysis {
	var issues []SEOIssue

	titleLen := len([]rune(doc.Title))
	switch {
	case titleLen < minTitleLength:
		issues = append(issues, SEOIssue{
			Severity:   SEOSeverityError,
			Field:      "title",
			Message:    "title is too short",
			Suggestion: "use at least 10 characters",
		})
	case titleLen > maxTitleLength:
		issues = append(issues, SEOIssue{
			Severity:   SEOSeverityWarning,
			Field:      "title",
			Message:    "title is too long for search results",
			Suggestion: "keep the title between 50 and 60 characters",
		})
	}

	leadLen := len([]rune(doc.Lead))
	switch {
	case leadLen < minLeadLength:
		issues = append(issues, SEOIssue{
			Severity:   SEOSeverityError,
			Field:      "lead",
			Message:    "lead is too short",
			Suggestion: "use at least 50 characters",
		})
	case leadLen > maxLeadLength:
		issues = append(issues, SEOIssue{
			Severity:   SEOSeverityWarning,
			Field:      "lead",
			Message:    "lead is too long",
			Suggestion: "keep the lead between 150 and 160 characters",
		})
	}

	if featuredImageURL(doc) == "" {
		issues = append(issues, SEOIssue{
			Severity:   SEOSeverityWarning,
			Field:      "featured_image",
			Message:    "no featured image set",
			Suggestion: "add a featured image for social sharing",
		})
	}

	if countWords(doc.Body) < minBodyWords {
		issues = append(issues, SEOIssue{
			Severity:   SEOSeverityWarning,
			Field:      "body",
			Message:    "body is too short",
			Suggestion: "articles with at least 300 words rank better",
		})
	}

	if doc.Category == "" {
		issues = append(issues, SEOIssue{
			Severity:   SEOSeverityInfo,
			Field:      "category",
			Message:    "no category set",
			Suggestion: "set a category to organize the article",
		})
	}

	return SEOAnalysis{
		Score:    scoreSEO(doc, issues),
		Issues:   issues,
		Metadata: GenerateSEOMetadata(doc, canonicalURL, cfg, now),
	}
}

// scoreSEO starts from 100, deducts 20/10/5 per error/warning/info
// issue, adds small bonuses for hitting the ideal windows, and clamps
// to [0,100].
func scoreSEO(doc *ContentDocument, issues []SEOIssue) int {
	score := 100

	for _, issue := range issues {
		switch issue.Severity {
		case SEOSeverityError:
			score -= 20
		case SEOSeverityWarning:
			score -= 10
		case SEOSeverityInfo:
			score -= 5
		}
	}

	titleLen := len([]rune(doc.Title))
	if titleLen >= idealTitleMin && titleLen <= maxTitleLength {
		score += 5
	}
	leadLen := len([]rune(doc.Lead))
	if leadLen >= idealLeadMin && leadLen <= maxLeadLength {
		score += 5
	}
	if featuredImageURL(doc) != "" {
		score += 5
	}
	if len(doc.Tags) >= minTagBonus {
		score += 5
	}
	if len(doc.Body) >= bonusBodyChars {
		score += 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// GenerateSEOMetadata builds the optimized title, description,
// keywords, Open Graph, Twitter Card and NewsArticle structured data
// for a document.
func GenerateSEOMetadata(doc *ContentDocument, canonicalURL string, cfg SEOConfig, now time.Time) SEOMetadata {
	title := truncateWithEllipsis(doc.Title, maxTitleLength)

	description := doc.Lead
	if description == "" {
		description = doc.Title
	}
	description = truncateWithEllipsis(description, maxLeadLength)

	image := featuredImageURL(doc)
	if image == "" && cfg.BaseURL != "" {
		image = cfg.BaseURL + "/default-og-image.jpg"
	}

	author := doc.Author
	if author == "" {
		author = cfg.DefaultAuthor
	}

	published := doc.CreatedAt
	if published.IsZero() {
		published = now
	}
	modified := doc.UpdatedAt
	if modified.IsZero() {
		modified = published
	}

	keywords := extractKeywords(doc, cfg)

	og := &OpenGraphTags{
		Title:         title,
		Description:   description,
		Image:         image,
		URL:           canonicalURL,
		Type:          "article",
		SiteName:      cfg.SiteName,
		Locale:        cfg.Locale,
		PublishedTime: published.Format(time.RFC3339),
		ModifiedTime:  modified.Format(time.RFC3339),
		Author:        author,
		Section:       doc.Category,
		Tags:          doc.Tags,
	}

	tw := &TwitterCardTags{
		Card:        "summary_large_image",
		Title:       title,
		Description: description,
		Image:       image,
		Site:        cfg.TwitterSite,
	}

	var images []string
	if img := featuredImageURL(doc); img != "" {
		images = append(images, img)
	}

	sd := &NewsArticleSchema{
		Context:       "https://schema.org",
		Type:          "NewsArticle",
		Headline:      title,
		Image:         images,
		DatePublished: published.Format(time.RFC3339),
		DateModified:  modified.Format(time.RFC3339),
		Author:        SchemaPerson{Type: "Person", Name: author},
		Publisher: SchemaPublisher{
			Type: "Organization",
			Name: cfg.SiteName,
			Logo: SchemaLogo{Type: "ImageObject", URL: cfg.LogoURL},
		},
		Description: description,
		ArticleBody: stripHTML(doc.Body),
		Section:     doc.Category,
		Keywords:    strings.Join(keywords, ", "),
	}

	return SEOMetadata{
		Title:          title,
		Description:    description,
		Keywords:       keywords,
		OGTags:         og,
		TwitterTags:    tw,
		StructuredData: sd,
	}
}

// extractKeywords combines tags, city, category and the site defaults,
// deduplicated and capped at 10.
func extractKeywords(doc *ContentDocument, cfg SEOConfig) []string {
	var keywords []string
	keywords = append(keywords, doc.Tags...)
	if doc.City != "" {
		keywords = append(keywords, strings.ToLower(doc.City))
	}
	if doc.Category != "" {
		keywords = append(keywords, strings.ToLower(doc.Category))
	}
	keywords = append(keywords, cfg.DefaultKeywords...)

	seen := make(map[string]bool, len(keywords))
	var out []string
	for _, k := range keywords {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
		if len(out) == 10 {
			break
		}
	}
	return out
}

// featuredImageURL returns the durable featured image URL, falling back
// to the first durable banner image.
func featuredImageURL(doc *ContentDocument) string {
	if doc.FeaturedImage.State == MediaRefRemote {
		return doc.FeaturedImage.URL
	}
	for _, ref := range doc.BannerImages {
		if ref.State == MediaRefRemote {
			return ref.URL
		}
	}
	return ""
}

func truncateWithEllipsis(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

func countWords(s string) int {
	return len(strings.Fields(stripHTML(s)))
}
