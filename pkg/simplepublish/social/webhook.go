package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// DefaultChannels is the built-in social channel roster.
var DefaultChannels = []string{
	"instagram_feed",
	"facebook",
	"whatsapp",
	"linkedin",
	"tiktok",
	"youtube",
}

// Config options for the webhook distributor
type Config struct {
	Channels []string      // Channels to fan out to (default: DefaultChannels)
	Timeout  time.Duration // Per-channel HTTP timeout (default: 15s)
}

// Distributor fans a published document out to social channels, one
// webhook POST per channel, and implements the
// simplepublish.SocialDistributor interface. A failed channel is
// recorded and skipped; it never fails the publication.
type Distributor struct {
	channels []string
	client   *http.Client
}

// New creates a new webhook distributor
func New(config Config) *Distributor {
	channels := config.Channels
	if len(channels) == 0 {
		channels = DefaultChannels
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Distributor{
		channels: channels,
		client:   &http.Client{Timeout: timeout},
	}
}

// channelPayload is the body posted to the webhook for one channel.
type channelPayload struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	MediaType      string `json:"media_type"`
	MediaURL       string `json:"media_url,omitempty"`
	Date           string `json:"date"`
	Author         string `json:"author"`
	Category       string `json:"category"`
	Type           string `json:"type"`
	TargetPlatform string `json:"target_platform"`
	Text           string `json:"text"`
}

// Dispatch posts the document to each configured channel in order,
// reporting per-channel settlement through onStatus.
func (d *Distributor) Dispatch(ctx context.Context, doc *simplepublish.ContentDocument, webhookURL string, onStatus simplepublish.ChannelStatusFunc) error {
	mediaType := "image"
	mediaURL := doc.FeaturedImage.String()
	if !doc.BannerVideo.IsZero() {
		mediaType = "video"
		mediaURL = doc.BannerVideo.String()
	}

	base := channelPayload{
		ID:        doc.ID.String(),
		Title:     doc.Title,
		URL:       doc.CanonicalURL,
		MediaType: mediaType,
		MediaURL:  mediaURL,
		Date:      time.Now().UTC().Format(time.RFC3339),
		Author:    doc.Author,
		Category:  doc.Category,
		Type:      "news_link",
	}

	for _, channel := range d.channels {
		if err := ctx.Err(); err != nil {
			return err
		}
		if onStatus != nil {
			onStatus(channel, simplepublish.DistributionPending)
		}

		payload := base
		payload.TargetPlatform = channel
		payload.Text = captionFor(doc, channel)

		state := simplepublish.DistributionPosted
		if err := d.post(ctx, webhookURL, payload); err != nil {
			state = simplepublish.DistributionFailed
		}
		if onStatus != nil {
			onStatus(channel, state)
		}
	}
	return nil
}

func (d *Distributor) post(ctx context.Context, webhookURL string, payload channelPayload) error {
	if !strings.HasPrefix(webhookURL, "http") {
		return fmt.Errorf("invalid webhook url %q", webhookURL)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// captionFor picks the custom caption for a channel, falling back to
// the document lead.
func captionFor(doc *simplepublish.ContentDocument, channel string) string {
	for _, s := range doc.SocialDistribution {
		if s.Channel == channel && s.Caption != "" {
			return s.Caption
		}
	}
	return doc.Lead
}
