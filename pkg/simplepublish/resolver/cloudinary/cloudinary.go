package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/simple-publish/pkg/simplepublish"
)

const providerName = "cloudinary"

// DefaultAPIBase is the public Cloudinary upload API endpoint base.
const DefaultAPIBase = "https://api.cloudinary.com/v1_1"

// Config options for the Cloudinary resolver. Uploads are unsigned:
// the preset, not an API secret, authorizes them, so a misconfigured
// preset surfaces as an auth failure.
type Config struct {
	CloudName    string
	UploadPreset string
	APIBase      string        // Optional override, e.g. for tests
	Timeout      time.Duration // Per-upload HTTP timeout (default: 60s)
}

// Resolver uploads blobs to Cloudinary via the unsigned upload API and
// implements the simplepublish.SyncResolver interface.
type Resolver struct {
	config Config
	client *http.Client
}

// New creates a new Cloudinary resolver
func New(config Config) (*Resolver, error) {
	if config.CloudName == "" {
		return nil, errors.New("cloud name is required")
	}
	if config.UploadPreset == "" {
		return nil, errors.New("upload preset is required")
	}
	if config.APIBase == "" {
		config.APIBase = DefaultAPIBase
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	return &Resolver{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends one blob to the unsigned upload endpoint and returns the
// delivered HTTPS URL. Failures are classified into ProviderError kinds
// from the HTTP status and the API error message.
func (r *Resolver) Upload(ctx context.Context, blob *simplepublish.Blob, folder, uploadContext string) (string, error) {
	resource := "image"
	if strings.HasPrefix(blob.MimeType, "video/") {
		resource = "video"
	}
	endpoint := fmt.Sprintf("%s/%s/%s/upload", r.config.APIBase, r.config.CloudName, resource)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName(blob))
	if err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown, err, "")
	}
	if _, err := part.Write(blob.Data); err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown, err, "")
	}
	_ = writer.WriteField("upload_preset", r.config.UploadPreset)
	_ = writer.WriteField("folder", strings.ToLower(folder))
	_ = writer.WriteField("context", "source="+uploadContext)
	if err := writer.Close(); err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown, err, "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown, err, "")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		// Transport-level failure; the only retryable class.
		return "", r.wrapErr(simplepublish.ProviderErrorNetwork, err, "")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorNetwork, err, "")
	}

	var parsed uploadResponse
	if err := json.Unmarshal(payload, &parsed); err != nil && resp.StatusCode < 300 {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown,
			fmt.Errorf("unexpected response: %w", err), "")
	}

	if resp.StatusCode >= 300 {
		return "", r.classify(resp.StatusCode, parsed.Error.Message)
	}

	if parsed.SecureURL != "" {
		return parsed.SecureURL, nil
	}
	if parsed.URL != "" {
		return parsed.URL, nil
	}
	return "", r.wrapErr(simplepublish.ProviderErrorUnknown,
		errors.New("response carried no delivery url"), "")
}

// classify maps an upload API rejection onto a ProviderError kind.
// Preset and credential problems are auth, size and plan limits are
// quota, everything else stays unknown.
func (r *Resolver) classify(status int, message string) error {
	lower := strings.ToLower(message)
	apiErr := fmt.Errorf("status %d: %s", status, message)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(lower, "preset"):
		hint := fmt.Sprintf("check that upload preset %q exists and allows unsigned uploads", r.config.UploadPreset)
		return r.wrapErr(simplepublish.ProviderErrorAuth, apiErr, hint)

	case status == http.StatusNotFound || strings.Contains(lower, "cloud name"):
		hint := fmt.Sprintf("check that cloud name %q is correct and the account is active", r.config.CloudName)
		return r.wrapErr(simplepublish.ProviderErrorAuth, apiErr, hint)

	case strings.Contains(lower, "file size") || strings.Contains(lower, "too large") ||
		status == http.StatusRequestEntityTooLarge:
		return r.wrapErr(simplepublish.ProviderErrorQuota, apiErr, "")

	case status >= 500:
		return r.wrapErr(simplepublish.ProviderErrorNetwork, apiErr, "")

	default:
		return r.wrapErr(simplepublish.ProviderErrorUnknown, apiErr, "")
	}
}

func (r *Resolver) wrapErr(kind simplepublish.ProviderErrorKind, err error, hint string) error {
	return &simplepublish.ProviderError{
		Provider: providerName,
		Kind:     kind,
		Op:       "upload",
		Hint:     hint,
		Err:      err,
	}
}

func fileName(blob *simplepublish.Blob) string {
	if blob.FileName != "" {
		return blob.FileName
	}
	return "asset"
}
