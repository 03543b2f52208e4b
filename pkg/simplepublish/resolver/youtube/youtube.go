package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/tendant/simple-publish/pkg/simplepublish"
)

const providerName = "youtube"

// Config options for the queued YouTube resolver. Endpoint is the
// ingest URL of the upload worker that owns the actual platform
// session; this resolver only hands the job off.
type Config struct {
	Endpoint string
	APIKey   string        // Optional bearer token for the worker
	Timeout  time.Duration // Per-enqueue HTTP timeout (default: 30s)
}

// Resolver enqueues video uploads with an out-of-process worker and
// implements the simplepublish.QueuedResolver interface. Enqueue
// returns as soon as the worker accepts the job; the final video URL is
// reconciled later by whoever watches the worker.
type Resolver struct {
	config Config
	client *http.Client
}

// New creates a new queued YouTube resolver
func New(config Config) (*Resolver, error) {
	if config.Endpoint == "" {
		return nil, errors.New("worker endpoint is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Resolver{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

type enqueueResponse struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

// Enqueue hands one video blob and its platform metadata to the worker
// and returns the accepted job ID.
func (r *Resolver) Enqueue(ctx context.Context, blob *simplepublish.Blob, meta simplepublish.VideoMetadata, ownerDocID string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaJSON, err := json.Marshal(struct {
		simplepublish.VideoMetadata
		OwnerDocID string `json:"owner_doc_id"`
	}{VideoMetadata: meta, OwnerDocID: ownerDocID})
	if err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown, err, "")
	}
	_ = writer.WriteField("metadata", string(metaJSON))

	part, err := writer.CreateFormFile("video", videoFileName(blob))
	if err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown, err, "")
	}
	if _, err := part.Write(blob.Data); err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown, err, "")
	}
	if err := writer.Close(); err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown, err, "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.Endpoint, &body)
	if err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown, err, "")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if r.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.config.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorNetwork, err, "")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", r.wrapErr(simplepublish.ProviderErrorNetwork, err, "")
	}

	var parsed enqueueResponse
	_ = json.Unmarshal(payload, &parsed)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", r.wrapErr(simplepublish.ProviderErrorAuth,
			fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Error),
			"check the worker API key")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestEntityTooLarge:
		return "", r.wrapErr(simplepublish.ProviderErrorQuota,
			fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Error), "")
	case resp.StatusCode >= 500:
		return "", r.wrapErr(simplepublish.ProviderErrorNetwork,
			fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Error), "")
	case resp.StatusCode >= 300:
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown,
			fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Error), "")
	}

	if parsed.JobID == "" {
		return "", r.wrapErr(simplepublish.ProviderErrorUnknown,
			errors.New("worker accepted the upload but returned no job id"), "")
	}
	return parsed.JobID, nil
}

func (r *Resolver) wrapErr(kind simplepublish.ProviderErrorKind, err error, hint string) error {
	return &simplepublish.ProviderError{
		Provider: providerName,
		Kind:     kind,
		Op:       "enqueue",
		Hint:     hint,
		Err:      err,
	}
}

func videoFileName(blob *simplepublish.Blob) string {
	if blob.FileName != "" {
		return blob.FileName
	}
	return "video"
}
