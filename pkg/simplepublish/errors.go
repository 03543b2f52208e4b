package simplepublish

import (
	"errors"
	"fmt"
	"strings"
)

// Error types
var (
	// ErrDocumentNotFound indicates a document was not found
	ErrDocumentNotFound = errors.New("document not found")

	// ErrAssetNotFound indicates a staged asset was not found in the local store
	ErrAssetNotFound = errors.New("asset not found")

	// ErrNoSyncResolver indicates a task required the sync host but none is configured
	ErrNoSyncResolver = errors.New("no sync resolver configured")

	// ErrNoQueuedResolver indicates a task required the queued platform but none is configured
	ErrNoQueuedResolver = errors.New("no queued resolver configured")

	// ErrMissingVideoMetadata indicates a queued video task carried no platform metadata
	ErrMissingVideoMetadata = errors.New("video metadata is required for queued uploads")

	// ErrPersistenceRequired indicates the pipeline was built without a persistence store
	ErrPersistenceRequired = errors.New("persistence store is required")
)

// ProviderErrorKind classifies upload provider failures.
type ProviderErrorKind string

const (
	// ProviderErrorAuth covers bad credentials or unsigned-preset
	// misconfiguration. Fatal; never retried.
	ProviderErrorAuth ProviderErrorKind = "auth"
	// ProviderErrorQuota covers size and plan limits. Fatal for the run.
	ProviderErrorQuota ProviderErrorKind = "quota"
	// ProviderErrorNetwork covers transient transport failures. The only
	// kind eligible for retry.
	ProviderErrorNetwork ProviderErrorKind = "network"
	// ProviderErrorUnknown covers everything the response signals do not
	// classify.
	ProviderErrorUnknown ProviderErrorKind = "unknown"
)

// ProviderError represents a failed interaction with an upload provider.
type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Op       string
	Hint     string // remediation hint, set for auth errors
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s: %s failed (%s): %v", e.Provider, e.Op, e.Kind, e.Err)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient. Only network
// errors qualify; auth and quota failures never do.
func (e *ProviderError) Retryable() bool {
	return e.Kind == ProviderErrorNetwork
}

// ValidationError reports incomplete content. It is terminal and never
// retried; no mutation has occurred when it is returned.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "document validation failed: " + strings.Join(e.Issues, "; ")
}

// TaskError represents a failed upload task inside a resolution run.
type TaskError struct {
	LogicalPath string
	LocalID     string
	Err         error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("upload task %s (%s) failed: %v", e.LogicalPath, e.LocalID, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// PipelineError wraps the stage at which a publication run halted.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("publication stage %s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// UserMessage derives the single human-readable message for a failed
// run by classifying the deepest error.
func UserMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return "content is incomplete: " + strings.Join(verr.Issues, "; ")
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		switch perr.Kind {
		case ProviderErrorAuth:
			if perr.Hint != "" {
				return "upload rejected by " + perr.Provider + ": " + perr.Hint
			}
			return "upload rejected by " + perr.Provider + ": check the configured credentials"
		case ProviderErrorQuota:
			return "upload rejected by " + perr.Provider + ": file exceeds the plan or size limit"
		case ProviderErrorNetwork:
			return "upload interrupted by a network failure, try again"
		default:
			return "upload to " + perr.Provider + " failed, try again"
		}
	}

	if err != nil {
		return err.Error()
	}
	return "unknown error"
}
