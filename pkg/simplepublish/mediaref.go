package simplepublish

import (
	"encoding/json"
	"strings"
)

// MediaRefState is the lifecycle state of a media reference.
type MediaRefState string

const (
	// MediaRefLocal points into the local asset store; the only state the
	// pipeline ever mutates.
	MediaRefLocal MediaRefState = "local"
	// MediaRefQueued awaits a queued-platform job; the final URL is
	// patched out-of-band.
	MediaRefQueued MediaRefState = "queued"
	// MediaRefRemote is durable and terminal.
	MediaRefRemote MediaRefState = "remote"
)

// Wire-format markers for media reference states. Every component
// classifies references through ParseMediaRef rather than sniffing
// these prefixes ad hoc.
const (
	// LocalRefPrefix prefixes asset store keys ("local_<token>").
	LocalRefPrefix = "local_"
	// QueuedRefMarker prefixes the last path segment of a queued
	// placeholder URL ("<scheme>://.../pending_<jobID>").
	QueuedRefMarker = "pending_"
)

// MediaRef is a tagged reference to a media asset. It is constructed
// once at the document boundary (ParseMediaRef or the constructors
// below); the zero value is an absent reference.
type MediaRef struct {
	State   MediaRefState `json:"-"`
	LocalID string        `json:"-"` // set when State == MediaRefLocal, includes the local_ prefix
	JobID   string        `json:"-"` // set when State == MediaRefQueued
	URL     string        `json:"-"` // set for MediaRefRemote and MediaRefQueued (placeholder)
}

// LocalRef builds a Local reference from an asset store key.
func LocalRef(id string) MediaRef {
	return MediaRef{State: MediaRefLocal, LocalID: id}
}

// RemoteRef builds a durable Remote reference.
func RemoteRef(url string) MediaRef {
	return MediaRef{State: MediaRefRemote, URL: url}
}

// QueuedRef builds a Queued reference with its placeholder URL.
func QueuedRef(jobID, placeholderURL string) MediaRef {
	return MediaRef{State: MediaRefQueued, JobID: jobID, URL: placeholderURL}
}

// ParseMediaRef classifies a wire-format reference string:
//
//	"local_<token>"            -> Local
//	".../pending_<jobID>"      -> Queued
//	any other non-empty string -> Remote
//	""                         -> zero value (absent)
func ParseMediaRef(s string) MediaRef {
	switch {
	case s == "":
		return MediaRef{}
	case strings.HasPrefix(s, LocalRefPrefix):
		return LocalRef(s)
	default:
		if job, ok := queuedJobID(s); ok {
			return QueuedRef(job, s)
		}
		return RemoteRef(s)
	}
}

// queuedJobID extracts the job ID from a queued placeholder URL.
func queuedJobID(s string) (string, bool) {
	last := s
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		last = s[i+1:]
	}
	if job, ok := strings.CutPrefix(last, QueuedRefMarker); ok && job != "" {
		return job, true
	}
	return "", false
}

// IsZero reports whether the reference is absent.
func (r MediaRef) IsZero() bool { return r.State == "" }

// IsLocal reports whether the reference still points at the local store.
func (r MediaRef) IsLocal() bool { return r.State == MediaRefLocal }

// String renders the wire form of the reference.
func (r MediaRef) String() string {
	switch r.State {
	case MediaRefLocal:
		return r.LocalID
	case MediaRefQueued, MediaRefRemote:
		return r.URL
	default:
		return ""
	}
}

// MarshalJSON encodes the reference as its wire-format string.
func (r MediaRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON classifies a wire-format string into a tagged reference.
func (r *MediaRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseMediaRef(s)
	return nil
}
