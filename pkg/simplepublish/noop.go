package simplepublish

import "context"

// NoopEventSink discards all events.
type NoopEventSink struct{}

// NewNoopEventSink creates an event sink that does nothing.
func NewNoopEventSink() EventSink { return &NoopEventSink{} }

func (s *NoopEventSink) UploadStarted(ctx context.Context, task UploadTask) {}

func (s *NoopEventSink) UploadCompleted(ctx context.Context, task UploadTask, ref MediaRef) {}

func (s *NoopEventSink) UploadFailed(ctx context.Context, task UploadTask, err error) {}

func (s *NoopEventSink) DocumentPublished(ctx context.Context, doc *ContentDocument) {}

// NoopDistributor accepts every dispatch without posting anywhere. It
// still settles each configured channel so callers see the same
// callback sequence a real distributor produces.
type NoopDistributor struct {
	Channels []string
}

// NewNoopDistributor creates a distributor that marks the given
// channels posted without any remote effect.
func NewNoopDistributor(channels ...string) *NoopDistributor {
	return &NoopDistributor{Channels: channels}
}

func (d *NoopDistributor) Dispatch(ctx context.Context, doc *ContentDocument, webhookURL string, onStatus ChannelStatusFunc) error {
	for _, ch := range d.Channels {
		if onStatus != nil {
			onStatus(ch, DistributionPosted)
		}
	}
	return nil
}
