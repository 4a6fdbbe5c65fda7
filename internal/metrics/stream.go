package metrics

import (
	"context"

	"github.com/serroba/url-redirector/internal/messaging"
)

// TopicRedirectRequest is the stream RedirectRequest events are published to.
const TopicRedirectRequest = "metrics.redirect_request"

// StreamSink hands events to a message stream; a consumer forwards them to
// the final backend.
type StreamSink struct {
	publish messaging.Publish[Event]
}

// NewStreamSink creates a sink that publishes through publish.
func NewStreamSink(publish messaging.Publish[Event]) *StreamSink {
	return &StreamSink{publish: publish}
}

func (s *StreamSink) Emit(ctx context.Context, event *Event) error {
	return s.publish(ctx, event)
}

// Forward returns a consumer handler that re-emits stream events to sink.
func Forward(sink Sink) messaging.Handler[Event] {
	return func(ctx context.Context, event *Event) error {
		return sink.Emit(ctx, event)
	}
}
