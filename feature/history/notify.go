package history

import (
	"context"

	"listing-sync/core/reconcile"
)

// Publisher is the subset of broker.Publisher used by BrokerSink.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, messageID string, v any) error
	RoutingKey() string
}

// BrokerSink announces finished runs on the message broker.
type BrokerSink struct {
	publisher Publisher
}

// NewBrokerSink creates a broker sink.
func NewBrokerSink(p Publisher) *BrokerSink {
	return &BrokerSink{publisher: p}
}

// Name implements ReportSink.
func (s *BrokerSink) Name() string { return "broker" }

// Report publishes a Notification keyed by the run id.
func (s *BrokerSink) Report(ctx context.Context, result *reconcile.RunResult) error {
	return s.publisher.PublishJSON(ctx, s.publisher.RoutingKey(), result.RunID, NewNotification(result))
}
