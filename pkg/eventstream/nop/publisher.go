package nop

import (
	"context"

	"github.com/papercomputeco/scout/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishTopic validates input and otherwise does nothing.
func (p *Publisher) PublishTopic(_ context.Context, event *eventstream.TopicCommittedEvent) error {
	if event == nil {
		return eventstream.ErrNilTopicEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
