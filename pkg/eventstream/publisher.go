package eventstream

import "context"

// Publisher publishes topic events to an event stream backend.
type Publisher interface {
	PublishTopic(ctx context.Context, event *TopicCommittedEvent) error
	Close() error
}
