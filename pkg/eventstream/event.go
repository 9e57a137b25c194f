package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTopicCommitted is emitted after a selected topic is committed
	// to the novelty memory.
	EventTypeTopicCommitted = "scout.topic.committed"
)

// TopicCommittedEvent is a transport-neutral event payload for a committed topic.
type TopicCommittedEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	EventID       string        `json:"event_id"`
	EmittedAt     time.Time     `json:"emitted_at"`
	Topic         TopicMeta     `json:"topic"`
	Selection     SelectionMeta `json:"selection"`
}

// TopicMeta describes the committed topic.
type TopicMeta struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Score         float64 `json:"score"`
	Justification string  `json:"justification,omitempty"`
}

// SelectionMeta captures how the topic was chosen.
type SelectionMeta struct {
	Threshold  float64 `json:"threshold"`
	Candidates int     `json:"candidates"`
	Fresh      int     `json:"fresh"`

	// Recovered is true when the commit replayed a pending journal entry
	// left behind by an interrupted cycle.
	Recovered bool `json:"recovered,omitempty"`

	// MemorySize is the number of stored topics after the commit.
	MemorySize int `json:"memory_size"`
}

// NewTopicCommittedEvent stamps a new event with a random ID and the current time.
func NewTopicCommittedEvent(topic TopicMeta, selection SelectionMeta) *TopicCommittedEvent {
	return &TopicCommittedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTopicCommitted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Topic:         topic,
		Selection:     selection,
	}
}
