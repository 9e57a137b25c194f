package eventstream_test

import (
	"encoding/json"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scout/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals TopicCommittedEvent with expected top-level keys", func() {
		event := eventstream.NewTopicCommittedEvent(
			eventstream.TopicMeta{ID: "abc", Title: "Lost City of Atlantis", Score: 8},
			eventstream.SelectionMeta{Threshold: 0.95, Candidates: 2, Fresh: 2, MemorySize: 1},
		)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKeyWithValue("topic", HaveKeyWithValue("title", "Lost City of Atlantis")))
		Expect(got).To(HaveKeyWithValue("selection", Not(HaveKey("recovered"))))
	})

	It("stamps schema, type and a unique id", func() {
		a := eventstream.NewTopicCommittedEvent(eventstream.TopicMeta{}, eventstream.SelectionMeta{})
		b := eventstream.NewTopicCommittedEvent(eventstream.TopicMeta{}, eventstream.SelectionMeta{})

		Expect(a.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(a.EventType).To(Equal("scout.topic.committed"))
		Expect(a.EventID).NotTo(Equal(b.EventID))
		_, err := uuid.Parse(a.EventID)
		Expect(err).NotTo(HaveOccurred())
	})

	It("provides ErrNilTopicEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilTopicEvent).To(MatchError("nil topic event"))
	})
})
