package topic_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scout/pkg/dotdir"
	"github.com/papercomputeco/scout/pkg/eventstream"
	"github.com/papercomputeco/scout/pkg/logger"
	"github.com/papercomputeco/scout/pkg/topic"
	testutils "github.com/papercomputeco/scout/pkg/utils/test"
)

var _ = Describe("Cycle", func() {
	var (
		ctx       context.Context
		driver    *testutils.MockVectorDriver
		embedder  *testutils.MockEmbedder
		store     *topic.Store
		journal   *dotdir.Journal
		publisher *recordingPublisher
		cycle     *topic.Cycle
	)

	newCycle := func() *topic.Cycle {
		c, err := topic.NewCycle(topic.CycleConfig{
			Store:     store,
			Journal:   journal,
			Publisher: publisher,
			Threshold: 0.95,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		store = topic.NewStore(driver, embedder, logger.Nop())
		publisher = &recordingPublisher{}

		var err error
		journal, err = dotdir.NewManager().NewJournal(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		cycle = newCycle()
	})

	It("requires a store, journal and logger", func() {
		_, err := topic.NewCycle(topic.CycleConfig{Journal: journal, Logger: logger.Nop()})
		Expect(err).To(HaveOccurred())

		_, err = topic.NewCycle(topic.CycleConfig{Store: store, Logger: logger.Nop()})
		Expect(err).To(HaveOccurred())

		_, err = topic.NewCycle(topic.CycleConfig{Store: store, Journal: journal})
		Expect(err).To(HaveOccurred())
	})

	It("validates thresholds", func() {
		_, err := topic.NewCycle(topic.CycleConfig{Store: store, Journal: journal, Threshold: 2, Logger: logger.Nop()})
		Expect(err).To(MatchError(topic.ErrInvalidThreshold))

		Expect(cycle.SetThreshold(0.5)).To(Succeed())
		Expect(cycle.Threshold()).To(Equal(0.5))
		Expect(cycle.SetThreshold(-1)).To(MatchError(topic.ErrInvalidThreshold))
		Expect(cycle.Threshold()).To(Equal(0.5))
	})

	It("skips a used topic and commits the best fresh one", func() {
		Expect(store.Add(ctx, "Lost City of Atlantis")).To(BeTrue())

		outcome, err := cycle.Run(ctx, []topic.Candidate{
			{Title: "Lost City of Atlantis", Score: 8},
			{Title: "Secret of Bermuda Triangle", Score: 7},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(topic.StatusSelected))
		Expect(outcome.Selected.Title).To(Equal("Secret of Bermuda Triangle"))
		Expect(outcome.Verdicts[0].Fresh).To(BeFalse())
		Expect(outcome.Verdicts[1].Fresh).To(BeTrue())

		Expect(store.Count(ctx)).To(Equal(2))
		Expect(store.Has(ctx, "Secret of Bermuda Triangle")).To(BeTrue())

		Expect(publisher.events).To(HaveLen(1))
		event := publisher.events[0]
		Expect(event.EventType).To(Equal(eventstream.EventTypeTopicCommitted))
		Expect(event.Topic.ID).To(Equal(topic.ID("Secret of Bermuda Triangle")))
		Expect(event.Selection.Candidates).To(Equal(2))
		Expect(event.Selection.Fresh).To(Equal(1))
		Expect(event.Selection.MemorySize).To(Equal(2))

		pending, err := journal.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeNil())
	})

	It("bootstraps an empty memory with the top scored candidate", func() {
		outcome, err := cycle.Run(ctx, []topic.Candidate{
			{Title: "X", Score: 5},
			{Title: "Y", Score: 9},
			{Title: "Z", Score: 9},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Selected.Title).To(Equal("Y"))
		Expect(store.Count(ctx)).To(Equal(1))
	})

	It("commits a first topic and rejects it on the next cycle", func() {
		outcome, err := cycle.Run(ctx, []topic.Candidate{
			{Title: "Lost City of Atlantis", Score: 8},
			{Title: "Atlantis: The Lost City", Score: 7},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(topic.StatusSelected))
		Expect(outcome.Selected.Title).To(Equal("Lost City of Atlantis"))
		Expect(store.Has(ctx, "Lost City of Atlantis")).To(BeTrue())
		Expect(store.Count(ctx)).To(Equal(1))

		outcome, err = cycle.Run(ctx, []topic.Candidate{{Title: "Lost City of Atlantis", Score: 10}})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(topic.StatusNoFreshCandidates))
		Expect(outcome.Err()).To(MatchError(topic.ErrNoTopicAvailable))
		Expect(store.Count(ctx)).To(Equal(1))
	})

	It("never selects a blank title", func() {
		outcome, err := cycle.Run(ctx, []topic.Candidate{
			{Title: "  ", Score: 9},
			{Title: " Real topic ", Score: 1},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Selected.Title).To(Equal("Real topic"))
		Expect(outcome.Verdicts).To(HaveLen(1))
		Expect(store.Has(ctx, "Real topic")).To(BeTrue())

		pending, err := journal.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeNil())

		added, err := cycle.CommitCandidate(ctx, topic.Candidate{Title: "Manual"})
		Expect(err).NotTo(HaveOccurred())
		Expect(added).To(BeTrue())
	})

	It("treats all blank titles as empty input", func() {
		outcome, err := cycle.Run(ctx, []topic.Candidate{{Title: " ", Score: 9}, {Title: "", Score: 3}})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(topic.StatusNoCandidates))
		Expect(outcome.Err()).To(MatchError(topic.ErrEmptyCandidateInput))

		pending, err := journal.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeNil())
		Expect(store.Count(ctx)).To(BeZero())
	})

	It("discards a blank journal entry on recovery", func() {
		Expect(journal.Save(&dotdir.PendingCommit{ID: topic.ID("  "), Title: "  ", Score: 9})).To(Succeed())

		recovered, err := cycle.Recover(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(recovered).To(BeNil())

		pending, err := journal.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeNil())
		Expect(publisher.events).To(BeEmpty())

		outcome, err := cycle.Run(ctx, []topic.Candidate{{Title: "Real topic", Score: 1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Selected.Title).To(Equal("Real topic"))
	})

	It("reports no fresh candidates without touching the memory", func() {
		Expect(store.Add(ctx, "Lost City of Atlantis")).To(BeTrue())

		outcome, err := cycle.Run(ctx, []topic.Candidate{{Title: "Lost City of Atlantis", Score: 8}})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(topic.StatusNoFreshCandidates))
		Expect(outcome.Selected).To(BeNil())
		Expect(outcome.Err()).To(MatchError(topic.ErrNoFreshCandidates))

		Expect(store.Count(ctx)).To(Equal(1))
		Expect(publisher.events).To(BeEmpty())
	})

	It("reports empty candidate input", func() {
		p, err := cycle.Propose(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Outcome.Status).To(Equal(topic.StatusNoCandidates))
		Expect(p.Commit(ctx)).To(MatchError(topic.ErrEmptyCandidateInput))
	})

	It("aborts on provider failure", func() {
		Expect(store.Add(ctx, "Lost City of Atlantis")).To(BeTrue())
		embedder.Err = errors.New("quota exceeded")

		_, err := cycle.Run(ctx, []topic.Candidate{{Title: "Secret of Bermuda Triangle", Score: 7}})
		Expect(err).To(MatchError(topic.ErrProviderUnavailable))
		Expect(driver.Driver.Count(ctx)).To(Equal(1))
	})

	It("previews without journaling or committing", func() {
		outcome, err := cycle.Preview(ctx, []topic.Candidate{{Title: "Y", Score: 9}})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Selected.Title).To(Equal("Y"))

		Expect(store.Count(ctx)).To(Equal(0))
		pending, err := journal.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeNil())
	})

	Describe("two-phase commit", func() {
		It("journals the selection until it is committed", func() {
			p, err := cycle.Propose(ctx, []topic.Candidate{{Title: "Y", Score: 9, Justification: "why"}})
			Expect(err).NotTo(HaveOccurred())

			pending, err := journal.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(pending.Title).To(Equal("Y"))
			Expect(pending.ID).To(Equal(topic.ID("Y")))
			Expect(store.Count(ctx)).To(Equal(0))

			Expect(p.Commit(ctx)).To(Succeed())
			Expect(p.Commit(ctx)).To(Succeed())
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].Topic.Justification).To(Equal("why"))

			pending, err = journal.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeNil())
		})

		It("refuses to propose over a pending commit", func() {
			_, err := cycle.Propose(ctx, []topic.Candidate{{Title: "Y", Score: 9}})
			Expect(err).NotTo(HaveOccurred())

			_, err = cycle.Propose(ctx, []topic.Candidate{{Title: "Z", Score: 9}})
			Expect(err).To(MatchError(topic.ErrPendingCommit))
		})

		It("recovers a selection interrupted before commit", func() {
			_, err := cycle.Propose(ctx, []topic.Candidate{{Title: "Y", Score: 9}})
			Expect(err).NotTo(HaveOccurred())

			// a new process picks up the same journal
			restarted := newCycle()
			recovered, err := restarted.Recover(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(recovered.Title).To(Equal("Y"))

			Expect(store.Has(ctx, "Y")).To(BeTrue())
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].Selection.Recovered).To(BeTrue())

			recovered, err = restarted.Recover(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(recovered).To(BeNil())
		})

		It("recovers when the crash came after the store write", func() {
			_, err := cycle.Propose(ctx, []topic.Candidate{{Title: "Y", Score: 9}})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Add(ctx, "Y")).To(BeTrue())

			outcome, err := newCycle().Run(ctx, []topic.Candidate{{Title: "Y", Score: 9}, {Title: "Z", Score: 1}})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Count(ctx)).To(Equal(2))
			Expect(outcome.Selected.Title).To(Equal("Z"))
		})

		It("keeps the journal when publishing fails", func() {
			publisher.err = errors.New("broker down")

			_, err := cycle.Run(ctx, []topic.Candidate{{Title: "Y", Score: 9}})
			Expect(err).To(MatchError(ContainSubstring("broker down")))

			pending, err := journal.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(pending.Title).To(Equal("Y"))

			publisher.err = nil
			_, err = cycle.Recover(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.events).To(HaveLen(1))
			Expect(store.Count(ctx)).To(Equal(1))
		})
	})
})

var _ = Describe("Cycle.CommitCandidate", func() {
	var (
		ctx       context.Context
		store     *topic.Store
		journal   *dotdir.Journal
		publisher *recordingPublisher
		cycle     *topic.Cycle
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = topic.NewStore(testutils.NewMockVectorDriver(), testutils.NewMockEmbedder(), logger.Nop())
		publisher = &recordingPublisher{}

		var err error
		journal, err = dotdir.NewManager().NewJournal(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		cycle, err = topic.NewCycle(topic.CycleConfig{
			Store:     store,
			Journal:   journal,
			Publisher: publisher,
			Threshold: 0.95,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("commits and publishes an explicit topic once", func() {
		added, err := cycle.CommitCandidate(ctx, topic.Candidate{Title: " Lost City of Atlantis "})
		Expect(err).NotTo(HaveOccurred())
		Expect(added).To(BeTrue())

		added, err = cycle.CommitCandidate(ctx, topic.Candidate{Title: "Lost City of Atlantis"})
		Expect(err).NotTo(HaveOccurred())
		Expect(added).To(BeFalse())

		Expect(store.Count(ctx)).To(Equal(1))
		Expect(publisher.events).To(HaveLen(2))

		pending, err := journal.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeNil())
	})

	It("rejects blank titles", func() {
		_, err := cycle.CommitCandidate(ctx, topic.Candidate{Title: " "})
		Expect(err).To(MatchError(topic.ErrEmptyText))
	})
})

var _ = Describe("WithThreshold", func() {
	It("overrides the cycle threshold for one call", func() {
		ctx := context.Background()
		embedder := testutils.NewMockEmbedder()
		embedder.Dimensions = 2
		embedder.Embeddings["stored"] = unitAt(0)
		embedder.Embeddings["close"] = unitAt(0.1)

		store := topic.NewStore(testutils.NewMockVectorDriver(), embedder, logger.Nop())
		Expect(store.Add(ctx, "stored")).To(BeTrue())

		journal, err := dotdir.NewManager().NewJournal(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		cycle, err := topic.NewCycle(topic.CycleConfig{Store: store, Journal: journal, Threshold: 0.95, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		candidates := []topic.Candidate{{Title: "close", Score: 1}}

		outcome, err := cycle.Preview(ctx, candidates)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(topic.StatusSelected))

		outcome, err = cycle.Preview(ctx, candidates, topic.WithThreshold(0.5))
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(topic.StatusNoFreshCandidates))
		Expect(outcome.Threshold).To(Equal(0.5))
		Expect(cycle.Threshold()).To(Equal(0.95))
	})
})
