package qdrant_test

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scout/pkg/logger"
	"github.com/papercomputeco/scout/pkg/vector"
	"github.com/papercomputeco/scout/pkg/vector/qdrant"
)

// target returns the Qdrant gRPC target from environment or skips the test.
func target() string {
	t := os.Getenv("SCOUT_TEST_QDRANT_TARGET")
	if t == "" {
		Skip("SCOUT_TEST_QDRANT_TARGET not set, skipping Qdrant tests")
	}
	return t
}

var _ = Describe("Driver", func() {
	It("should implement vector.Driver interface", func() {
		var _ vector.Driver = (*qdrant.Driver)(nil)
	})

	It("requires a target and dimensions", func() {
		_, err := qdrant.NewDriver(context.Background(), qdrant.Config{Dimensions: 4}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("target is required")))

		_, err = qdrant.NewDriver(context.Background(), qdrant.Config{Target: "localhost:6334"}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("dimensions cannot be 0")))
	})

	It("derives stable point UUIDs from document IDs", func() {
		id := qdrant.PointID("abc")
		Expect(qdrant.PointID("abc")).To(Equal(id))
		Expect(qdrant.PointID("abd")).NotTo(Equal(id))
		_, err := uuid.Parse(id)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("against a live server", func() {
		var (
			driver *qdrant.Driver
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			addr := target()

			var err error
			driver, err = qdrant.NewDriver(ctx, qdrant.Config{
				Target:         addr,
				CollectionName: "scout_test_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
				Dimensions:     2,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(driver.Close)
		})

		It("adds idempotently and returns squared distances", func() {
			n, err := driver.Add(ctx, []vector.Document{
				{ID: "a", Text: "Atlantis", Embedding: []float32{1, 0}},
				{ID: "b", Text: "Bermuda", Embedding: []float32{0, 1}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))

			n, err = driver.Add(ctx, []vector.Document{{ID: "a", Text: "Atlantis", Embedding: []float32{1, 0}}})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())

			results, err := driver.Query(ctx, [][]float32{{1, 0}}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0]).To(HaveLen(2))
			Expect(results[0][0].Text).To(Equal("Atlantis"))
			Expect(results[0][1].Distance).To(BeNumerically("~", 2, 1e-4))

			docs, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(2))
			Expect(docs[0].ID).To(Equal("a"))
		})
	})
})
