package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scout/api/novelty"
	"github.com/papercomputeco/scout/pkg/dotdir"
	"github.com/papercomputeco/scout/pkg/logger"
	"github.com/papercomputeco/scout/pkg/topic"
	testutils "github.com/papercomputeco/scout/pkg/utils/test"
)

var _ = Describe("API Server", func() {
	var (
		ctx      context.Context
		server   *Server
		store    *topic.Store
		journal  *dotdir.Journal
		embedder *testutils.MockEmbedder
	)

	do := func(method, path string, body any) *http.Response {
		var reader io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(b)
		}

		req, err := http.NewRequest(method, path, reader)
		Expect(err).NotTo(HaveOccurred())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, v any) {
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(b, v)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		store = topic.NewStore(testutils.NewMockVectorDriver(), embedder, logger.Nop())

		var err error
		journal, err = dotdir.NewManager().NewJournal(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		cycle, err := topic.NewCycle(topic.CycleConfig{
			Store:     store,
			Journal:   journal,
			Threshold: 0.95,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{ListenAddr: ":0"}, cycle, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Add(ctx, "Lost City of Atlantis")).To(BeTrue())
	})

	It("requires a cycle and logger", func() {
		_, err := NewServer(Config{}, nil, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("answers ping", func() {
		resp := do(http.MethodGet, "/ping", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
	})

	Describe("topics", func() {
		It("counts and lists stored topics", func() {
			var count CountResponse
			decode(do(http.MethodGet, "/v1/topics/count", nil), &count)
			Expect(count.Count).To(Equal(1))

			var list TopicsResponse
			decode(do(http.MethodGet, "/v1/topics", nil), &list)
			Expect(list.Count).To(Equal(1))
			Expect(list.Topics[0].Text).To(Equal("Lost City of Atlantis"))
			Expect(list.Topics[0].ID).To(Equal(topic.ID("Lost City of Atlantis")))
		})

		It("rejects a bad limit", func() {
			resp := do(http.MethodGet, "/v1/topics?limit=zero", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("commits a topic with 201 and a repeat with 200", func() {
			resp := do(http.MethodPost, "/v1/topics", map[string]any{"text": "The Emu War"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			var out CommitResponse
			decode(resp, &out)
			Expect(out.Added).To(BeTrue())
			Expect(out.Count).To(Equal(2))

			resp = do(http.MethodPost, "/v1/topics", map[string]any{"title": "The Emu War"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})

		It("rejects a blank topic", func() {
			resp := do(http.MethodPost, "/v1/topics", map[string]any{"title": " "})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("maps provider failures to 502", func() {
			embedder.Err = errors.New("ollama down")
			resp := do(http.MethodPost, "/v1/topics", map[string]any{"title": "new one"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadGateway))

			var body ErrorResponse
			decode(resp, &body)
			Expect(body.Error).To(ContainSubstring("provider unavailable"))
		})
	})

	Describe("POST /v1/novelty/check", func() {
		It("classifies without committing", func() {
			resp := do(http.MethodPost, "/v1/novelty/check", map[string]any{
				"candidates": []map[string]any{
					{"title": "Lost City of Atlantis", "score": 8},
					{"title": "Secret of Bermuda Triangle", "virality_score": 7},
				},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out novelty.CheckOutput
			decode(resp, &out)
			Expect(out.Verdicts).To(HaveLen(2))
			Expect(out.Verdicts[0].Fresh).To(BeFalse())
			Expect(out.Fresh).To(HaveLen(1))
			Expect(out.Fresh[0].Score).To(Equal(7.0))
			Expect(store.Count(ctx)).To(Equal(1))
		})

		It("rejects an invalid threshold", func() {
			resp := do(http.MethodPost, "/v1/novelty/check", map[string]any{
				"candidates": []map[string]any{{"title": "x"}},
				"threshold":  2,
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("POST /v1/cycles", func() {
		candidates := []map[string]any{
			{"title": "Lost City of Atlantis", "score": 8},
			{"title": "Secret of Bermuda Triangle", "score": 7},
		}

		It("selects and commits the best fresh topic", func() {
			resp := do(http.MethodPost, "/v1/cycles", map[string]any{"candidates": candidates})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out CycleResponse
			decode(resp, &out)
			Expect(out.Status).To(Equal(topic.StatusSelected))
			Expect(out.Selected.Title).To(Equal("Secret of Bermuda Triangle"))
			Expect(out.Committed).To(BeTrue())
			Expect(store.Count(ctx)).To(Equal(2))
		})

		It("does not commit on a dry run", func() {
			resp := do(http.MethodPost, "/v1/cycles", map[string]any{"candidates": candidates, "dry_run": true})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out CycleResponse
			decode(resp, &out)
			Expect(out.Committed).To(BeFalse())
			Expect(out.Selected.Title).To(Equal("Secret of Bermuda Triangle"))
			Expect(store.Count(ctx)).To(Equal(1))
		})

		It("reports no fresh candidates with 200", func() {
			resp := do(http.MethodPost, "/v1/cycles", map[string]any{"candidates": candidates[:1]})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out CycleResponse
			decode(resp, &out)
			Expect(out.Status).To(Equal(topic.StatusNoFreshCandidates))
			Expect(out.Committed).To(BeFalse())
		})

		It("ignores blank titles and keeps the memory usable", func() {
			resp := do(http.MethodPost, "/v1/cycles", map[string]any{
				"candidates": []map[string]any{{"title": " ", "score": 9}},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out CycleResponse
			decode(resp, &out)
			Expect(out.Status).To(Equal(topic.StatusNoCandidates))
			Expect(out.Committed).To(BeFalse())

			pending, err := journal.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeNil())

			resp = do(http.MethodPost, "/v1/topics", map[string]any{"title": "The Emu War"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))
		})

		It("reports a conflicting pending commit", func() {
			Expect(journal.Save(&dotdir.PendingCommit{ID: "x", Title: "x"})).To(Succeed())
			resp := do(http.MethodPost, "/v1/topics", map[string]any{"title": "y"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusConflict))
		})
	})

	It("maps errors to statuses", func() {
		Expect(statusFor(topic.ErrNoFreshCandidates)).To(Equal(fiber.StatusNotFound))
		Expect(statusFor(errors.New("other"))).To(Equal(fiber.StatusInternalServerError))
	})
})
