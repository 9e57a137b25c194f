package gemini_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scout/pkg/candidates/gemini"
	"github.com/papercomputeco/scout/pkg/logger"
	"github.com/papercomputeco/scout/pkg/topic"
)

var _ = Describe("Brainstormer", func() {
	var (
		models *gemini.FakeModels
		b      *gemini.Brainstormer
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		models = &gemini.FakeModels{}
		b = gemini.NewBrainstormerWithModels(models, "", logger.Nop())
	})

	It("parses scored ideas and renders the themes into the prompt", func() {
		models.Text = `{"ideas": [
			{"title": "Why Atlantis Was Never Found", "score": 9, "justification": "mystery"},
			{"title": "The Emu War", "virality_score": 7, "justification": "absurd"}
		]}`

		ideas, err := b.Brainstorm(ctx, "Lost Civilizations", []string{"Plato's Atlantis", "The Great Emu War"})
		Expect(err).NotTo(HaveOccurred())
		Expect(ideas).To(Equal([]topic.Candidate{
			{Title: "Why Atlantis Was Never Found", Score: 9, Justification: "mystery"},
			{Title: "The Emu War", Score: 7, Justification: "absurd"},
		}))

		Expect(models.Model).To(Equal(gemini.DefaultModel))
		Expect(models.Config.ResponseMIMEType).To(Equal("application/json"))
		Expect(models.Prompt).To(ContainSubstring("- Plato's Atlantis"))
		Expect(models.Prompt).To(ContainSubstring("Category: Lost Civilizations"))
	})

	It("tolerates fenced JSON", func() {
		models.Text = "```json\n{\"ideas\": [{\"title\": \"X\", \"score\": 5}]}\n```"
		ideas, err := b.Brainstorm(ctx, "", []string{"x"})
		Expect(err).NotTo(HaveOccurred())
		Expect(ideas).To(HaveLen(1))
	})

	It("requires themes", func() {
		_, err := b.Brainstorm(ctx, "", nil)
		Expect(err).To(MatchError(gemini.ErrNoThemes))
	})

	It("reports provider failures", func() {
		models.Err = errors.New("quota")
		_, err := b.Brainstorm(ctx, "", []string{"x"})
		Expect(err).To(MatchError(topic.ErrProviderUnavailable))
	})

	It("rejects undecodable answers", func() {
		models.Text = "not json"
		_, err := b.Brainstorm(ctx, "", []string{"x"})
		Expect(err).To(MatchError(ContainSubstring("decoding gemini ideas")))
	})
})
