package discovercmder

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/scout/pkg/topic"
	testutils "github.com/papercomputeco/scout/pkg/utils/test"
)

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "scout", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().BoolP("debug", "d", false, "")
	root.PersistentFlags().String("config-dir", "", "")
	root.AddCommand(NewDiscoverCmd())
	return root
}

var _ = Describe("discover", func() {
	var (
		configDir      string
		candidatesPath string
		ollama         *httptest.Server
	)

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()

		embedder := testutils.NewMockEmbedder()
		embedder.Dimensions = 4
		embedder.Embeddings["Atlantis"] = []float32{1, 0, 0, 0}
		embedder.Embeddings["Mariana Trench"] = []float32{0, 1, 0, 0}
		ollama = testutils.NewOllamaServer(embedder)
		DeferCleanup(ollama.Close)

		candidatesPath = filepath.Join(GinkgoT().TempDir(), "ideas.json")
		Expect(os.WriteFile(candidatesPath, []byte(`[
			{"title": "Atlantis", "score": 5},
			{"title": "Mariana Trench", "virality_score": 9, "justification": "deepest point"}
		]`), 0o644)).To(Succeed())
	})

	execute := func(extra ...string) (*topic.Outcome, error) {
		args := append([]string{
			"discover",
			"--config-dir", configDir,
			"--candidates", candidatesPath,
			"--vector-store-provider", "sqlite",
			"--embedding-provider", "ollama",
			"--embedding-target", ollama.URL,
			"--embedding-dimensions", "4",
			"--json",
		}, extra...)

		var out bytes.Buffer
		root := newRoot()
		root.SetOut(&out)
		root.SetErr(GinkgoWriter)
		root.SetArgs(args)

		err := root.Execute()

		outcome := &topic.Outcome{}
		Expect(json.Unmarshal(out.Bytes(), outcome)).To(Succeed())
		return outcome, err
	}

	It("commits the best candidate and rejects it on the next run", func() {
		outcome, err := execute()
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(topic.StatusSelected))
		Expect(outcome.Selected.Title).To(Equal("Mariana Trench"))
		Expect(filepath.Join(configDir, "topics.sqlite")).To(BeAnExistingFile())

		outcome, err = execute()
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Selected.Title).To(Equal("Atlantis"))

		outcome, err = execute()
		Expect(err).To(MatchError(topic.ErrNoFreshCandidates))
		Expect(outcome.Status).To(Equal(topic.StatusNoFreshCandidates))
		Expect(outcome.Fresh).To(BeEmpty())
	})

	It("leaves the memory untouched on a dry run", func() {
		outcome, err := execute("--dry-run")
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Selected.Title).To(Equal("Mariana Trench"))

		outcome, err = execute("--dry-run")
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Selected.Title).To(Equal("Mariana Trench"))
		Expect(filepath.Join(configDir, "pending.json")).NotTo(BeAnExistingFile())
	})

	It("reports an empty candidate file", func() {
		Expect(os.WriteFile(candidatesPath, []byte(`[]`), 0o644)).To(Succeed())

		outcome, err := execute()
		Expect(err).To(MatchError(topic.ErrEmptyCandidateInput))
		Expect(outcome.Status).To(Equal(topic.StatusNoCandidates))
	})
})
