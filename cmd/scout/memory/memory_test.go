package memorycmder

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/scout/pkg/topic"
	testutils "github.com/papercomputeco/scout/pkg/utils/test"
)

var _ = Describe("memory", func() {
	var (
		configDir string
		ollama    *httptest.Server
		embedder  *testutils.MockEmbedder
	)

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		embedder = testutils.NewMockEmbedder()
		embedder.Dimensions = 4
		ollama = testutils.NewOllamaServer(embedder)
		DeferCleanup(ollama.Close)
	})

	execute := func(args ...string) (string, error) {
		root := &cobra.Command{Use: "scout", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().BoolP("debug", "d", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(NewMemoryCmd())

		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(GinkgoWriter)
		root.SetArgs(append([]string{
			"memory",
			args[0],
			"--config-dir", configDir,
			"--vector-store-provider", "sqlite",
			"--embedding-target", ollama.URL,
			"--embedding-dimensions", "4",
		}, args[1:]...))

		err := root.Execute()
		return out.String(), err
	}

	It("starts empty", func() {
		out, err := execute("count")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.TrimSpace(out)).To(Equal("0"))

		out, err = execute("list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("empty"))
	})

	It("adds topics once", func() {
		out, err := execute("add", "Atlantis", "Mariana Trench")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("added"))
		Expect(embedder.Calls()).To(Equal(2))

		out, err = execute("add", "Atlantis")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("already used"))
		Expect(embedder.Calls()).To(Equal(2))

		out, err = execute("count")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.TrimSpace(out)).To(Equal("2"))
	})

	It("lists the most recent topics", func() {
		_, err := execute("add", "Atlantis", "Mariana Trench", "Voynich Manuscript")
		Expect(err).NotTo(HaveOccurred())

		out, err := execute("list", "--json", "--limit", "2")
		Expect(err).NotTo(HaveOccurred())

		var records []topic.Record
		Expect(json.Unmarshal([]byte(out), &records)).To(Succeed())
		Expect(records).To(HaveLen(2))
		Expect(records[0].Text).To(Equal("Mariana Trench"))
		Expect(records[1].ID).To(Equal(topic.ID("Voynich Manuscript")))
	})
})
