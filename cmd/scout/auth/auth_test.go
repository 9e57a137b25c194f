package authcmder

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/scout/pkg/credentials"
)

var _ = Describe("auth", func() {
	var configDir string

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
	})

	execute := func(stdin string, args ...string) (string, error) {
		root := &cobra.Command{Use: "scout", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(NewAuthCmd())

		var out bytes.Buffer
		root.SetOut(&out)
		root.SetIn(strings.NewReader(stdin))
		root.SetArgs(append([]string{"auth", "--config-dir", configDir}, args...))

		err := root.Execute()
		return out.String(), err
	}

	It("stores a piped key", func() {
		out, err := execute("gm-secret\n", "gemini")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("GEMINI_API_KEY"))

		mgr, err := credentials.NewManager(configDir)
		Expect(err).NotTo(HaveOccurred())
		creds, err := mgr.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(creds.Providers["gemini"].APIKey).To(Equal("gm-secret"))
	})

	It("rejects an empty key", func() {
		_, err := execute("   \n", "openai")
		Expect(err).To(MatchError("API key cannot be empty"))
	})

	It("rejects an unsupported provider", func() {
		_, err := execute("key\n", "anthropic")
		Expect(err).To(MatchError(ContainSubstring("unsupported provider")))
	})

	It("lists and removes stored providers", func() {
		_, err := execute("sk-secret\n", "openai")
		Expect(err).NotTo(HaveOccurred())

		out, err := execute("", "--list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("openai"))

		_, err = execute("", "--remove", "openai")
		Expect(err).NotTo(HaveOccurred())

		out, err = execute("", "--list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No stored credentials"))
	})
})
