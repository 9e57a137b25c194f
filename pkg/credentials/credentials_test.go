package credentials_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scout/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		mgr    *credentials.Manager
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		mgr, err = credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("targets credentials.toml in the scout directory", func() {
		Expect(mgr.GetTarget()).To(Equal(filepath.Join(tmpDir, "credentials.toml")))
	})

	Describe("Load", func() {
		It("returns empty credentials when no file exists", func() {
			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers).To(BeEmpty())
		})

		It("loads existing credentials", func() {
			data := `version = 0

[providers.gemini]
api_key = "gm-test-key"
`
			Expect(os.WriteFile(mgr.GetTarget(), []byte(data), 0o600)).To(Succeed())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers).To(HaveKeyWithValue("gemini", credentials.ProviderCredential{APIKey: "gm-test-key"}))
		})

		It("returns error for malformed TOML", func() {
			Expect(os.WriteFile(mgr.GetTarget(), []byte("not [valid toml"), 0o600)).To(Succeed())

			_, err := mgr.Load()
			Expect(err).To(MatchError(ContainSubstring("parsing credentials")))
		})
	})

	Describe("SetKey", func() {
		It("persists the key with restricted permissions", func() {
			Expect(mgr.SetKey("openai", "sk-one")).To(Succeed())

			info, err := os.Stat(mgr.GetTarget())
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers["openai"].APIKey).To(Equal("sk-one"))
		})

		It("preserves other provider keys", func() {
			Expect(mgr.SetKey("openai", "sk-one")).To(Succeed())
			Expect(mgr.SetKey("gemini", "gm-one")).To(Succeed())
			Expect(mgr.SetKey("openai", "sk-two")).To(Succeed())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers["openai"].APIKey).To(Equal("sk-two"))
			Expect(creds.Providers["gemini"].APIKey).To(Equal("gm-one"))
		})

		It("rejects unsupported providers", func() {
			Expect(mgr.SetKey("anthropic", "sk-ant")).To(MatchError(ContainSubstring("unsupported provider")))
		})
	})

	Describe("RemoveKey", func() {
		It("removes an existing key", func() {
			Expect(mgr.SetKey("gemini", "gm-one")).To(Succeed())
			Expect(mgr.RemoveKey("gemini")).To(Succeed())

			providers, err := mgr.ListProviders()
			Expect(err).NotTo(HaveOccurred())
			Expect(providers).To(BeEmpty())
		})

		It("is a no-op for a provider without a key", func() {
			Expect(mgr.RemoveKey("openai")).To(Succeed())
		})
	})

	Describe("ListProviders", func() {
		It("returns stored providers in sorted order", func() {
			Expect(mgr.SetKey("openai", "sk-one")).To(Succeed())
			Expect(mgr.SetKey("gemini", "gm-one")).To(Succeed())

			providers, err := mgr.ListProviders()
			Expect(err).NotTo(HaveOccurred())
			Expect(providers).To(Equal([]string{"gemini", "openai"}))
		})
	})

	Describe("InjectEnv", func() {
		It("exports stored keys", func() {
			GinkgoT().Setenv("GEMINI_API_KEY", "")
			Expect(os.Unsetenv("GEMINI_API_KEY")).To(Succeed())
			Expect(mgr.SetKey("gemini", "gm-one")).To(Succeed())

			set, err := mgr.InjectEnv()
			Expect(err).NotTo(HaveOccurred())
			Expect(set).To(Equal([]string{"GEMINI_API_KEY"}))
			Expect(os.Getenv("GEMINI_API_KEY")).To(Equal("gm-one"))
		})

		It("never overrides the environment", func() {
			GinkgoT().Setenv("OPENAI_API_KEY", "from-env")
			Expect(mgr.SetKey("openai", "sk-one")).To(Succeed())

			set, err := mgr.InjectEnv()
			Expect(err).NotTo(HaveOccurred())
			Expect(set).To(BeEmpty())
			Expect(os.Getenv("OPENAI_API_KEY")).To(Equal("from-env"))
		})
	})
})

var _ = Describe("EnvVarForProvider", func() {
	It("maps providers to their SDK variables", func() {
		Expect(credentials.EnvVarForProvider("gemini")).To(Equal("GEMINI_API_KEY"))
		Expect(credentials.EnvVarForProvider("openai")).To(Equal("OPENAI_API_KEY"))
		Expect(credentials.EnvVarForProvider("unknown")).To(BeEmpty())
	})
})
