package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scout/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads a valid config file", func() {
			data := `version = 0

[novelty]
threshold = 0.8

[vector_store]
provider = "chroma"
target = "http://localhost:8000"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Novelty.Threshold).To(Equal(0.8))
			Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
			Expect(cfg.VectorStore.Target).To(Equal("http://localhost:8000"))
		})

		It("fills in defaults for unset fields in a partial config", func() {
			data := `[embedding]
provider = "gemini"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Embedding.Provider).To(Equal("gemini"))
			Expect(cfg.Embedding.Model).To(Equal(defaults.Embedding.Model))
			Expect(cfg.Novelty.Threshold).To(Equal(defaults.Novelty.Threshold))
			Expect(cfg.VectorStore.Collection).To(Equal(defaults.VectorStore.Collection))
			Expect(cfg.EventStream.Provider).To(Equal(defaults.EventStream.Provider))
			Expect(cfg.API.Listen).To(Equal(defaults.API.Listen))
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not = [valid"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
		})

		It("returns error for unsupported config version", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("version = 99\n"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version 99")))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Novelty.Threshold = 0.7
			cfg.EventStream.Provider = "kafka"
			cfg.EventStream.Brokers = "localhost:9092"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SaveConfig(nil)).To(MatchError("cannot save nil config"))
		})
	})

	Describe("SetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets a string config key", func() {
			Expect(c.SetConfigValue("vector_store.provider", "qdrant")).To(Succeed())

			val, err := c.GetConfigValue("vector_store.provider")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("qdrant"))
		})

		It("sets the novelty threshold", func() {
			Expect(c.SetConfigValue("novelty.threshold", "0.5")).To(Succeed())

			val, err := c.GetConfigValue("novelty.threshold")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("0.5"))
		})

		It("rejects a threshold outside [0,1]", func() {
			Expect(c.SetConfigValue("novelty.threshold", "1.5")).To(MatchError(ContainSubstring("outside [0,1]")))
		})

		It("sets a uint config key", func() {
			Expect(c.SetConfigValue("embedding.dimensions", "1536")).To(Succeed())

			val, err := c.GetConfigValue("embedding.dimensions")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("1536"))
		})

		It("sets a bool config key", func() {
			Expect(c.SetConfigValue("embedding.disable_normalize", "true")).To(Succeed())

			val, err := c.GetConfigValue("embedding.disable_normalize")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("true"))
		})

		It("returns error for invalid uint value", func() {
			Expect(c.SetConfigValue("embedding.dimensions", "lots")).To(HaveOccurred())
		})

		It("returns error for unknown key", func() {
			Expect(c.SetConfigValue("proxy.upstream", "x")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("preserves existing values when setting a new key", func() {
			Expect(c.SetConfigValue("reddit.limit", "50")).To(Succeed())
			Expect(c.SetConfigValue("api.listen", ":9999")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Reddit.Limit).To(Equal(50))
			Expect(cfg.API.Listen).To(Equal(":9999"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("novelty.threshold")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("0.95"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("eventstream.brokers")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("returns every key in a stable order", func() {
		keys := config.ValidConfigKeys()
		Expect(keys).To(HaveLen(17))
		Expect(keys[0]).To(Equal("vector_store.provider"))
		Expect(keys).To(ContainElements("novelty.threshold", "eventstream.topic", "api.listen"))
		Expect(config.ValidConfigKeys()).To(Equal(keys))
	})

	It("validates keys", func() {
		Expect(config.IsValidConfigKey("novelty.threshold")).To(BeTrue())
		Expect(config.IsValidConfigKey("storage.sqlite_path")).To(BeFalse())
		Expect(config.IsValidConfigKey("threshold")).To(BeFalse())
	})
})

var _ = Describe("PresetConfig", func() {
	It("returns the gemini preset", func() {
		cfg, err := config.PresetConfig("Gemini")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Embedding.Provider).To(Equal("gemini"))
		Expect(cfg.Generator.Provider).To(Equal("gemini"))
		Expect(cfg.Novelty.Threshold).To(Equal(0.95))
	})

	It("returns the openai preset", func() {
		cfg, err := config.PresetConfig("openai")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(1536)))
	})

	It("returns error for unknown preset", func() {
		_, err := config.PresetConfig("anthropic")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
	})

	It("lists preset names", func() {
		Expect(config.ValidPresetNames()).To(Equal([]string{"ollama", "gemini", "openai"}))
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("returns empty config for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Novelty.Threshold).To(BeZero())
	})
})

var _ = Describe("LoadDotEnv", func() {
	It("loads variables from a .env file without overriding the environment", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, ".env"), []byte("SCOUT_TEST_A=fromfile\nSCOUT_TEST_B=fromfile\n"), 0o600)).To(Succeed())

		GinkgoT().Setenv("SCOUT_TEST_B", "fromenv")
		DeferCleanup(os.Unsetenv, "SCOUT_TEST_A")

		Expect(config.LoadDotEnv(dir)).To(Succeed())
		Expect(os.Getenv("SCOUT_TEST_A")).To(Equal("fromfile"))
		Expect(os.Getenv("SCOUT_TEST_B")).To(Equal("fromenv"))
	})

	It("ignores missing files", func() {
		Expect(config.LoadDotEnv(GinkgoT().TempDir())).To(Succeed())
	})
})
