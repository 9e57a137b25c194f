package sqlitepath

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveSQLitePath", func() {
	var scoutDir string

	BeforeEach(func() {
		scoutDir = GinkgoT().TempDir()
		GinkgoT().Setenv("XDG_DATA_HOME", "")
	})

	It("prefers the override", func() {
		path, err := ResolveSQLitePath("/tmp/custom.sqlite", scoutDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.sqlite"))
	})

	It("defaults to topics.sqlite in the scout dir", func() {
		path, err := ResolveSQLitePath("", scoutDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(scoutDir, DefaultFileName)))
	})

	It("picks up an existing topics.db", func() {
		dbPath := filepath.Join(scoutDir, "topics.db")
		Expect(os.WriteFile(dbPath, []byte("test"), 0o644)).To(Succeed())

		path, err := ResolveSQLitePath("", scoutDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(dbPath))
	})

	It("finds a memory under XDG_DATA_HOME", func() {
		xdg := GinkgoT().TempDir()
		GinkgoT().Setenv("XDG_DATA_HOME", xdg)

		dbPath := filepath.Join(xdg, "scout", DefaultFileName)
		Expect(os.MkdirAll(filepath.Dir(dbPath), 0o755)).To(Succeed())
		Expect(os.WriteFile(dbPath, []byte("test"), 0o644)).To(Succeed())

		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(dbPath))
	})

	It("fails without any location", func() {
		_, err := ResolveSQLitePath("", "")
		Expect(err).To(HaveOccurred())
	})
})
