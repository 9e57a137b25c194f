package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scout/pkg/cliui"
)

var _ = Describe("Step", func() {
	It("prints a success mark and passes the error through", func() {
		var buf bytes.Buffer
		Expect(cliui.Step(&buf, "embedding", func() error { return nil })).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("embedding"))
		Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
	})

	It("prints a failure mark", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")
		Expect(cliui.Step(&buf, "querying", func() error { return boom })).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below a second", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("Table", func() {
	It("renders headers and cells", func() {
		out := cliui.Table([]string{"title", "score"}, [][]string{{"Atlantis", "8"}})
		Expect(out).To(ContainSubstring("title"))
		Expect(out).To(ContainSubstring("Atlantis"))
	})
})
