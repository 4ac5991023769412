package paging_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"product-catalog-api/internal/paging"
)

var _ = Describe("Cursor", func() {
	DescribeTable("ParseCursor",
		func(raw *string, wantKey int64, wantOK bool) {
			key, ok := paging.ParseCursor(raw)
			Expect(ok).To(Equal(wantOK))
			Expect(key).To(Equal(wantKey))
		},
		Entry("nil", nil, int64(0), false),
		Entry("blank", strPtr("   "), int64(0), false),
		Entry("decimal id", strPtr("42"), int64(42), true),
		Entry("padded id", strPtr(" 7 "), int64(7), true),
		Entry("not a number", strPtr("abc"), int64(0), false),
		Entry("overflow", strPtr("99999999999999999999"), int64(0), false),
	)

	It("encodes ids that parse back", func() {
		encoded := paging.EncodeCursor(1234)
		Expect(encoded).To(Equal("1234"))

		key, ok := paging.ParseCursor(&encoded)
		Expect(ok).To(BeTrue())
		Expect(key).To(Equal(int64(1234)))
	})
})
