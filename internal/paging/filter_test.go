package paging_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"product-catalog-api/internal/domain"
	"product-catalog-api/internal/paging"
)

var _ = Describe("NormalizeFilter", func() {
	It("defaults to active products with no other constraint", func() {
		pred, err := paging.NormalizeFilter(domain.NewProductFilter(nil, nil, nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(pred.Active).To(BeTrue())
		Expect(pred.Category).To(BeNil())
		Expect(pred.Name).To(BeNil())
	})

	It("treats blank category and name as absent", func() {
		pred, err := paging.NormalizeFilter(domain.NewProductFilter(strPtr("  "), strPtr(""), nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(pred.Category).To(BeNil())
		Expect(pred.Name).To(BeNil())
	})

	It("resolves the category case-insensitively", func() {
		pred, err := paging.NormalizeFilter(domain.NewProductFilter(strPtr(" books "), nil, nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(*pred.Category).To(Equal(domain.CategoryBooks))
	})

	It("rejects an unknown category", func() {
		_, err := paging.NormalizeFilter(domain.NewProductFilter(strPtr("toys"), nil, nil))
		Expect(err).To(MatchError(domain.ErrInvalidArgument))
	})

	Describe("Matches", func() {
		books := domain.CategoryBooks
		lamp := product(1, "Desk Lamp", domain.CategoryElectronics, true)

		It("matches the name as a case-insensitive substring", func() {
			pred, err := paging.NormalizeFilter(domain.NewProductFilter(nil, strPtr("LAMP"), nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Matches(lamp)).To(BeTrue())
		})

		It("rejects a different category", func() {
			pred := paging.Predicate{Category: &books, Active: true}
			Expect(pred.Matches(lamp)).To(BeFalse())
		})

		It("rejects a different active flag", func() {
			pred := paging.Predicate{Active: false}
			Expect(pred.Matches(lamp)).To(BeFalse())
		})
	})
})
