package paging_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"product-catalog-api/internal/domain"
	"product-catalog-api/internal/paging"
)

func query(cursor *string, limit int, sortDir string) domain.PaginationQuery {
	q, err := domain.NewPaginationQuery(cursor, limit, "", sortDir)
	Expect(err).NotTo(HaveOccurred())
	return q
}

func paginate(store *memoryStore, q domain.PaginationQuery, f domain.ProductFilter) domain.PaginatedResult[domain.Product] {
	result, err := paging.Paginate(context.Background(), store.FetchWindow, q, f, domain.Product.Key)
	Expect(err).NotTo(HaveOccurred())
	return result
}

var _ = Describe("Paginate", func() {
	var (
		store  *memoryStore
		filter domain.ProductFilter
	)

	BeforeEach(func() {
		store = newMemoryStore(
			product(1, "Phone", domain.CategoryElectronics, true),
			product(2, "Shirt", domain.CategoryClothing, true),
			product(3, "Novel", domain.CategoryBooks, true),
			product(4, "Laptop", domain.CategoryElectronics, true),
			product(5, "Atlas", domain.CategoryBooks, true),
		)
		filter = domain.NewProductFilter(nil, nil, nil)
	})

	It("returns the first page with a next cursor", func() {
		page := paginate(store, query(nil, 2, ""), filter)

		Expect(ids(page.Content)).To(Equal([]int64{1, 2}))
		Expect(page.HasNext).To(BeTrue())
		Expect(page.HasPrevious).To(BeFalse())
		Expect(*page.NextCursor).To(Equal("2"))
		Expect(page.PreviousCursor).To(BeNil())
		Expect(page.Size).To(Equal(2))
		Expect(page.Limit).To(Equal(2))
	})

	It("asks the store for one row past the limit", func() {
		paginate(store, query(nil, 2, ""), filter)

		Expect(store.calls).To(HaveLen(1))
		Expect(store.calls[0].Limit).To(Equal(3))
		Expect(store.calls[0].After).To(BeNil())
	})

	It("resumes after the cursor and marks a previous page", func() {
		page := paginate(store, query(strPtr("2"), 2, ""), filter)

		Expect(ids(page.Content)).To(Equal([]int64{3, 4}))
		Expect(page.HasNext).To(BeTrue())
		Expect(page.HasPrevious).To(BeTrue())
		Expect(*page.NextCursor).To(Equal("4"))
		Expect(*page.PreviousCursor).To(Equal("3"))
	})

	It("reports no next page on the last window", func() {
		page := paginate(store, query(strPtr("4"), 2, ""), filter)

		Expect(ids(page.Content)).To(Equal([]int64{5}))
		Expect(page.HasNext).To(BeFalse())
		Expect(*page.NextCursor).To(Equal("5"))
	})

	It("returns empty content past the end, never nil", func() {
		page := paginate(store, query(strPtr("5"), 2, ""), filter)

		Expect(page.Content).NotTo(BeNil())
		Expect(page.Content).To(BeEmpty())
		Expect(page.HasNext).To(BeFalse())
		Expect(page.HasPrevious).To(BeTrue())
		Expect(page.NextCursor).To(BeNil())
		Expect(page.PreviousCursor).To(BeNil())
	})

	It("treats a malformed cursor like no cursor", func() {
		withBad := paginate(store, query(strPtr("abc"), 2, ""), filter)
		withNone := paginate(newMemoryStore(store.products...), query(nil, 2, ""), filter)

		Expect(withBad).To(Equal(withNone))
	})

	It("walks descending when asked", func() {
		page := paginate(store, query(nil, 2, domain.SortDesc), filter)
		Expect(ids(page.Content)).To(Equal([]int64{5, 4}))

		page = paginate(store, query(page.NextCursor, 2, domain.SortDesc), filter)
		Expect(ids(page.Content)).To(Equal([]int64{3, 2}))
		Expect(store.calls[1].Descending).To(BeTrue())
	})

	It("filters by category before windowing", func() {
		category := "electronics"
		page := paginate(store, query(nil, 10, ""), domain.NewProductFilter(&category, nil, nil))

		Expect(ids(page.Content)).To(Equal([]int64{1, 4}))
		Expect(page.HasNext).To(BeFalse())
	})

	It("excludes inactive products by default", func() {
		store = newMemoryStore(
			product(1, "Phone", domain.CategoryElectronics, true),
			product(2, "Old Phone", domain.CategoryElectronics, false),
			product(3, "Novel", domain.CategoryBooks, true),
		)
		page := paginate(store, query(nil, 10, ""), filter)
		Expect(ids(page.Content)).To(Equal([]int64{1, 3}))

		inactive := false
		page = paginate(store, query(nil, 10, ""), domain.NewProductFilter(nil, nil, &inactive))
		Expect(ids(page.Content)).To(Equal([]int64{2}))
	})

	It("trims a store that returns too many rows", func() {
		greedy := func(_ context.Context, _ paging.Window) ([]domain.Product, error) {
			return store.products, nil
		}
		page, err := paging.Paginate(context.Background(), greedy, query(nil, 2, ""), filter, domain.Product.Key)

		Expect(err).NotTo(HaveOccurred())
		Expect(page.Content).To(HaveLen(2))
		Expect(page.HasNext).To(BeTrue())
	})

	It("propagates store failures", func() {
		boom := errors.New("boom")
		failing := func(_ context.Context, _ paging.Window) ([]domain.Product, error) {
			return nil, boom
		}
		_, err := paging.Paginate(context.Background(), failing, query(nil, 2, ""), filter, domain.Product.Key)
		Expect(err).To(MatchError(boom))
	})

	It("rejects an unknown category without touching the store", func() {
		category := "toys"
		_, err := paging.Paginate(context.Background(), store.FetchWindow, query(nil, 2, ""), domain.NewProductFilter(&category, nil, nil), domain.Product.Key)

		Expect(err).To(MatchError(domain.ErrInvalidArgument))
		Expect(store.calls).To(BeEmpty())
	})

	It("rejects a limit outside the allowed range", func() {
		_, err := paging.Paginate(context.Background(), store.FetchWindow, domain.PaginationQuery{Limit: 0}, filter, domain.Product.Key)
		Expect(err).To(MatchError(domain.ErrInvalidArgument))
	})

	DescribeTable("chaining cursors visits every matching product exactly once",
		func(total, limit int, sortDir string) {
			products := make([]domain.Product, 0, total)
			for i := 1; i <= total; i++ {
				category := domain.Categories()[i%3]
				products = append(products, product(int64(i*3), fmt.Sprintf("item-%d", i), category, i%4 != 0))
			}
			store = newMemoryStore(products...)

			want := []int64{}
			for _, p := range store.products {
				if p.Active {
					want = append(want, p.Key())
				}
			}
			if sortDir == domain.SortDesc {
				for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
					want[i], want[j] = want[j], want[i]
				}
			}

			var (
				seen   []int64
				cursor *string
			)
			for pages := 0; ; pages++ {
				Expect(pages).To(BeNumerically("<=", total+1))
				page := paginate(store, query(cursor, limit, sortDir), filter)
				Expect(len(page.Content)).To(BeNumerically("<=", limit))
				Expect(page.HasPrevious).To(Equal(cursor != nil))
				seen = append(seen, ids(page.Content)...)
				if !page.HasNext {
					break
				}
				cursor = page.NextCursor
			}
			Expect(seen).To(Equal(want))
		},
		Entry("exact multiple", 12, 3, domain.SortAsc),
		Entry("ragged tail", 17, 4, domain.SortAsc),
		Entry("single page", 5, 100, domain.SortAsc),
		Entry("limit one", 7, 1, domain.SortAsc),
		Entry("descending", 17, 4, domain.SortDesc),
	)
})
