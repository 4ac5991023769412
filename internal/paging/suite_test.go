package paging_test

import (
	"context"
	"sort"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"product-catalog-api/internal/domain"
	"product-catalog-api/internal/paging"
)

func TestPaging(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Paging Suite")
}

// memoryStore is an id-ordered slice exposing the window primitive.
type memoryStore struct {
	products []domain.Product
	calls    []paging.Window
}

func newMemoryStore(products ...domain.Product) *memoryStore {
	sorted := append([]domain.Product(nil), products...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key() < sorted[j].Key() })
	return &memoryStore{products: sorted}
}

func (m *memoryStore) FetchWindow(_ context.Context, w paging.Window) ([]domain.Product, error) {
	m.calls = append(m.calls, w)
	out := []domain.Product{}
	for i := range m.products {
		p := m.products[i]
		if w.Descending {
			p = m.products[len(m.products)-1-i]
		}
		if !w.Admits(p.Key()) || !w.Predicate.Matches(p) {
			continue
		}
		out = append(out, p)
		if len(out) == w.Limit {
			break
		}
	}
	return out, nil
}

func product(id int64, name string, category domain.Category, active bool) domain.Product {
	return domain.NewProduct(name, decimal.RequireFromString("10.00"), category, &active).WithID(id)
}

func strPtr(s string) *string { return &s }

func ids(products []domain.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.Key())
	}
	return out
}
