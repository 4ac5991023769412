package api

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"product-catalog-api/internal/domain"
)

// MockProductServicer is a mock implementation of ProductServicer
type MockProductServicer struct {
	mock.Mock
}

func (m *MockProductServicer) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductServicer) GetAllActive(ctx context.Context, q domain.PaginationQuery, f domain.ProductFilter) (domain.PaginatedResult[domain.Product], error) {
	args := m.Called(ctx, q, f)
	return args.Get(0).(domain.PaginatedResult[domain.Product]), args.Error(1)
}

func (m *MockProductServicer) GetActiveByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductServicer) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductServicer) Update(ctx context.Context, id int64, p domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductServicer) Deactivate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func PtrTo[T any](v T) *T {
	return &v
}

func sampleProduct(id int64, name, price string, category domain.Category, active bool) *domain.Product {
	p := domain.NewProduct(name, decimal.RequireFromString(price), category, &active).WithID(id)
	return &p
}

func emptyPage(limit int) domain.PaginatedResult[domain.Product] {
	return domain.PaginatedResult[domain.Product]{Content: []domain.Product{}, Limit: limit}
}
