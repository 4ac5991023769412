package store

import (
	"context"
	"fmt"

	"product-catalog-api/internal/domain"
	"product-catalog-api/internal/paging"
)

// Predefined errors for store operations. Both wrap domain kinds so the
// service and transport layers classify them with errors.Is.
var (
	ErrProductNotFound = fmt.Errorf("store: product %w", domain.ErrNotFound)
	ErrConstraint      = fmt.Errorf("store: constraint violation: %w", domain.ErrInvalidArgument)
)

// ProductStore is implemented by every persistence adapter.
type ProductStore interface {
	// Save inserts a product without id, or fully replaces the stored one.
	Save(ctx context.Context, product domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	// FindActiveByID treats inactive products as absent.
	FindActiveByID(ctx context.Context, id int64) (*domain.Product, error)
	FindActiveProducts(ctx context.Context, query domain.PaginationQuery, filter domain.ProductFilter) (domain.PaginatedResult[domain.Product], error)
	// DeactivateProduct flips active off. Already inactive products are
	// returned unchanged.
	DeactivateProduct(ctx context.Context, id int64) (*domain.Product, error)
	Ping(ctx context.Context) error
}

// Windower is the primitive the shared pagination engine runs on.
type Windower interface {
	FetchWindow(ctx context.Context, w paging.Window) ([]domain.Product, error)
}

func paginate(ctx context.Context, s Windower, query domain.PaginationQuery, filter domain.ProductFilter) (domain.PaginatedResult[domain.Product], error) {
	return paging.Paginate(ctx, s.FetchWindow, query, filter, domain.Product.Key)
}
