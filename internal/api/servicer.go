package api

import (
	"context"

	"product-catalog-api/internal/domain"
)

// ProductServicer is the use-case surface the transports depend on.
// *service.ProductService implements it.
type ProductServicer interface {
	Create(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetAllActive(ctx context.Context, query domain.PaginationQuery, filter domain.ProductFilter) (domain.PaginatedResult[domain.Product], error)
	GetActiveByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, id int64, product domain.Product) (*domain.Product, error)
	Deactivate(ctx context.Context, id int64) error
}
