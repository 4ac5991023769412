package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"product-catalog-api/internal/domain"
	"product-catalog-api/internal/events"
	"product-catalog-api/internal/store"
)

const DefaultStoreTimeout = 3 * time.Second

// ProductService orchestrates the catalog use cases. Writes go to the
// primary store and are announced on the event stream; listings are served
// by the read store, which is the primary store unless WithReadStore is set.
type ProductService struct {
	primary   store.ProductStore
	reads     store.ProductStore
	dualStore bool
	publisher events.Publisher
	timeout   time.Duration
	now       func() time.Time
	logger    *log.Logger
}

type Option func(*ProductService)

// WithReadStore serves GetAllActive from reads.
func WithReadStore(reads store.ProductStore) Option {
	return func(s *ProductService) {
		s.reads = reads
		s.dualStore = true
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *ProductService) { s.publisher = p }
}

// WithTimeout bounds every store call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *ProductService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *ProductService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *ProductService) { s.logger = l }
}

func NewProductService(primary store.ProductStore, opts ...Option) *ProductService {
	s := &ProductService{
		primary:   primary,
		reads:     primary,
		publisher: events.NopPublisher{},
		timeout:   DefaultStoreTimeout,
		now:       time.Now,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new product. Any caller supplied id is discarded.
func (s *ProductService) Create(ctx context.Context, product domain.Product) (*domain.Product, error) {
	created, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (*domain.Product, error) {
		return s.primary.Save(ctx, product.WithoutID())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ProductCreated, created)
	return created, nil
}

// GetAllActive returns one cursor page of products matching filter.
func (s *ProductService) GetAllActive(ctx context.Context, query domain.PaginationQuery, filter domain.ProductFilter) (domain.PaginatedResult[domain.Product], error) {
	return withTimeout(ctx, s.timeout, func(ctx context.Context) (domain.PaginatedResult[domain.Product], error) {
		return s.reads.FindActiveProducts(ctx, query, filter)
	})
}

// GetActiveByID fails with domain.ErrNotFound for absent and inactive products.
func (s *ProductService) GetActiveByID(ctx context.Context, id int64) (*domain.Product, error) {
	return withTimeout(ctx, s.timeout, func(ctx context.Context) (*domain.Product, error) {
		return s.primary.FindActiveByID(ctx, id)
	})
}

// GetByID returns the product regardless of its active flag.
func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return withTimeout(ctx, s.timeout, func(ctx context.Context) (*domain.Product, error) {
		return s.primary.FindByID(ctx, id)
	})
}

// Update fully replaces the product stored under id.
func (s *ProductService) Update(ctx context.Context, id int64, product domain.Product) (*domain.Product, error) {
	updated, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (*domain.Product, error) {
		if _, err := s.primary.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return s.primary.Save(ctx, product.WithID(id))
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ProductUpdated, updated)
	return updated, nil
}

// Deactivate soft-deletes the product. Deactivating an inactive product
// succeeds and still emits an event.
func (s *ProductService) Deactivate(ctx context.Context, id int64) error {
	deactivated, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (*domain.Product, error) {
		return s.primary.DeactivateProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.ProductDeactivated, deactivated)
	return nil
}

// PingPrimary checks the primary store.
func (s *ProductService) PingPrimary(ctx context.Context) error {
	_, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.primary.Ping(ctx)
	})
	return err
}

// PingReadStore checks the read store. ok is false in single-store mode.
func (s *ProductService) PingReadStore(ctx context.Context) (ok bool, err error) {
	if !s.dualStore {
		return false, nil
	}
	_, err = withTimeout(ctx, s.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.reads.Ping(ctx)
	})
	return true, err
}

func (s *ProductService) publish(ctx context.Context, t events.EventType, p *domain.Product) {
	event, err := events.NewProductChanged(t, *p, s.now())
	if err != nil {
		s.logger.Printf("ERROR: Skipping %s event: %v", t, err)
		return
	}
	s.publisher.Publish(ctx, event)
}

// withTimeout runs fn under the per-call store deadline. A blown deadline
// surfaces as domain.ErrUnavailable.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	result, err := fn(callCtx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)) {
		var zero T
		return zero, fmt.Errorf("%w: store call exceeded %s: %v", domain.ErrUnavailable, d, err)
	}
	return result, err
}
