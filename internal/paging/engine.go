package paging

import (
	"context"
	"fmt"

	"product-catalog-api/internal/domain"
)

// Window is one store read: at most Limit rows matching Predicate, ordered by
// id, strictly after After in the walking direction.
type Window struct {
	After      *int64
	Limit      int
	Descending bool
	Predicate  Predicate
}

// Admits reports whether id lies past the resume key.
func (w Window) Admits(id int64) bool {
	if w.After == nil {
		return true
	}
	if w.Descending {
		return id < *w.After
	}
	return id > *w.After
}

// WindowFunc is the single primitive a store must provide to be paginated.
type WindowFunc[T any] func(ctx context.Context, w Window) ([]T, error)

// Paginate runs one cursor page over fetch. It asks the store for one row
// more than the limit so the presence of a next page is known without a
// count query.
func Paginate[T any](ctx context.Context, fetch WindowFunc[T], q domain.PaginationQuery, f domain.ProductFilter, keyOf func(T) int64) (domain.PaginatedResult[T], error) {
	if q.Limit < domain.MinLimit || q.Limit > domain.MaxLimit {
		return domain.PaginatedResult[T]{}, fmt.Errorf("%w: limit must be between %d and %d", domain.ErrInvalidArgument, domain.MinLimit, domain.MaxLimit)
	}

	pred, err := NormalizeFilter(f)
	if err != nil {
		return domain.PaginatedResult[T]{}, err
	}

	w := Window{
		Limit:      q.Limit + 1,
		Descending: q.Descending(),
		Predicate:  pred,
	}
	if key, ok := ParseCursor(q.Cursor); ok {
		w.After = &key
	}

	rows, err := fetch(ctx, w)
	if err != nil {
		return domain.PaginatedResult[T]{}, err
	}

	hasNext := len(rows) > q.Limit
	if hasNext {
		rows = rows[:q.Limit]
	}
	if rows == nil {
		rows = []T{}
	}

	result := domain.PaginatedResult[T]{
		Content:     rows,
		HasNext:     hasNext,
		HasPrevious: w.After != nil,
		Size:        len(rows),
		Limit:       q.Limit,
	}
	if len(rows) > 0 {
		next := EncodeCursor(keyOf(rows[len(rows)-1]))
		result.NextCursor = &next
		if result.HasPrevious {
			prev := EncodeCursor(keyOf(rows[0]))
			result.PreviousCursor = &prev
		}
	}
	return result, nil
}
