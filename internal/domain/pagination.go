package domain

import (
	"fmt"
	"log"
	"strings"
)

const (
	DefaultLimit  = 20
	MinLimit      = 1
	MaxLimit      = 100
	DefaultSortBy = "id"
	SortAsc       = "asc"
	SortDesc      = "desc"
)

// PaginationQuery selects one cursor window. Build it with NewPaginationQuery.
type PaginationQuery struct {
	Cursor  *string
	Limit   int
	SortBy  string
	SortDir string
}

// NewPaginationQuery validates limit and normalizes the sort options. Blank
// sort options fall back to id/asc. Cursor mode always orders by id, so any
// other sortBy is logged and ignored; an unknown sortDir is rejected.
func NewPaginationQuery(cursor *string, limit int, sortBy, sortDir string) (PaginationQuery, error) {
	if limit < MinLimit || limit > MaxLimit {
		return PaginationQuery{}, fmt.Errorf("%w: limit must be between %d and %d", ErrInvalidArgument, MinLimit, MaxLimit)
	}

	sortBy = strings.TrimSpace(sortBy)
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	if !strings.EqualFold(sortBy, DefaultSortBy) {
		log.Printf("WARN: pagination: ignoring sortBy %q, cursor pagination orders by id", sortBy)
	}

	sortDir = strings.ToLower(strings.TrimSpace(sortDir))
	if sortDir == "" {
		sortDir = SortAsc
	}
	if sortDir != SortAsc && sortDir != SortDesc {
		return PaginationQuery{}, fmt.Errorf("%w: sortDir must be asc or desc", ErrInvalidArgument)
	}

	return PaginationQuery{
		Cursor:  cursor,
		Limit:   limit,
		SortBy:  DefaultSortBy,
		SortDir: sortDir,
	}, nil
}

// Descending reports whether the window walks ids from high to low.
func (q PaginationQuery) Descending() bool {
	return q.SortDir == SortDesc
}

// ProductFilter holds the optional list filters as received from the caller.
type ProductFilter struct {
	Category *string
	Name     *string
	Active   bool
}

// NewProductFilter applies the active=true default.
func NewProductFilter(category, name *string, active *bool) ProductFilter {
	return ProductFilter{
		Category: category,
		Name:     name,
		Active:   active == nil || *active,
	}
}

// CategoryForQuery returns the trimmed category, nil when blank.
func (f ProductFilter) CategoryForQuery() *string {
	return nonBlank(f.Category)
}

// NameForQuery returns the trimmed name fragment, nil when blank.
func (f ProductFilter) NameForQuery() *string {
	return nonBlank(f.Name)
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// PaginatedResult is one cursor page.
type PaginatedResult[T any] struct {
	Content        []T
	NextCursor     *string
	PreviousCursor *string
	HasNext        bool
	HasPrevious    bool
	Size           int
	Limit          int
}

// MapResult converts the content of r, keeping the page metadata.
func MapResult[T, U any](r PaginatedResult[T], fn func(T) U) PaginatedResult[U] {
	content := make([]U, 0, len(r.Content))
	for _, item := range r.Content {
		content = append(content, fn(item))
	}
	return PaginatedResult[U]{
		Content:        content,
		NextCursor:     r.NextCursor,
		PreviousCursor: r.PreviousCursor,
		HasNext:        r.HasNext,
		HasPrevious:    r.HasPrevious,
		Size:           len(content),
		Limit:          r.Limit,
	}
}
