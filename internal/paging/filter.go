package paging

import (
	"strings"

	"product-catalog-api/internal/domain"
)

// Predicate is a ProductFilter after normalization. Nil fields impose no
// constraint.
type Predicate struct {
	Category *domain.Category
	Name     *string
	Active   bool
}

// NormalizeFilter trims the optional fields and resolves the category name.
// An unknown category fails with domain.ErrInvalidArgument.
func NormalizeFilter(f domain.ProductFilter) (Predicate, error) {
	p := Predicate{Active: f.Active}

	if raw := f.CategoryForQuery(); raw != nil {
		c, err := domain.ParseCategory(*raw)
		if err != nil {
			return Predicate{}, err
		}
		p.Category = &c
	}
	if name := f.NameForQuery(); name != nil {
		lowered := strings.ToLower(*name)
		p.Name = &lowered
	}
	return p, nil
}

// Matches applies the predicate in memory, for stores without a query language.
func (p Predicate) Matches(product domain.Product) bool {
	if product.Active != p.Active {
		return false
	}
	if p.Category != nil && product.Category != *p.Category {
		return false
	}
	if p.Name != nil && !strings.Contains(strings.ToLower(product.Name), *p.Name) {
		return false
	}
	return true
}
