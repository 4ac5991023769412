package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category is the closed set of product categories. Values are the symbolic
// names stored in both stores and sent over the wire.
type Category string

const (
	CategoryElectronics Category = "ELECTRONICS"
	CategoryClothing    Category = "CLOTHING"
	CategoryBooks       Category = "BOOKS"
)

var categoryDisplayNames = map[Category]string{
	CategoryElectronics: "Electronics",
	CategoryClothing:    "Clothing",
	CategoryBooks:       "Books",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{CategoryElectronics, CategoryClothing, CategoryBooks}
}

// ParseCategory matches s case-insensitively against the symbolic names.
// Unknown values fail with ErrInvalidArgument.
func ParseCategory(s string) (Category, error) {
	candidate := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := categoryDisplayNames[candidate]; !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, s)
	}
	return candidate, nil
}

// DisplayName is the human readable label used by the web UI.
func (c Category) DisplayName() string {
	if name, ok := categoryDisplayNames[c]; ok {
		return name
	}
	return string(c)
}

func (c Category) String() string { return string(c) }

// Product is an immutable catalog record. ID is nil until the primary store
// assigns one on first save.
type Product struct {
	ID       *int64          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category Category        `json:"category"`
	Active   bool            `json:"active"`
}

// NewProduct builds an unsaved product. A nil active flag means active.
func NewProduct(name string, price decimal.Decimal, category Category, active *bool) Product {
	return Product{
		Name:     name,
		Price:    price,
		Category: category,
		Active:   active == nil || *active,
	}
}

// WithID returns a copy of p carrying id.
func (p Product) WithID(id int64) Product {
	p.ID = &id
	return p
}

// WithoutID returns a copy of p with the id cleared.
func (p Product) WithoutID() Product {
	p.ID = nil
	return p
}

// Deactivated returns a copy of p with the active flag off.
func (p Product) Deactivated() Product {
	p.Active = false
	return p
}

// Key returns the ordering key used by cursor pagination, 0 for unsaved products.
func (p Product) Key() int64 {
	if p.ID == nil {
		return 0
	}
	return *p.ID
}
