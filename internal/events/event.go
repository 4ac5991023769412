package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"product-catalog-api/internal/domain"
)

// DefaultChannel is the pub/sub channel product changes are published on.
const DefaultChannel = "products_changes"

type EventType string

const (
	ProductCreated     EventType = "PRODUCT_CREATED"
	ProductUpdated     EventType = "PRODUCT_UPDATED"
	ProductDeactivated EventType = "PRODUCT_DEACTIVATED"
)

// ProductChanged is the wire form of a product mutation. Key is the product
// id and identifies the entity the event belongs to.
type ProductChanged struct {
	EventID    uuid.UUID      `json:"eventId"`
	Type       EventType      `json:"type"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurredAt"`
	Product    ProductPayload `json:"product"`
}

// ProductPayload is the full product state after the change.
type ProductPayload struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Active   bool            `json:"active"`
}

var errUnsavedProduct = errors.New("events: product has no id")

// NewProductChanged snapshots a persisted product.
func NewProductChanged(t EventType, p domain.Product, now time.Time) (ProductChanged, error) {
	if p.ID == nil {
		return ProductChanged{}, errUnsavedProduct
	}
	return ProductChanged{
		EventID:    uuid.New(),
		Type:       t,
		Key:        strconv.FormatInt(*p.ID, 10),
		OccurredAt: now.UTC(),
		Product: ProductPayload{
			ID:       *p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Category: string(p.Category),
			Active:   p.Active,
		},
	}, nil
}

// ToDomain rebuilds the product carried by the event.
func (e ProductChanged) ToDomain() (domain.Product, error) {
	if e.Product.ID <= 0 {
		return domain.Product{}, errUnsavedProduct
	}
	category, err := domain.ParseCategory(e.Product.Category)
	if err != nil {
		return domain.Product{}, fmt.Errorf("events: event %s: %w", e.EventID, err)
	}
	active := e.Product.Active
	return domain.NewProduct(e.Product.Name, e.Product.Price, category, &active).WithID(e.Product.ID), nil
}

// Decode parses a message payload.
func Decode(payload []byte) (ProductChanged, error) {
	var e ProductChanged
	if err := json.Unmarshal(payload, &e); err != nil {
		return ProductChanged{}, fmt.Errorf("events: failed to decode message: %w", err)
	}
	return e, nil
}
