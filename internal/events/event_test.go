package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-catalog-api/internal/domain"
)

func TestNewProductChanged_RoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	p := domain.NewProduct("Phone", decimal.RequireFromString("999.99"), domain.CategoryElectronics, nil).WithID(7)

	event, err := NewProductChanged(ProductCreated, p, now)
	require.NoError(t, err)
	assert.Equal(t, "7", event.Key)
	assert.Equal(t, now.UTC(), event.OccurredAt)
	assert.NotEqual(t, uuid.Nil, event.EventID)

	payload, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"type":"PRODUCT_CREATED"`)
	assert.Contains(t, string(payload), `"price":"999.99"`)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)

	back, err := decoded.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, p.Key(), back.Key())
	assert.Equal(t, p.Name, back.Name)
	assert.True(t, p.Price.Equal(back.Price))
	assert.Equal(t, p.Category, back.Category)
	assert.True(t, back.Active)
}

func TestNewProductChanged_RequiresID(t *testing.T) {
	p := domain.NewProduct("Phone", decimal.RequireFromString("1"), domain.CategoryElectronics, nil)
	_, err := NewProductChanged(ProductCreated, p, time.Now())
	assert.ErrorIs(t, err, errUnsavedProduct)
}

func TestToDomain_RejectsUnknownCategory(t *testing.T) {
	e := ProductChanged{Product: ProductPayload{ID: 1, Name: "x", Price: decimal.NewFromInt(1), Category: "TOYS"}}
	_, err := e.ToDomain()
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}
