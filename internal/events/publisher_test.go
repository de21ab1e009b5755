package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearup/storefront/internal/models"
)

func TestNewOrderCreated(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("WAT", 3600))
	order := &models.Order{
		ID:     "ord-1",
		UserID: "uid-1",
		Total:  decimal.RequireFromString("64.99"),
		Items: []models.OrderItem{
			{ProductID: "p1", Quantity: 1, Price: decimal.RequireFromString("49.99")},
		},
	}

	ev := NewOrderCreated(order, now)
	assert.Equal(t, "OrderCreated", ev.EventType)
	assert.Equal(t, time.UTC, ev.Timestamp.Location())

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"eventType": "OrderCreated",
		"orderId": "ord-1",
		"userId": "uid-1",
		"total": 64.99,
		"items": [{"productId": "p1", "quantity": 1, "price": 49.99}],
		"timestamp": "2026-03-01T11:00:00Z"
	}`, string(data))
}

func TestNewOrderCreatedEmptyItems(t *testing.T) {
	ev := NewOrderCreated(&models.Order{ID: "ord-2"}, time.Now())
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishOrderCreated(context.Background(), &models.Order{}))
	assert.NoError(t, p.Close())
}
