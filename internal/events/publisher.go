package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/gearup/storefront/internal/models"
)

const (
	Exchange               = "storefront.events"
	OrderCreatedRoutingKey = "order.created.v1"
)

type OrderCreatedItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCreated struct {
	EventType string             `json:"eventType"`
	OrderID   string             `json:"orderId"`
	UserID    string             `json:"userId"`
	Total     decimal.Decimal    `json:"total"`
	Items     []OrderCreatedItem `json:"items"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewOrderCreated builds the event payload for a persisted order.
func NewOrderCreated(o *models.Order, now time.Time) OrderCreated {
	ev := OrderCreated{
		EventType: "OrderCreated",
		OrderID:   o.ID,
		UserID:    o.UserID,
		Total:     o.Total,
		Items:     make([]OrderCreatedItem, 0, len(o.Items)),
		Timestamp: now.UTC(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderCreatedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return ev
}

type Publisher interface {
	PublishOrderCreated(ctx context.Context, o *models.Order) error
	Close() error
}

type AMQPPublisher struct {
	ch  *amqp.Channel
	now func() time.Time
}

func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare %s: %w", Exchange, err)
	}

	return &AMQPPublisher{ch: ch, now: time.Now}, nil
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

func (p *AMQPPublisher) PublishOrderCreated(ctx context.Context, o *models.Order) error {
	body, err := json.Marshal(NewOrderCreated(o, p.now()))
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(
		pubCtx,
		Exchange,
		OrderCreatedRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    o.ID,
			Timestamp:    p.now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", OrderCreatedRoutingKey, err)
	}
	return nil
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *models.Order) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
