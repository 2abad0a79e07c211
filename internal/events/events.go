// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

const (
	EventTypeOrderPlaced = "order.placed"
	DefaultTopic         = "hopyfy-orders"
	HeaderEventType      = "event_type"
)

type OrderPlaced struct {
	OrderID     string             `json:"order_id"`
	UserID      string             `json:"user_id"`
	Lines       []domain.LineKey   `json:"lines"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Currency    string             `json:"currency"`
	Status      domain.OrderStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
}

func NewOrderPlaced(order *domain.Order) OrderPlaced {
	return OrderPlaced{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Lines:       order.LineKeys(),
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
	}
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlaced) error
}

type Noop struct{}

func (Noop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
