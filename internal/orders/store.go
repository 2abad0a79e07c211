// Package orders persists committed orders. Orders are append-only for the
// checkout path; only the fulfillment side moves their status.
package orders

import (
	"context"
	"time"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

type Store interface {
	// CreateOrder assigns an id when order.ID is empty and returns it.
	CreateOrder(ctx context.Context, order *domain.Order) (string, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	// ListOrdersByUserID returns newest first.
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	// LatestOrderTime returns the zero time when the user has no orders.
	LatestOrderTime(ctx context.Context, userID string) (time.Time, error)
	UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error)
}
