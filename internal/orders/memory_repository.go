package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

// MemoryRepository backs single-process runs and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[string]domain.Order),
		now:    time.Now,
	}
}

func (r *MemoryRepository) CreateOrder(_ context.Context, order *domain.Order) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if _, exists := r.orders[order.ID]; exists {
		return "", fmt.Errorf("insert order: duplicate id %s", order.ID)
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = r.now().UTC()
	}
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = copyOrder(*order)
	return order.ID, nil
}

func (r *MemoryRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := copyOrder(order)
	return &out, nil
}

func (r *MemoryRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			o := copyOrder(order)
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) LatestOrderTime(_ context.Context, userID string) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest time.Time
	for _, order := range r.orders {
		if order.UserID == userID && order.CreatedAt.After(latest) {
			latest = order.CreatedAt
		}
	}
	return latest, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, order.Status, next)
	}
	order.Status = next
	order.UpdatedAt = r.now().UTC()
	r.orders[id] = order

	out := copyOrder(order)
	return &out, nil
}

func copyOrder(o domain.Order) domain.Order {
	items := make([]domain.OrderLine, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
