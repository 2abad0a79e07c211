package checkout

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/events"
)

type mockCatalog struct {
	mu       sync.Mutex
	products map[string]domain.Product
	err      error
	calls    int
}

func (m *mockCatalog) GetProducts(_ context.Context, ids []string) (map[string]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]domain.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type mockOrders struct {
	mu     sync.Mutex
	orders []*domain.Order
	err    error
	calls  int
}

func (m *mockOrders) CreateOrder(_ context.Context, order *domain.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	m.orders = append(m.orders, order)
	return order.ID, nil
}

type mockPayments struct {
	decline  bool
	err      error
	captures []decimal.Decimal
	refunds  []string
}

func (m *mockPayments) Capture(_ context.Context, _ domain.PaymentMethod, amount decimal.Decimal, _ domain.ShippingDetails) (bool, string, error) {
	m.captures = append(m.captures, amount)
	if m.err != nil {
		return false, "", m.err
	}
	if m.decline {
		return false, "", nil
	}
	return true, "TXN-test", nil
}

func (m *mockPayments) Refund(_ context.Context, reference string) error {
	m.refunds = append(m.refunds, reference)
	return nil
}

// countingCarts wraps another Carts and counts calls.
type countingCarts struct {
	Carts
	loads     int
	removeErr error
	removed   [][]domain.LineKey
}

func (c *countingCarts) LoadRepairedState(ctx context.Context, userID string) (*domain.UserState, error) {
	c.loads++
	return c.Carts.LoadRepairedState(ctx, userID)
}

func (c *countingCarts) RemoveLines(ctx context.Context, userID string, keys []domain.LineKey) (*domain.UserState, error) {
	c.removed = append(c.removed, keys)
	if c.removeErr != nil {
		return nil, c.removeErr
	}
	return c.Carts.RemoveLines(ctx, userID, keys)
}

type recordingPublisher struct {
	events []events.OrderPlaced
	err    error
}

func (r *recordingPublisher) PublishOrderPlaced(_ context.Context, ev events.OrderPlaced) error {
	r.events = append(r.events, ev)
	return r.err
}
