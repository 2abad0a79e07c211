package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/repository"
)

type mockCatalog struct {
	mu       sync.Mutex
	products map[string]domain.Product
	err      error
	calls    int
}

func newMockCatalog(products ...domain.Product) *mockCatalog {
	m := &mockCatalog{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
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

func (m *mockCatalog) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockOrderTimes struct {
	latest time.Time
	err    error
}

func (m *mockOrderTimes) LatestOrderTime(context.Context, string) (time.Time, error) {
	return m.latest, m.err
}

// barrierStore holds the first n reads until all n have happened, so n
// writers start from the same version.
type barrierStore struct {
	*repository.MemoryStore
	n       int32
	reads   atomic.Int32
	release chan struct{}
	once    sync.Once
}

func newBarrierStore(n int) *barrierStore {
	return &barrierStore{MemoryStore: repository.NewMemoryStore(), n: int32(n), release: make(chan struct{})}
}

func (b *barrierStore) GetUser(ctx context.Context, userID string) (*domain.UserState, error) {
	state, err := b.MemoryStore.GetUser(ctx, userID)
	if r := b.reads.Add(1); r <= b.n {
		if r == b.n {
			b.once.Do(func() { close(b.release) })
		}
		<-b.release
	}
	return state, err
}

// conflictStore loses every swap.
type conflictStore struct {
	*repository.MemoryStore
	swaps atomic.Int32
}

func (c *conflictStore) CompareAndSwap(context.Context, string, int64, *domain.UserState) (bool, int64, error) {
	c.swaps.Add(1)
	return false, 0, nil
}

type failingStore struct {
	err error
}

func (f failingStore) GetUser(context.Context, string) (*domain.UserState, error) { return nil, f.err }
func (f failingStore) CompareAndSwap(context.Context, string, int64, *domain.UserState) (bool, int64, error) {
	return false, 0, f.err
}

var (
	tee = domain.Product{
		ID: "p-tee", Name: "Tee", Price: decimal.NewFromInt(500), Stock: 10,
		Images: []string{"/img/tee.jpg"}, Sizes: []string{"S", "M", "L"}, IsActive: true,
	}
	shoes = domain.Product{
		ID: "p-shoes", Name: "Shoes", Price: decimal.NewFromInt(1500), Stock: 5,
		Images: []string{"/img/shoes.jpg"}, IsActive: true,
	}
	retired = domain.Product{ID: "p-old", Name: "Old", Price: decimal.NewFromInt(10), IsActive: false}
)
