package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every UserStore must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) UserStore) {
	t.Run("missing user is empty with version 0", func(t *testing.T) {
		store := newStore(t)

		state, err := store.GetUser(context.Background(), "nobody")
		require.NoError(t, err)
		assert.Equal(t, "nobody", state.UserID)
		assert.Empty(t, state.Cart)
		assert.Empty(t, state.Wishlist)
		assert.Zero(t, state.Version)
	})

	t.Run("create then update bumps version", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		next := &domain.UserState{
			Cart: []domain.CartLine{{ProductID: "A", Variant: "M", Quantity: 2}},
			Wishlist: []domain.WishlistEntry{{
				ProductID: "W",
				Name:      "Watch",
				Price:     decimal.RequireFromString("1999.99"),
				Image:     "/img/w.jpg",
				AddedAt:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
			}},
			CartUpdatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		}
		ok, v1, err := store.CompareAndSwap(ctx, "u1", 0, next)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(1), v1)

		got, err := store.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
		assert.Equal(t, next.Cart, got.Cart)
		require.Len(t, got.Wishlist, 1)
		assert.True(t, got.Wishlist[0].Price.Equal(decimal.RequireFromString("1999.99")))
		assert.Equal(t, "Watch", got.Wishlist[0].Name)
		assert.True(t, got.CartUpdatedAt.Equal(next.CartUpdatedAt))

		got.Cart = nil
		ok, v2, err := store.CompareAndSwap(ctx, "u1", got.Version, got)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(2), v2)

		again, err := store.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, again.Cart)
		assert.Len(t, again.Wishlist, 1)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		ok, _, err := store.CompareAndSwap(ctx, "u2", 0, &domain.UserState{})
		require.NoError(t, err)
		require.True(t, ok)

		ok, _, err = store.CompareAndSwap(ctx, "u2", 0, &domain.UserState{Cart: []domain.CartLine{{ProductID: "X", Quantity: 1}}})
		require.NoError(t, err)
		assert.False(t, ok, "second create must conflict")

		ok, _, err = store.CompareAndSwap(ctx, "u2", 7, &domain.UserState{})
		require.NoError(t, err)
		assert.False(t, ok)

		state, err := store.GetUser(ctx, "u2")
		require.NoError(t, err)
		assert.Empty(t, state.Cart)
		assert.Equal(t, int64(1), state.Version)
	})

	t.Run("concurrent writers on one version, one wins", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const writers = 8
		var wg sync.WaitGroup
		results := make(chan bool, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, _, err := store.CompareAndSwap(ctx, "u3", 0, &domain.UserState{})
				assert.NoError(t, err)
				results <- ok
			}()
		}
		wg.Wait()
		close(results)

		wins := 0
		for ok := range results {
			if ok {
				wins++
			}
		}
		assert.Equal(t, 1, wins)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(*testing.T) UserStore { return NewMemoryStore() })
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, _, err := store.CompareAndSwap(ctx, "u", 0, &domain.UserState{Cart: []domain.CartLine{{ProductID: "A", Quantity: 1}}})
	require.NoError(t, err)

	got, err := store.GetUser(ctx, "u")
	require.NoError(t, err)
	got.Cart[0].Quantity = 99

	again, err := store.GetUser(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Cart[0].Quantity)
}
