package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/cache"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store repository.UserStore, cat *mockCatalog) *CartService {
	return NewCartService(store, nil, cat, nil, nil, Options{})
}

func TestAddToCart(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStore(), newMockCatalog(tee, shoes, retired))

	state, err := svc.AddToCart(ctx, "u1", "p-tee", "M", 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: "p-tee", Variant: "M", Quantity: 2}}, state.Cart)
	assert.Equal(t, int64(1), state.Version)
	assert.False(t, state.CartUpdatedAt.IsZero())

	state, err = svc.AddToCart(ctx, "u1", "p-tee", "M", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Cart[0].Quantity)

	state, err = svc.AddToCart(ctx, "u1", "p-tee", "L", 1)
	require.NoError(t, err)
	assert.Len(t, state.Cart, 2, "different size is a different line")
}

func TestAddToCart_Rejections(t *testing.T) {
	ctx := context.Background()
	cat := newMockCatalog(tee, shoes, retired)
	svc := newTestService(repository.NewMemoryStore(), cat)

	_, err := svc.AddToCart(ctx, "u1", "p-tee", "M", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Zero(t, cat.Calls(), "quantity is checked before the catalog")

	_, err = svc.AddToCart(ctx, "u1", "p-missing", "", 1)
	var unavailable *domain.ProductUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "p-missing", unavailable.ProductID)

	_, err = svc.AddToCart(ctx, "u1", "p-old", "", 1)
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)

	_, err = svc.AddToCart(ctx, "u1", "p-tee", "", 1)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "variant", verr.Field)

	_, err = svc.AddToCart(ctx, "u1", "p-shoes", "XL", 1)
	require.ErrorAs(t, err, &verr)

	state, err := svc.LoadState(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, state.Cart)
	assert.Zero(t, state.Version, "nothing was written")
}

func TestAddToCart_CatalogDown(t *testing.T) {
	cat := newMockCatalog()
	cat.err = fmt.Errorf("dial: %w", domain.ErrUnavailable)
	svc := newTestService(repository.NewMemoryStore(), cat)

	_, err := svc.AddToCart(context.Background(), "u1", "p-tee", "M", 1)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.True(t, domain.IsRetryable(err))
}

func TestAddToCart_RepeatedAddsCannotPassLineLimit(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := newTestService(store, newMockCatalog(shoes))

	_, err := svc.AddToCart(ctx, "u1", "p-shoes", "", 60)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "u1", "p-shoes", "", 40)
	assert.ErrorIs(t, err, domain.ErrQuantityLimit)

	_, err = svc.SetQuantity(ctx, "u1", "p-shoes", "", domain.MaxLineQuantity+1)
	assert.ErrorIs(t, err, domain.ErrQuantityLimit)

	stored, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: "p-shoes", Quantity: 60}}, stored.Cart)
	assert.Equal(t, int64(1), stored.Version, "rejected adds do not write")
}

func TestSetQuantityAndRemove(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStore(), newMockCatalog(tee, shoes))

	_, err := svc.AddToCart(ctx, "u1", "p-tee", "S", 3)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "u1", "p-shoes", "", 1)
	require.NoError(t, err)

	state, err := svc.SetQuantity(ctx, "u1", "p-tee", "S", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, state.Cart[0].Quantity)

	state, err = svc.SetQuantity(ctx, "u1", "p-tee", "S", 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: "p-shoes", Quantity: 1}}, state.Cart)

	before := state.Version
	state, err = svc.RemoveFromCart(ctx, "u1", "p-tee", "S")
	require.NoError(t, err)
	assert.Equal(t, before, state.Version, "no-op removal does not write")

	state, err = svc.RemoveFromCart(ctx, "u1", "p-shoes", "")
	require.NoError(t, err)
	assert.Empty(t, state.Cart)
}

func TestRemoveLines_KeepsLinesNotNamed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStore(), newMockCatalog(tee, shoes))

	_, err := svc.AddToCart(ctx, "u1", "p-tee", "M", 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "u1", "p-shoes", "", 2)
	require.NoError(t, err)

	state, err := svc.RemoveLines(ctx, "u1", []domain.LineKey{{ProductID: "p-tee", Variant: "M"}})
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: "p-shoes", Quantity: 2}}, state.Cart)

	state, err = svc.ClearCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, state.Cart)
}

func TestConcurrentAddsFromSameVersionBothLand(t *testing.T) {
	ctx := context.Background()
	store := newBarrierStore(2)
	svc := newTestService(store, newMockCatalog(tee, shoes))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.AddToCart(ctx, "u1", "p-tee", "M", 1)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.AddToCart(ctx, "u1", "p-shoes", "", 1)
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	state, err := store.MemoryStore.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, state.Cart, 2)
	assert.Equal(t, int64(2), state.Version)
}

func TestManyConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewCartService(store, nil, newMockCatalog(shoes), nil, nil, Options{MaxAttempts: 100})

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddToCart(ctx, "u1", "p-shoes", "", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, state.Cart, 1)
	assert.Equal(t, workers, state.Cart[0].Quantity, "no lost update")
}

func TestMutate_GivesUpWithBusy(t *testing.T) {
	store := &conflictStore{MemoryStore: repository.NewMemoryStore()}
	svc := newTestService(store, newMockCatalog(shoes))

	_, err := svc.AddToCart(context.Background(), "u1", "p-shoes", "", 1)
	assert.ErrorIs(t, err, domain.ErrBusy)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Equal(t, int32(DefaultMaxAttempts), store.swaps.Load())
}

func TestMutate_StoreUnavailable(t *testing.T) {
	store := failingStore{err: fmt.Errorf("mongo: %w", domain.ErrUnavailable)}
	svc := newTestService(store, newMockCatalog(shoes))

	_, err := svc.RemoveFromCart(context.Background(), "u1", "p-shoes", "")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	cat := newMockCatalog(tee, shoes, retired)
	svc := newTestService(repository.NewMemoryStore(), cat)

	state, present, err := svc.AddToWishlist(ctx, "u1", "p-shoes")
	require.NoError(t, err)
	assert.False(t, present)
	require.Len(t, state.Wishlist, 1)
	assert.Equal(t, "Shoes", state.Wishlist[0].Name)
	assert.Equal(t, "/img/shoes.jpg", state.Wishlist[0].Image)
	assert.True(t, state.CartUpdatedAt.IsZero(), "wishlist writes do not touch the cart clock")

	state, present, err = svc.AddToWishlist(ctx, "u1", "p-shoes")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Len(t, state.Wishlist, 1)
	assert.Equal(t, int64(1), state.Version)

	_, _, err = svc.AddToWishlist(ctx, "u1", "p-old")
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)

	state, err = svc.RemoveFromWishlist(ctx, "u1", "p-shoes")
	require.NoError(t, err)
	assert.Empty(t, state.Wishlist)

	state, err = svc.RemoveFromWishlist(ctx, "u1", "p-shoes")
	require.NoError(t, err)
	assert.Empty(t, state.Wishlist)
}

func TestToggleWishlist(t *testing.T) {
	ctx := context.Background()
	cat := newMockCatalog(tee)
	svc := newTestService(repository.NewMemoryStore(), cat)

	state, added, err := svc.ToggleWishlist(ctx, "u1", "p-tee")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Len(t, state.Wishlist, 1)

	// removing must work even when the catalog is down
	cat.err = errors.New("catalog down")
	state, added, err = svc.ToggleWishlist(ctx, "u1", "p-tee")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, state.Wishlist)

	_, _, err = svc.ToggleWishlist(ctx, "u1", "p-tee")
	assert.Error(t, err)
}

func TestMoveToCart(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStore(), newMockCatalog(tee, shoes))

	_, _, err := svc.AddToWishlist(ctx, "u1", "p-tee")
	require.NoError(t, err)

	_, err = svc.MoveToCart(ctx, "u1", "p-tee", "")
	assert.ErrorIs(t, err, domain.ErrValidation, "sized product needs a size")

	state, err := svc.MoveToCart(ctx, "u1", "p-tee", "M")
	require.NoError(t, err)
	assert.Empty(t, state.Wishlist)
	assert.Equal(t, []domain.CartLine{{ProductID: "p-tee", Variant: "M", Quantity: 1}}, state.Cart)

	_, err = svc.MoveToCart(ctx, "u1", "p-shoes", "")
	assert.ErrorIs(t, err, domain.ErrNotInWishlist)
}

func TestMoveToCart_AlreadyInCartLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStore(), newMockCatalog(shoes))

	_, err := svc.AddToCart(ctx, "u1", "p-shoes", "", 2)
	require.NoError(t, err)
	before, _, err := svc.AddToWishlist(ctx, "u1", "p-shoes")
	require.NoError(t, err)

	_, err = svc.MoveToCart(ctx, "u1", "p-shoes", "")
	assert.ErrorIs(t, err, domain.ErrAlreadyInCart)

	after, err := svc.LoadState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Cart, after.Cart)
	assert.Len(t, after.Wishlist, 1)
}

func TestGetState_UsesCacheAndInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := repository.NewMemoryStore()
	svc := NewCartService(store, cache.NewRedisCache(client, time.Minute), newMockCatalog(shoes), nil, nil, Options{})

	_, err := svc.AddToCart(ctx, "u1", "p-shoes", "", 1)
	require.NoError(t, err)

	state, err := svc.GetState(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, state.Cart, 1)
	assert.True(t, mr.Exists("user_state:u1"), "read fills the cache")

	_, err = svc.ClearCart(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, mr.Exists("user_state:u1"), "write invalidates the cache")

	state, err = svc.GetState(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, state.Cart)
}

func TestGetState_CacheDownFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := repository.NewMemoryStore()
	svc := NewCartService(store, cache.NewRedisCache(client, time.Minute), newMockCatalog(shoes), nil, nil, Options{})
	_, err := svc.AddToCart(ctx, "u1", "p-shoes", "", 1)
	require.NoError(t, err)

	mr.Close()
	state, err := svc.GetState(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, state.Cart, 1)
}
