package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string) domain.WishlistEntry {
	return domain.WishlistEntry{
		ProductID: id,
		Name:      "Product " + id,
		Price:     decimal.RequireFromString("499.99"),
		Image:     "https://img/" + id + ".jpg",
		AddedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestAddToWishlist_Idempotent(t *testing.T) {
	once, present := AddToWishlist(newState(), entry("A"))
	assert.False(t, present)

	twice, present := AddToWishlist(once, entry("A"))
	assert.True(t, present)
	assert.Equal(t, once, twice)
	assert.Len(t, twice.Wishlist, 1)
}

func TestAddToWishlist_KeepsFirstSnapshot(t *testing.T) {
	s, _ := AddToWishlist(newState(), entry("A"))

	changed := entry("A")
	changed.Price = decimal.NewFromInt(1)
	s, present := AddToWishlist(s, changed)

	assert.True(t, present)
	assert.True(t, s.Wishlist[0].Price.Equal(decimal.RequireFromString("499.99")))
}

func TestRemoveFromWishlist_Idempotent(t *testing.T) {
	s, _ := AddToWishlist(newState(), entry("A"))
	s, _ = AddToWishlist(s, entry("B"))

	once := RemoveFromWishlist(s, "A")
	twice := RemoveFromWishlist(once, "A")

	assert.Equal(t, once, twice)
	require.Len(t, twice.Wishlist, 1)
	assert.Equal(t, "B", twice.Wishlist[0].ProductID)
	assert.Len(t, s.Wishlist, 2)
}

func TestToggleWishlist(t *testing.T) {
	s, added := ToggleWishlist(newState(), entry("A"))
	assert.True(t, added)
	assert.Len(t, s.Wishlist, 1)

	s, added = ToggleWishlist(s, entry("A"))
	assert.False(t, added)
	assert.Empty(t, s.Wishlist)
}

func TestMoveToCart_MovesInOneState(t *testing.T) {
	s, _ := AddToWishlist(newState(), entry("A"))

	next, err := MoveToCart(s, "A", "M")
	require.NoError(t, err)
	assert.Empty(t, next.Wishlist)
	require.Len(t, next.Cart, 1)
	assert.Equal(t, domain.CartLine{ProductID: "A", Variant: "M", Quantity: 1}, next.Cart[0])
}

func TestMoveToCart_AlreadyInCartLeavesStateUnchanged(t *testing.T) {
	s, _ := AddToWishlist(newState(), entry("A"))
	s, _, err := AddToCart(s, "A", "M", 2)
	require.NoError(t, err)

	next, err := MoveToCart(s, "A", "M")
	assert.ErrorIs(t, err, domain.ErrAlreadyInCart)
	assert.Equal(t, s, next)
	assert.Len(t, next.Wishlist, 1)
	assert.Equal(t, 2, next.Cart[0].Quantity)
}

func TestMoveToCart_OtherVariantIsNotAConflict(t *testing.T) {
	s, _ := AddToWishlist(newState(), entry("A"))
	s, _, _ = AddToCart(s, "A", "S", 1)

	next, err := MoveToCart(s, "A", "L")
	require.NoError(t, err)
	assert.Len(t, next.Cart, 2)
	assert.Empty(t, next.Wishlist)
}

func TestMoveToCart_NotInWishlist(t *testing.T) {
	s := newState()

	next, err := MoveToCart(s, "A", "")
	assert.ErrorIs(t, err, domain.ErrNotInWishlist)
	assert.Equal(t, s, next)
}
