package engine

import (
	"math/rand"
	"testing"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState() domain.UserState {
	return domain.UserState{UserID: "user-1", Version: 3}
}

func TestAddToCart_NewLine(t *testing.T) {
	s, eff, err := AddToCart(newState(), "A", "M", 2)
	require.NoError(t, err)
	require.Len(t, s.Cart, 1)
	assert.Equal(t, domain.CartLine{ProductID: "A", Variant: "M", Quantity: 2}, s.Cart[0])
	assert.Equal(t, EffectLineAdded, eff.Kind)
	assert.Equal(t, int64(3), s.Version, "engine must not touch the version token")
}

func TestAddToCart_IncrementsExistingKey(t *testing.T) {
	s, _, err := AddToCart(newState(), "A", "", 2)
	require.NoError(t, err)
	s, eff, err := AddToCart(s, "A", "", 3)
	require.NoError(t, err)

	require.Len(t, s.Cart, 1)
	assert.Equal(t, 5, s.Cart[0].Quantity)
	assert.Equal(t, EffectLineUpdated, eff.Kind)
	assert.Equal(t, 5, eff.Quantity)
}

func TestAddToCart_VariantIsPartOfIdentity(t *testing.T) {
	s, _, _ := AddToCart(newState(), "A", "M", 1)
	s, _, _ = AddToCart(s, "A", "L", 1)
	s, _, _ = AddToCart(s, "A", "", 1)

	assert.Len(t, s.Cart, 3)
}

func TestAddToCart_InvalidQuantity(t *testing.T) {
	for _, qty := range []int{0, -1, -100} {
		before := newState()
		after, eff, err := AddToCart(before, "A", "", qty)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		assert.Equal(t, before, after)
		assert.False(t, eff.Changed())
	}
}

func TestAddToCart_CapsSummedQuantity(t *testing.T) {
	s, _, err := AddToCart(newState(), "A", "", domain.MaxLineQuantity)
	require.NoError(t, err)

	after, eff, err := AddToCart(s, "A", "", 1)
	assert.ErrorIs(t, err, domain.ErrQuantityLimit)
	assert.Equal(t, s, after)
	assert.False(t, eff.Changed())

	// other keys are counted separately
	_, _, err = AddToCart(s, "A", "XL", 1)
	assert.NoError(t, err)
}

func TestAddToCart_DoesNotTouchWishlist(t *testing.T) {
	s := newState()
	s.Wishlist = []domain.WishlistEntry{{ProductID: "A", Name: "Shoe"}}

	next, _, err := AddToCart(s, "A", "", 1)
	require.NoError(t, err)
	assert.Equal(t, s.Wishlist, next.Wishlist)
}

func TestAddToCart_DoesNotAliasInput(t *testing.T) {
	s, _, _ := AddToCart(newState(), "A", "", 1)
	_, _, _ = AddToCart(s, "A", "", 4)

	assert.Equal(t, 1, s.Cart[0].Quantity)
}

func TestRemoveFromCart(t *testing.T) {
	s, _, _ := AddToCart(newState(), "A", "", 1)
	s, _, _ = AddToCart(s, "B", "", 1)

	next, eff := RemoveFromCart(s, "A", "")
	require.Len(t, next.Cart, 1)
	assert.Equal(t, "B", next.Cart[0].ProductID)
	assert.Equal(t, EffectLineRemoved, eff.Kind)
	assert.Len(t, s.Cart, 2, "input snapshot must stay intact")
}

func TestRemoveFromCart_AbsentIsNoop(t *testing.T) {
	s, _, _ := AddToCart(newState(), "A", "M", 1)

	next, eff := RemoveFromCart(s, "A", "L")
	assert.Equal(t, s, next)
	assert.False(t, eff.Changed())
}

func TestSetQuantity(t *testing.T) {
	tests := []struct {
		name     string
		qty      int
		wantLen  int
		wantQty  int
		wantKind EffectKind
	}{
		{name: "replace", qty: 7, wantLen: 1, wantQty: 7, wantKind: EffectLineUpdated},
		{name: "same quantity", qty: 3, wantLen: 1, wantQty: 3, wantKind: EffectNone},
		{name: "zero removes", qty: 0, wantLen: 0, wantKind: EffectLineRemoved},
		{name: "negative removes", qty: -2, wantLen: 0, wantKind: EffectLineRemoved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, err := AddToCart(newState(), "p", "v", 3)
			require.NoError(t, err)

			next, eff := SetQuantity(s, "p", "v", tt.qty)
			require.Len(t, next.Cart, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantQty, next.Cart[0].Quantity)
			}
			assert.Equal(t, tt.wantKind, eff.Kind)
		})
	}
}

func TestSetQuantity_MissingLineStaysMissing(t *testing.T) {
	next, eff := SetQuantity(newState(), "p", "", 4)
	assert.Empty(t, next.Cart)
	assert.False(t, eff.Changed())
}

func TestAddThenSetZero_RemovesLine(t *testing.T) {
	s, _, err := AddToCart(newState(), "p", "v", 3)
	require.NoError(t, err)

	next, _ := SetQuantity(s, "p", "v", 0)
	_, found := next.FindLine(domain.LineKey{ProductID: "p", Variant: "v"})
	assert.False(t, found)
}

func TestAddRemoveSequences_KeepQuantityInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	key := domain.LineKey{ProductID: "p", Variant: "v"}

	for run := 0; run < 200; run++ {
		s := newState()
		expected := 0
		for step := 0; step < 30; step++ {
			if rng.Intn(4) == 0 {
				s, _ = RemoveFromCart(s, key.ProductID, key.Variant)
				expected = 0
			} else {
				qty := rng.Intn(5) + 1
				var err error
				s, _, err = AddToCart(s, key.ProductID, key.Variant, qty)
				if expected+qty > domain.MaxLineQuantity {
					require.ErrorIs(t, err, domain.ErrQuantityLimit)
				} else {
					require.NoError(t, err)
					expected += qty
				}
			}

			i, found := s.FindLine(key)
			if expected == 0 {
				assert.False(t, found)
				continue
			}
			require.True(t, found)
			assert.Equal(t, expected, s.Cart[i].Quantity)
			assert.Positive(t, s.Cart[i].Quantity)
			assert.Len(t, s.Cart, 1)
		}
	}
}

func TestRemoveLines_KeepsUnlistedLines(t *testing.T) {
	s, _, _ := AddToCart(newState(), "A", "", 2)
	s, _, _ = AddToCart(s, "B", "", 1)
	s, _, _ = AddToCart(s, "C", "S", 1)

	next, eff := RemoveLines(s, []domain.LineKey{{ProductID: "A"}, {ProductID: "C", Variant: "S"}})
	require.Len(t, next.Cart, 1)
	assert.Equal(t, "B", next.Cart[0].ProductID)
	assert.Equal(t, EffectLineRemoved, eff.Kind)

	cleared, eff := RemoveLines(next, []domain.LineKey{{ProductID: "B"}})
	assert.Empty(t, cleared.Cart)
	assert.Equal(t, EffectCartCleared, eff.Kind)
}

func TestRemoveLines_NothingMatches(t *testing.T) {
	s, _, _ := AddToCart(newState(), "A", "", 2)

	next, eff := RemoveLines(s, []domain.LineKey{{ProductID: "Z"}})
	assert.Equal(t, s, next)
	assert.False(t, eff.Changed())
}

func TestClearCart(t *testing.T) {
	s, _, _ := AddToCart(newState(), "A", "", 2)

	next, eff := ClearCart(s)
	assert.Empty(t, next.Cart)
	assert.Equal(t, EffectCartCleared, eff.Kind)

	_, eff = ClearCart(next)
	assert.False(t, eff.Changed())
}
