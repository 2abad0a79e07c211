package engine

import (
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

// AddToWishlist never duplicates an entry; alreadyPresent tells the caller
// the state was returned unchanged.
func AddToWishlist(state domain.UserState, entry domain.WishlistEntry) (domain.UserState, bool) {
	if _, ok := state.FindWishlist(entry.ProductID); ok {
		return state, true
	}
	next := state.Clone()
	next.Wishlist = append(next.Wishlist, entry)
	return next, false
}

func RemoveFromWishlist(state domain.UserState, productID string) domain.UserState {
	i, ok := state.FindWishlist(productID)
	if !ok {
		return state
	}
	next := state.Clone()
	next.Wishlist = append(next.Wishlist[:i], next.Wishlist[i+1:]...)
	return next
}

// ToggleWishlist adds the entry when absent and removes it otherwise.
func ToggleWishlist(state domain.UserState, entry domain.WishlistEntry) (domain.UserState, bool) {
	if _, ok := state.FindWishlist(entry.ProductID); ok {
		return RemoveFromWishlist(state, entry.ProductID), false
	}
	next, _ := AddToWishlist(state, entry)
	return next, true
}

// MoveToCart moves a wishlist entry into the cart as a single quantity-1 line.
// It refuses to merge into an existing line with the same key.
func MoveToCart(state domain.UserState, productID, variant string) (domain.UserState, error) {
	key := domain.LineKey{ProductID: productID, Variant: variant}
	if _, ok := state.FindLine(key); ok {
		return state, domain.ErrAlreadyInCart
	}
	if _, ok := state.FindWishlist(productID); !ok {
		return state, domain.ErrNotInWishlist
	}

	next := RemoveFromWishlist(state, productID)
	next, _, err := AddToCart(next, productID, variant, 1)
	if err != nil {
		return state, err
	}
	return next, nil
}
