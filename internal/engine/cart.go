// Package engine holds the cart and wishlist mutation rules. Every function
// takes a UserState by value and returns the next state; nothing here
// performs I/O, so callers own persistence and retries.
package engine

import (
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

type EffectKind string

const (
	EffectNone        EffectKind = "none"
	EffectLineAdded   EffectKind = "line_added"
	EffectLineUpdated EffectKind = "line_updated"
	EffectLineRemoved EffectKind = "line_removed"
	EffectCartCleared EffectKind = "cart_cleared"
)

// Effect describes what a cart operation changed.
type Effect struct {
	Kind     EffectKind
	Key      domain.LineKey
	Quantity int
}

func (e Effect) Changed() bool {
	return e.Kind != EffectNone
}

func AddToCart(state domain.UserState, productID, variant string, qty int) (domain.UserState, Effect, error) {
	if qty < 1 {
		return state, Effect{Kind: EffectNone}, domain.ErrInvalidQuantity
	}

	key := domain.LineKey{ProductID: productID, Variant: variant}
	current := 0
	if i, ok := state.FindLine(key); ok {
		current = state.Cart[i].Quantity
	}
	if current+qty > domain.MaxLineQuantity {
		return state, Effect{Kind: EffectNone, Key: key}, domain.ErrQuantityLimit
	}

	next := state.Clone()
	if i, ok := next.FindLine(key); ok {
		next.Cart[i].Quantity += qty
		return next, Effect{Kind: EffectLineUpdated, Key: key, Quantity: next.Cart[i].Quantity}, nil
	}

	next.Cart = append(next.Cart, domain.CartLine{ProductID: productID, Variant: variant, Quantity: qty})
	return next, Effect{Kind: EffectLineAdded, Key: key, Quantity: qty}, nil
}

func RemoveFromCart(state domain.UserState, productID, variant string) (domain.UserState, Effect) {
	key := domain.LineKey{ProductID: productID, Variant: variant}
	i, ok := state.FindLine(key)
	if !ok {
		return state, Effect{Kind: EffectNone, Key: key}
	}

	next := state.Clone()
	next.Cart = append(next.Cart[:i], next.Cart[i+1:]...)
	return next, Effect{Kind: EffectLineRemoved, Key: key}
}

// SetQuantity replaces the quantity of an existing line. A quantity below 1
// removes the line; a missing line is left missing.
func SetQuantity(state domain.UserState, productID, variant string, qty int) (domain.UserState, Effect) {
	if qty < 1 {
		return RemoveFromCart(state, productID, variant)
	}

	key := domain.LineKey{ProductID: productID, Variant: variant}
	i, ok := state.FindLine(key)
	if !ok || state.Cart[i].Quantity == qty {
		return state, Effect{Kind: EffectNone, Key: key}
	}

	next := state.Clone()
	next.Cart[i].Quantity = qty
	return next, Effect{Kind: EffectLineUpdated, Key: key, Quantity: qty}
}

// RemoveLines drops every line whose key is listed. Used after an order is
// committed so lines added by another request in the meantime survive.
func RemoveLines(state domain.UserState, keys []domain.LineKey) (domain.UserState, Effect) {
	if len(keys) == 0 || len(state.Cart) == 0 {
		return state, Effect{Kind: EffectNone}
	}

	drop := make(map[domain.LineKey]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}

	next := state.Clone()
	kept := next.Cart[:0]
	for _, l := range next.Cart {
		if _, ok := drop[l.Key()]; !ok {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(state.Cart) {
		return state, Effect{Kind: EffectNone}
	}
	next.Cart = kept
	if len(kept) == 0 {
		return next, Effect{Kind: EffectCartCleared}
	}
	return next, Effect{Kind: EffectLineRemoved}
}

func ClearCart(state domain.UserState) (domain.UserState, Effect) {
	if len(state.Cart) == 0 {
		return state, Effect{Kind: EffectNone}
	}
	next := state.Clone()
	next.Cart = nil
	return next, Effect{Kind: EffectCartCleared}
}
