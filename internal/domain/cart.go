package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineKey identifies a cart line. Variant is empty for products sold without sizes.
type LineKey struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant,omitempty"`
}

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 99

type CartLine struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Variant: l.Variant}
}

// WishlistEntry keeps a copy of the product fields at the time it was saved.
type WishlistEntry struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
}

// UserState is a transient copy of the persisted user record. Version is the
// optimistic concurrency token handed back to CompareAndSwap.
type UserState struct {
	UserID        string          `json:"user_id"`
	Cart          []CartLine      `json:"cart"`
	Wishlist      []WishlistEntry `json:"wishlist"`
	Version       int64           `json:"version"`
	CartUpdatedAt time.Time       `json:"cart_updated_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate slices freely.
func (s UserState) Clone() UserState {
	out := s
	if s.Cart != nil {
		out.Cart = make([]CartLine, len(s.Cart))
		copy(out.Cart, s.Cart)
	}
	if s.Wishlist != nil {
		out.Wishlist = make([]WishlistEntry, len(s.Wishlist))
		copy(out.Wishlist, s.Wishlist)
	}
	return out
}

func (s UserState) FindLine(key LineKey) (int, bool) {
	for i, l := range s.Cart {
		if l.Key() == key {
			return i, true
		}
	}
	return -1, false
}

func (s UserState) HasProductInCart(productID string) bool {
	for _, l := range s.Cart {
		if l.ProductID == productID {
			return true
		}
	}
	return false
}

func (s UserState) FindWishlist(productID string) (int, bool) {
	for i, e := range s.Wishlist {
		if e.ProductID == productID {
			return i, true
		}
	}
	return -1, false
}

// SameCart reports whether two carts hold the same lines in the same order.
func SameCart(a, b []CartLine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
