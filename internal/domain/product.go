package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images,omitempty"`
	Category    string          `json:"category,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PrimaryImage is the single media reference used by cart, wishlist and order views.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// AcceptsVariant checks a requested size against the product's size list.
// Products without sizes only accept the empty variant.
func (p Product) AcceptsVariant(variant string) bool {
	if len(p.Sizes) == 0 {
		return variant == ""
	}
	return slices.Contains(p.Sizes, variant)
}

// Snapshot captures the fields a wishlist keeps for a product.
func (p Product) Snapshot(addedAt time.Time) WishlistEntry {
	return WishlistEntry{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.PrimaryImage(),
		AddedAt:   addedAt,
	}
}
