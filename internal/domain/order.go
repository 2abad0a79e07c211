package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is a price/name snapshot taken at commit time and never updated.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Variant   string          `json:"variant,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l OrderLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Variant: l.Variant}
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderLine     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Currency        string          `json:"currency"`
	Status          OrderStatus     `json:"status"`
	ShippingDetails ShippingDetails `json:"shipping_details"`
	PaymentMethod   PaymentSummary  `json:"payment_method"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LineKeys returns the cart identity keys this order was built from.
func (o Order) LineKeys() []LineKey {
	keys := make([]LineKey, len(o.Items))
	for i, item := range o.Items {
		keys[i] = item.Key()
	}
	return keys
}
