// Package payment captures and refunds electronic payments for checkout.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

// Capability is the payment side of order commit. A false captured with a
// nil error is a decline; err is reserved for gateway failures.
type Capability interface {
	Capture(ctx context.Context, method domain.PaymentMethod, amount decimal.Decimal, details domain.ShippingDetails) (captured bool, reference string, err error)
	Refund(ctx context.Context, reference string) error
}

var ErrUnknownCapture = errors.New("no capture with this reference")

type Refusal int

const (
	RefusalNone Refusal = iota
	RefusalInsufficientFunds
	RefusalCardExpired
	RefusalSuspectedFraud
	RefusalLimitExceeded
	RefusalDeclined
)

func (r Refusal) String() string {
	switch r {
	case RefusalNone:
		return "none"
	case RefusalInsufficientFunds:
		return "insufficient_funds"
	case RefusalCardExpired:
		return "card_expired"
	case RefusalSuspectedFraud:
		return "suspected_fraud"
	case RefusalLimitExceeded:
		return "limit_exceeded"
	default:
		return "declined"
	}
}
