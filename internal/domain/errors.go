package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrInvalidQuantity        = errors.New("quantity must be at least 1")
	ErrQuantityLimit          = fmt.Errorf("line quantity cannot exceed %d", MaxLineQuantity)
	ErrEmptyCart              = errors.New("cart is empty, nothing to checkout")
	ErrAlreadyInCart          = errors.New("item already in cart")
	ErrNotInWishlist          = errors.New("item not in wishlist")
	ErrProductUnavailable     = errors.New("product unavailable")
	ErrPaymentDeclined        = errors.New("payment was not captured")
	ErrConcurrentModification = errors.New("user state was modified concurrently")
	ErrBusy                   = errors.New("too many concurrent updates, try again")
	ErrUnavailable            = errors.New("upstream unavailable")
	ErrOrderNotFound          = errors.New("order not found")
	ErrIllegalTransition      = errors.New("illegal transition of order status")
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

type ProductUnavailableError struct {
	ProductID string
	Reason    string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s unavailable: %s", e.ProductID, e.Reason)
}

func (e *ProductUnavailableError) Is(target error) bool {
	return target == ErrProductUnavailable
}

// IsRetryable reports errors the caller may retry after re-reading state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrBusy) || errors.Is(err, ErrConcurrentModification)
}
