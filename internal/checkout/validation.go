package checkout

import (
	"regexp"
	"strings"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

var (
	phonePattern      = regexp.MustCompile(`^\d{10}$`)
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3}$`)
	upiPattern        = regexp.MustCompile(`^[\w.-]+[@$][\w.-]+$`)
)

// Validate checks the request fields in form order and reports the first
// failing field.
func Validate(method domain.PaymentMethod, shipping domain.ShippingDetails) error {
	switch {
	case strings.TrimSpace(shipping.Name) == "":
		return domain.NewValidationError("name", "required")
	case strings.TrimSpace(shipping.Address) == "":
		return domain.NewValidationError("address", "required")
	case !phonePattern.MatchString(shipping.Phone):
		return domain.NewValidationError("phone", "must be 10 digits")
	}

	switch method.Kind {
	case domain.PaymentCOD:
		return nil
	case domain.PaymentCard:
		switch {
		case !cardNumberPattern.MatchString(method.CardNumber):
			return domain.NewValidationError("card_number", "must be 16 digits")
		case !expiryPattern.MatchString(method.Expiry):
			return domain.NewValidationError("expiry", "must be MM/YY")
		case !cvvPattern.MatchString(method.CVV):
			return domain.NewValidationError("cvv", "must be 3 digits")
		}
		return nil
	case domain.PaymentUPI:
		if !upiPattern.MatchString(method.UPIHandle) {
			return domain.NewValidationError("upi_handle", "must look like name@bank")
		}
		return nil
	case "":
		return domain.NewValidationError("payment_method", "required")
	default:
		return domain.NewValidationError("payment_method", "must be cod, card or upi")
	}
}
