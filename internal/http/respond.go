package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/pkg/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleError converts domain errors to HTTP responses. Unknown errors are
// logged and surfaced without detail.
func handleError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var (
		verr        *domain.ValidationError
		unavailable *domain.ProductUnavailableError
	)
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Code: "invalid_argument", Field: verr.Field})
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrQuantityLimit):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", err.Error())
	case errors.As(err, &unavailable):
		respondJSON(w, http.StatusConflict, ErrorResponse{Error: unavailable.Error(), Code: "product_unavailable", Details: unavailable.ProductID})
	case errors.Is(err, domain.ErrAlreadyInCart):
		respondError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domain.ErrNotInWishlist), errors.Is(err, domain.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, domain.ErrPaymentDeclined):
		respondError(w, http.StatusPaymentRequired, "payment_declined", err.Error())
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrConcurrentModification):
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusConflict, "conflict", "the cart changed concurrently, try again")
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		// a timed out write may or may not have landed; retrying is safe
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "a dependency is unavailable, try again")
	default:
		log.WithContext(r.Context()).Error("request failed", "path", r.URL.Path, "request_id", getRequestID(r.Context()), "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
