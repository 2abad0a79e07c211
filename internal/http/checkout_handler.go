package http

import (
	"context"
	"net/http"
	"time"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/catalog"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/projector"
	"github.com/sinan-prvt/Hopyfy-Cart/pkg/logger"
)

type OrderPlacer interface {
	PlaceOrderForUser(ctx context.Context, userID string, method domain.PaymentMethod, shipping domain.ShippingDetails) (*domain.Order, error)
}

type CheckoutHandler struct {
	placer  OrderPlacer
	catalog catalog.Reader
	timeout time.Duration
	log     *logger.Logger
}

func NewCheckoutHandler(placer OrderPlacer, cat catalog.Reader, timeout time.Duration, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{placer: placer, catalog: cat, timeout: timeout, log: log}
}

type PlaceOrderRequestDTO struct {
	PaymentMethod   domain.PaymentMethod   `json:"payment_method"`
	ShippingDetails domain.ShippingDetails `json:"shipping_details"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.placer.PlaceOrderForUser(ctx, getUserIDFromContext(ctx), req.PaymentMethod, req.ShippingDetails)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, projector.ProjectOrder(ctx, order, h.catalog))
}
