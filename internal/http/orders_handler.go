package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/catalog"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/projector"
	"github.com/sinan-prvt/Hopyfy-Cart/pkg/logger"
)

type OrderReader interface {
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderReader
	catalog catalog.Reader
	timeout time.Duration
	log     *logger.Logger
}

func NewOrdersHandler(orders OrderReader, cat catalog.Reader, timeout time.Duration, log *logger.Logger) *OrdersHandler {
	return &OrdersHandler{orders: orders, catalog: cat, timeout: timeout, log: log}
}

type UpdateStatusRequestDTO struct {
	Status domain.OrderStatus `json:"status"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrdersByUserID(ctx, getUserIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, projector.ProjectOrders(ctx, orders, h.catalog))
}

// GET /api/v1/orders/{order_id}; another user's order reads as not found.
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrderByID(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if order.UserID != getUserIDFromContext(ctx) {
		handleError(w, r, h.log, domain.ErrOrderNotFound)
		return
	}
	respondJSON(w, http.StatusOK, projector.ProjectOrder(ctx, order, h.catalog))
}

// PATCH /api/v1/admin/orders/{order_id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		handleError(w, r, h.log, domain.NewValidationError("status", "unknown order status"))
		return
	}

	order, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "order_id"), req.Status)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.log.WithContext(ctx).Info("order status changed", "order_id", order.ID, "status", order.Status)
	respondJSON(w, http.StatusOK, projector.ProjectOrder(ctx, order, h.catalog))
}
