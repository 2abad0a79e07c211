package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/catalog"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/projector"
	"github.com/sinan-prvt/Hopyfy-Cart/pkg/logger"
)

type WishlistHandler struct {
	carts   CartOps
	catalog catalog.Reader
	timeout time.Duration
	log     *logger.Logger
}

func NewWishlistHandler(carts CartOps, cat catalog.Reader, timeout time.Duration, log *logger.Logger) *WishlistHandler {
	return &WishlistHandler{carts: carts, catalog: cat, timeout: timeout, log: log}
}

type WishlistAddRequestDTO struct {
	ProductID string `json:"product_id"`
}

type MoveToCartRequestDTO struct {
	Variant string `json:"variant"`
}

type ToggleResponseDTO struct {
	StateResponseDTO
	Wishlisted bool `json:"wishlisted"`
}

// GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	state, err := h.carts.GetState(ctx, getUserIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, projector.ProjectWishlist(ctx, state, h.catalog))
}

// POST /api/v1/wishlist/items answers 201 for a new entry and 200 when the
// product was already there.
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req WishlistAddRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	state, present, err := h.carts.AddToWishlist(ctx, getUserIDFromContext(ctx), req.ProductID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	code := http.StatusCreated
	if present {
		code = http.StatusOK
	}
	respondJSON(w, code, stateResponse(state))
}

// DELETE /api/v1/wishlist/items/{product_id}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	state, err := h.carts.RemoveFromWishlist(ctx, getUserIDFromContext(ctx), chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stateResponse(state))
}

// POST /api/v1/wishlist/items/{product_id}/toggle
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	state, added, err := h.carts.ToggleWishlist(ctx, getUserIDFromContext(ctx), chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, ToggleResponseDTO{StateResponseDTO: stateResponse(state), Wishlisted: added})
}

// POST /api/v1/wishlist/items/{product_id}/move
func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req MoveToCartRequestDTO
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	state, err := h.carts.MoveToCart(ctx, getUserIDFromContext(ctx), chi.URLParam(r, "product_id"), req.Variant)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stateResponse(state))
}
