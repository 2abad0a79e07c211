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

// CartOps is the cart and wishlist surface of the cart service.
type CartOps interface {
	GetState(ctx context.Context, userID string) (*domain.UserState, error)
	AddToCart(ctx context.Context, userID, productID, variant string, qty int) (*domain.UserState, error)
	RemoveFromCart(ctx context.Context, userID, productID, variant string) (*domain.UserState, error)
	SetQuantity(ctx context.Context, userID, productID, variant string, qty int) (*domain.UserState, error)
	ClearCart(ctx context.Context, userID string) (*domain.UserState, error)
	AddToWishlist(ctx context.Context, userID, productID string) (*domain.UserState, bool, error)
	RemoveFromWishlist(ctx context.Context, userID, productID string) (*domain.UserState, error)
	ToggleWishlist(ctx context.Context, userID, productID string) (*domain.UserState, bool, error)
	MoveToCart(ctx context.Context, userID, productID, variant string) (*domain.UserState, error)
}

type CartHandler struct {
	carts   CartOps
	catalog catalog.Reader
	timeout time.Duration
	log     *logger.Logger
}

func NewCartHandler(carts CartOps, cat catalog.Reader, timeout time.Duration, log *logger.Logger) *CartHandler {
	return &CartHandler{carts: carts, catalog: cat, timeout: timeout, log: log}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Variant  string `json:"variant"`
	Quantity int    `json:"quantity"`
}

// StateResponseDTO is returned by writes; it carries the new version so
// clients can tell their write landed.
type StateResponseDTO struct {
	Version  int64                  `json:"version"`
	Cart     []domain.CartLine      `json:"cart"`
	Wishlist []domain.WishlistEntry `json:"wishlist"`
}

func stateResponse(s *domain.UserState) StateResponseDTO {
	out := StateResponseDTO{Version: s.Version, Cart: s.Cart, Wishlist: s.Wishlist}
	if out.Cart == nil {
		out.Cart = []domain.CartLine{}
	}
	if out.Wishlist == nil {
		out.Wishlist = []domain.WishlistEntry{}
	}
	return out
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	userID := getUserIDFromContext(ctx)

	state, err := h.carts.GetState(ctx, userID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	view, err := projector.ProjectCart(ctx, state, h.catalog)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	userID := getUserIDFromContext(ctx)

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity < 1 || req.Quantity > domain.MaxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	state, err := h.carts.AddToCart(ctx, userID, req.ProductID, req.Variant, req.Quantity)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, stateResponse(state))
}

// PUT /api/v1/cart/items/{product_id}; quantity 0 removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	userID := getUserIDFromContext(ctx)
	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity < 0 || req.Quantity > domain.MaxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	state, err := h.carts.SetQuantity(ctx, userID, productID, req.Variant, req.Quantity)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stateResponse(state))
}

// DELETE /api/v1/cart/items/{product_id}?variant=M
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	userID := getUserIDFromContext(ctx)

	state, err := h.carts.RemoveFromCart(ctx, userID, chi.URLParam(r, "product_id"), r.URL.Query().Get("variant"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stateResponse(state))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	state, err := h.carts.ClearCart(ctx, getUserIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stateResponse(state))
}
