// Package projector joins stored cart, wishlist and order records with the
// catalog to build read views. Nothing here writes.
package projector

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/catalog"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

// PricedLine is one row of a cart or order view. Stale lines reference a
// product the catalog no longer sells and do not count toward totals. Live
// is true when UnitPrice came from the catalog rather than a snapshot.
type PricedLine struct {
	ProductID string          `json:"product_id"`
	Variant   string          `json:"variant,omitempty"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Stale     bool            `json:"stale"`
	Live      bool            `json:"live"`
}

type CartView struct {
	UserID    string          `json:"user_id"`
	Lines     []PricedLine    `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	Version   int64           `json:"version"`
}

type WishlistItem struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Image         string          `json:"image,omitempty"`
	Price         decimal.Decimal `json:"price"`
	SnapshotPrice decimal.Decimal `json:"snapshot_price"`
	AddedAt       time.Time       `json:"added_at"`
	InCart        bool            `json:"in_cart"`
	Stale         bool            `json:"stale"`
	Live          bool            `json:"live"`
}

type WishlistView struct {
	UserID string         `json:"user_id"`
	Items  []WishlistItem `json:"items"`
}

type OrderView struct {
	ID              string                 `json:"id"`
	Status          domain.OrderStatus     `json:"status"`
	Lines           []PricedLine           `json:"lines"`
	Total           decimal.Decimal        `json:"total"`
	Currency        string                 `json:"currency"`
	ShippingDetails domain.ShippingDetails `json:"shipping_details"`
	PaymentMethod   domain.PaymentSummary  `json:"payment_method"`
	CreatedAt       time.Time              `json:"created_at"`
}

// ProjectCart prices the cart at current catalog prices. A cart cannot be
// priced without the catalog, so a lookup failure is returned.
func ProjectCart(ctx context.Context, state *domain.UserState, cat catalog.Reader) (*CartView, error) {
	view := &CartView{
		UserID:  state.UserID,
		Lines:   make([]PricedLine, 0, len(state.Cart)),
		Total:   decimal.Zero,
		Version: state.Version,
	}
	if len(state.Cart) == 0 {
		return view, nil
	}

	ids := make([]string, len(state.Cart))
	for i, l := range state.Cart {
		ids[i] = l.ProductID
	}
	products, err := cat.GetProducts(ctx, catalog.UniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("price cart: %w", err)
	}

	for _, l := range state.Cart {
		line := PricedLine{ProductID: l.ProductID, Variant: l.Variant, Quantity: l.Quantity, UnitPrice: decimal.Zero, LineTotal: decimal.Zero}
		p, ok := products[l.ProductID]
		if ok {
			line.Name = p.Name
			line.Image = p.PrimaryImage()
		}
		// a size the product stopped offering is as unsellable as the product
		if !ok || !p.IsActive || !p.AcceptsVariant(l.Variant) {
			line.Stale = true
			view.Lines = append(view.Lines, line)
			continue
		}
		line.UnitPrice = p.Price
		line.LineTotal = p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		line.Live = true
		view.Total = view.Total.Add(line.LineTotal)
		view.ItemCount += l.Quantity
		view.Lines = append(view.Lines, line)
	}
	return view, nil
}

// ProjectWishlist prefers live prices and falls back to the stored snapshot
// when the catalog cannot be reached.
func ProjectWishlist(ctx context.Context, state *domain.UserState, cat catalog.Reader) *WishlistView {
	view := &WishlistView{UserID: state.UserID, Items: make([]WishlistItem, 0, len(state.Wishlist))}
	if len(state.Wishlist) == 0 {
		return view
	}

	ids := make([]string, len(state.Wishlist))
	for i, e := range state.Wishlist {
		ids[i] = e.ProductID
	}
	products, err := cat.GetProducts(ctx, ids)
	reachable := err == nil

	for _, e := range state.Wishlist {
		item := WishlistItem{
			ProductID:     e.ProductID,
			Name:          e.Name,
			Image:         e.Image,
			Price:         e.Price,
			SnapshotPrice: e.Price,
			AddedAt:       e.AddedAt,
			InCart:        state.HasProductInCart(e.ProductID),
		}
		if reachable {
			if p, ok := products[e.ProductID]; ok && p.IsActive {
				item.Name = p.Name
				item.Price = p.Price
				item.Live = true
				if img := p.PrimaryImage(); img != "" {
					item.Image = img
				}
			} else {
				item.Stale = true
			}
		}
		view.Items = append(view.Items, item)
	}
	return view
}

// ProjectOrder renders the immutable snapshot. The catalog only adds media
// and the stale flag; its failure is tolerated.
func ProjectOrder(ctx context.Context, order *domain.Order, cat catalog.Reader) *OrderView {
	return ProjectOrders(ctx, []*domain.Order{order}, cat)[0]
}

// ProjectOrders renders several orders with one catalog lookup.
func ProjectOrders(ctx context.Context, orders []*domain.Order, cat catalog.Reader) []*OrderView {
	var ids []string
	for _, o := range orders {
		for _, item := range o.Items {
			ids = append(ids, item.ProductID)
		}
	}

	var products map[string]domain.Product
	reachable := false
	if len(ids) > 0 {
		var err error
		products, err = cat.GetProducts(ctx, catalog.UniqueIDs(ids))
		reachable = err == nil
	}

	views := make([]*OrderView, len(orders))
	for i, o := range orders {
		v := &OrderView{
			ID:              o.ID,
			Status:          o.Status,
			Lines:           make([]PricedLine, len(o.Items)),
			Total:           o.TotalAmount,
			Currency:        o.Currency,
			ShippingDetails: o.ShippingDetails,
			PaymentMethod:   o.PaymentMethod,
			CreatedAt:       o.CreatedAt,
		}
		for j, item := range o.Items {
			line := PricedLine{
				ProductID: item.ProductID,
				Variant:   item.Variant,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
				LineTotal: item.Subtotal(),
			}
			if reachable {
				p, ok := products[item.ProductID]
				line.Stale = !ok || !p.IsActive
				if ok {
					line.Image = p.PrimaryImage()
				}
			}
			v.Lines[j] = line
		}
		views[i] = v
	}
	return views
}
