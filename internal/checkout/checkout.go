// Package checkout turns a cart into an order: it re-prices every line,
// captures payment, records the order and then clears the committed lines.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/catalog"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/events"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/payment"
	"github.com/sinan-prvt/Hopyfy-Cart/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCurrency   = "INR"
	cartClearTimeout  = 5 * time.Second
	publishTimeout    = 5 * time.Second
	instrumentationID = "github.com/sinan-prvt/Hopyfy-Cart/internal/checkout"
)

// Carts is the cart side of checkout.
type Carts interface {
	// LoadRepairedState returns the stored state with any cart left over from
	// an earlier order already cleared.
	LoadRepairedState(ctx context.Context, userID string) (*domain.UserState, error)
	RemoveLines(ctx context.Context, userID string, keys []domain.LineKey) (*domain.UserState, error)
}

type OrderWriter interface {
	CreateOrder(ctx context.Context, order *domain.Order) (string, error)
}

type Service struct {
	catalog   catalog.Reader
	orders    OrderWriter
	payments  payment.Capability
	carts     Carts
	publisher events.Publisher
	log       *logger.Logger
	tracer    trace.Tracer
	currency  string
	now       func() time.Time
}

func NewService(cat catalog.Reader, orders OrderWriter, payments payment.Capability, carts Carts, publisher events.Publisher, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		catalog:   cat,
		orders:    orders,
		payments:  payments,
		carts:     carts,
		publisher: publisher,
		log:       log,
		tracer:    otel.Tracer(instrumentationID),
		currency:  DefaultCurrency,
		now:       time.Now,
	}
}

// PlaceOrderForUser rejects malformed requests before touching any store.
func (s *Service) PlaceOrderForUser(ctx context.Context, userID string, method domain.PaymentMethod, shipping domain.ShippingDetails) (*domain.Order, error) {
	if err := Validate(method, shipping); err != nil {
		return nil, err
	}
	state, err := s.carts.LoadRepairedState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return s.PlaceOrder(ctx, state, method, shipping)
}

func (s *Service) PlaceOrder(ctx context.Context, state *domain.UserState, method domain.PaymentMethod, shipping domain.ShippingDetails) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "checkout.PlaceOrder", trace.WithAttributes(
		attribute.String("user.id", state.UserID),
		attribute.String("payment.kind", string(method.Kind)),
		attribute.Int("cart.lines", len(state.Cart)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	log := s.log.WithContext(ctx).With("user_id", state.UserID)

	if len(state.Cart) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if err := Validate(method, shipping); err != nil {
		return nil, err
	}

	lines, total, err := s.priceLines(ctx, state.Cart)
	if err != nil {
		return nil, err
	}

	status := domain.OrderStatusPending
	var reference string
	if method.Kind.RequiresCapture() {
		captured, ref, err := s.payments.Capture(ctx, method, total, shipping)
		if err != nil {
			return nil, fmt.Errorf("capture payment: %w", err)
		}
		if !captured {
			return nil, domain.ErrPaymentDeclined
		}
		reference = ref
		status = domain.OrderStatusPaid
	}

	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          state.UserID,
		Items:           lines,
		TotalAmount:     total,
		Currency:        s.currency,
		Status:          status,
		ShippingDetails: shipping,
		PaymentMethod:   method.Summary(reference),
		CreatedAt:       s.now().UTC(),
	}
	if _, err := s.orders.CreateOrder(ctx, order); err != nil {
		if reference != "" {
			s.refund(ctx, log, reference)
		}
		return nil, fmt.Errorf("record order: %w", err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID))
	log.Info("order placed", "order_id", order.ID, "total", total.String(), "status", status)

	// the order is committed; nothing below may fail the request
	s.clearCommittedLines(ctx, log, order)
	s.publish(ctx, log, order)
	return order, nil
}

// priceLines re-reads every product. Any missing, inactive or short line
// fails the whole order.
func (s *Service) priceLines(ctx context.Context, cart []domain.CartLine) ([]domain.OrderLine, decimal.Decimal, error) {
	ids := make([]string, len(cart))
	wanted := make(map[string]int, len(cart))
	for i, l := range cart {
		ids[i] = l.ProductID
		wanted[l.ProductID] += l.Quantity
	}

	products, err := s.catalog.GetProducts(ctx, catalog.UniqueIDs(ids))
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("price cart: %w", err)
	}

	lines := make([]domain.OrderLine, 0, len(cart))
	total := decimal.Zero
	for _, l := range cart {
		p, ok := products[l.ProductID]
		switch {
		case !ok || !p.IsActive:
			return nil, decimal.Zero, &domain.ProductUnavailableError{ProductID: l.ProductID, Reason: "no longer sold"}
		case !p.AcceptsVariant(l.Variant):
			return nil, decimal.Zero, &domain.ProductUnavailableError{ProductID: l.ProductID, Reason: fmt.Sprintf("size %q not offered", l.Variant)}
		case p.Stock < wanted[l.ProductID]:
			return nil, decimal.Zero, &domain.ProductUnavailableError{ProductID: l.ProductID, Reason: fmt.Sprintf("only %d in stock", p.Stock)}
		}

		line := domain.OrderLine{
			ProductID: l.ProductID,
			Variant:   l.Variant,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  l.Quantity,
		}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
	}
	return lines, total, nil
}

func (s *Service) refund(ctx context.Context, log *logger.Logger, reference string) {
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cartClearTimeout)
	defer cancel()
	if err := s.payments.Refund(refundCtx, reference); err != nil {
		log.Error("refund after failed order write did not go through", "reference", reference, "error", err)
		return
	}
	log.Warn("payment refunded because the order could not be recorded", "reference", reference)
}

// clearCommittedLines outlives a cancelled request; a failure leaves the
// cart to the repair path.
func (s *Service) clearCommittedLines(ctx context.Context, log *logger.Logger, order *domain.Order) {
	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cartClearTimeout)
	defer cancel()

	if _, err := s.carts.RemoveLines(clearCtx, order.UserID, order.LineKeys()); err != nil {
		level := log.Warn
		if !errors.Is(err, domain.ErrBusy) && !errors.Is(err, domain.ErrUnavailable) {
			level = log.Error
		}
		level("cart not cleared after order, left for repair", "order_id", order.ID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, log *logger.Logger, order *domain.Order) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderPlaced(pubCtx, events.NewOrderPlaced(order)); err != nil {
		log.Warn("order event not published", "order_id", order.ID, "error", err)
	}
}
