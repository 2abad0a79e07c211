package payment

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/pkg/logger"
)

type Approver interface {
	Decide(method domain.PaymentMethod, amount decimal.Decimal) Refusal
}

// RandomApprover approves about 95% of captures.
type RandomApprover struct{}

func (RandomApprover) Decide(domain.PaymentMethod, decimal.Decimal) Refusal {
	return calcRefusal(rand.Intn(101)) // Intn is exclusive of the upper bound
}

func calcRefusal(n int) Refusal {
	if n < 95 {
		return RefusalNone
	}
	reason := Refusal(n - 95)
	if reason == RefusalNone || reason > RefusalDeclined {
		return RefusalDeclined
	}
	return reason
}

// ApproveAll is used by tests and local runs.
type ApproveAll struct{}

func (ApproveAll) Decide(domain.PaymentMethod, decimal.Decimal) Refusal { return RefusalNone }

type capture struct {
	amount   decimal.Decimal
	kind     domain.PaymentKind
	refunded bool
}

// SimulatedGateway keeps captures in memory so refunds can be checked
// against them.
type SimulatedGateway struct {
	approver Approver
	log      *logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	captures map[string]*capture
}

func NewSimulatedGateway(approver Approver, log *logger.Logger) *SimulatedGateway {
	if approver == nil {
		approver = RandomApprover{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SimulatedGateway{
		approver: approver,
		log:      log,
		now:      time.Now,
		captures: make(map[string]*capture),
	}
}

func (g *SimulatedGateway) Capture(ctx context.Context, method domain.PaymentMethod, amount decimal.Decimal, _ domain.ShippingDetails) (bool, string, error) {
	if err := ctx.Err(); err != nil {
		return false, "", fmt.Errorf("capture: %w: %v", domain.ErrUnavailable, err)
	}
	if !method.Kind.RequiresCapture() {
		return false, "", fmt.Errorf("capture: payment kind %q is not captured online", method.Kind)
	}
	if !amount.IsPositive() {
		return false, "", fmt.Errorf("capture: amount must be positive, got %s", amount)
	}

	refusal := g.approver.Decide(method, amount)
	if refusal == RefusalNone && method.Kind == domain.PaymentCard && cardExpired(method.Expiry, g.now()) {
		refusal = RefusalCardExpired
	}

	log := g.log.WithContext(ctx)
	if refusal != RefusalNone {
		log.Info("payment declined", "kind", method.Kind, "amount", amount.String(), "refusal", refusal.String())
		return false, "", nil
	}

	ref := "TXN-" + uuid.NewString()
	g.mu.Lock()
	g.captures[ref] = &capture{amount: amount, kind: method.Kind}
	g.mu.Unlock()

	log.Info("payment captured", "kind", method.Kind, "amount", amount.String(), "reference", ref)
	return true, ref, nil
}

// Refund is idempotent for a known reference.
func (g *SimulatedGateway) Refund(ctx context.Context, reference string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.captures[reference]
	if !ok {
		return fmt.Errorf("refund %s: %w", reference, ErrUnknownCapture)
	}
	if !c.refunded {
		c.refunded = true
		g.log.WithContext(ctx).Info("payment refunded", "reference", reference, "amount", c.amount.String())
	}
	return nil
}

// Refunded reports whether reference was captured and then refunded.
func (g *SimulatedGateway) Refunded(reference string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.captures[reference]
	return ok && c.refunded
}

// cardExpired treats MM/YY as valid through the last day of that month.
func cardExpired(expiry string, now time.Time) bool {
	if len(expiry) != 5 || expiry[2] != '/' {
		return false
	}
	month, err1 := strconv.Atoi(expiry[:2])
	year, err2 := strconv.Atoi(expiry[3:])
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		return false
	}
	firstOfNext := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return !now.UTC().Before(firstOfNext)
}
