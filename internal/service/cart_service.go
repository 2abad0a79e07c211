// Package service applies cart and wishlist operations to persisted user
// state. Each write reads the current record, runs an engine function and
// swaps the result in under the record's version.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/cache"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/catalog"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/engine"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/repository"
	"github.com/sinan-prvt/Hopyfy-Cart/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMaxAttempts = 3
	defaultCallTimeout = 3 * time.Second
)

// OrderTimes is the part of the order store the repair check needs.
type OrderTimes interface {
	LatestOrderTime(ctx context.Context, userID string) (time.Time, error)
}

type Options struct {
	MaxAttempts int
	CallTimeout time.Duration
}

type CartService struct {
	repo    repository.UserStore
	cache   cache.StateCache
	catalog catalog.Reader
	orders  OrderTimes
	log     *logger.Logger
	sfg     singleflight.Group // Prevents cache stampede

	maxAttempts int
	callTimeout time.Duration
	now         func() time.Time
}

func NewCartService(repo repository.UserStore, c cache.StateCache, cat catalog.Reader, orders OrderTimes, log *logger.Logger, opts Options) *CartService {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	return &CartService{
		repo:        repo,
		cache:       c,
		catalog:     cat,
		orders:      orders,
		log:         log,
		maxAttempts: opts.MaxAttempts,
		callTimeout: opts.CallTimeout,
		now:         time.Now,
	}
}

func (s *CartService) AddToCart(ctx context.Context, userID, productID, variant string, qty int) (*domain.UserState, error) {
	if qty < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	if _, err := s.lookupPurchasable(ctx, productID, variant); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(st domain.UserState) (domain.UserState, error) {
		next, _, err := engine.AddToCart(st, productID, variant, qty)
		return next, err
	})
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID, variant string) (*domain.UserState, error) {
	return s.mutate(ctx, userID, func(st domain.UserState) (domain.UserState, error) {
		next, _ := engine.RemoveFromCart(st, productID, variant)
		return next, nil
	})
}

func (s *CartService) SetQuantity(ctx context.Context, userID, productID, variant string, qty int) (*domain.UserState, error) {
	if qty > domain.MaxLineQuantity {
		return nil, domain.ErrQuantityLimit
	}
	return s.mutate(ctx, userID, func(st domain.UserState) (domain.UserState, error) {
		next, _ := engine.SetQuantity(st, productID, variant, qty)
		return next, nil
	})
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.UserState, error) {
	return s.mutate(ctx, userID, func(st domain.UserState) (domain.UserState, error) {
		next, _ := engine.ClearCart(st)
		return next, nil
	})
}

// RemoveLines drops exactly the given keys, leaving lines added meanwhile.
func (s *CartService) RemoveLines(ctx context.Context, userID string, keys []domain.LineKey) (*domain.UserState, error) {
	return s.mutate(ctx, userID, func(st domain.UserState) (domain.UserState, error) {
		next, _ := engine.RemoveLines(st, keys)
		return next, nil
	})
}

// AddToWishlist stores a catalog snapshot of the product. alreadyPresent is
// true when the product was wishlisted before; the state is then unchanged.
func (s *CartService) AddToWishlist(ctx context.Context, userID, productID string) (*domain.UserState, bool, error) {
	product, err := s.lookupActive(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	entry := product.Snapshot(s.now().UTC())

	var present bool
	state, err := s.mutate(ctx, userID, func(st domain.UserState) (domain.UserState, error) {
		var next domain.UserState
		next, present = engine.AddToWishlist(st, entry)
		return next, nil
	})
	return state, present, err
}

func (s *CartService) RemoveFromWishlist(ctx context.Context, userID, productID string) (*domain.UserState, error) {
	return s.mutate(ctx, userID, func(st domain.UserState) (domain.UserState, error) {
		return engine.RemoveFromWishlist(st, productID), nil
	})
}

// ToggleWishlist only consults the catalog when the toggle adds.
func (s *CartService) ToggleWishlist(ctx context.Context, userID, productID string) (*domain.UserState, bool, error) {
	var (
		entry *domain.WishlistEntry
		added bool
	)
	state, err := s.mutate(ctx, userID, func(st domain.UserState) (domain.UserState, error) {
		if _, ok := st.FindWishlist(productID); ok {
			added = false
			return engine.RemoveFromWishlist(st, productID), nil
		}
		if entry == nil {
			product, err := s.lookupActive(ctx, productID)
			if err != nil {
				return st, err
			}
			snap := product.Snapshot(s.now().UTC())
			entry = &snap
		}
		var next domain.UserState
		next, added = engine.ToggleWishlist(st, *entry)
		return next, nil
	})
	return state, added, err
}

// MoveToCart needs a variant when the product is sold in sizes.
func (s *CartService) MoveToCart(ctx context.Context, userID, productID, variant string) (*domain.UserState, error) {
	if _, err := s.lookupPurchasable(ctx, productID, variant); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(st domain.UserState) (domain.UserState, error) {
		return engine.MoveToCart(st, productID, variant)
	})
}

// LoadState reads the authoritative record, bypassing the cache.
func (s *CartService) LoadState(ctx context.Context, userID string) (*domain.UserState, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.repo.GetUser(callCtx, userID)
}

// mutate re-reads and re-applies op on every version conflict, up to
// maxAttempts, so a retry never replays a stale snapshot.
func (s *CartService) mutate(ctx context.Context, userID string, op func(domain.UserState) (domain.UserState, error)) (*domain.UserState, error) {
	log := s.log.WithContext(ctx).With("user_id", userID)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		current, err := s.LoadState(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load user state: %w", err)
		}

		next, err := op(current.Clone())
		if err != nil {
			return nil, err
		}
		if sameState(*current, next) {
			return current, nil
		}
		if !domain.SameCart(current.Cart, next.Cart) {
			next.CartUpdatedAt = s.now().UTC()
		}

		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		ok, version, err := s.repo.CompareAndSwap(callCtx, userID, current.Version, &next)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("write user state: %w", err)
		}
		if ok {
			next.UserID = userID
			next.Version = version
			s.invalidateCache(userID)
			return &next, nil
		}
		log.Debug("version conflict, retrying", "attempt", attempt, "version", current.Version)
	}

	log.Warn("giving up after repeated version conflicts", "attempts", s.maxAttempts)
	return nil, fmt.Errorf("%w: %w", domain.ErrBusy, domain.ErrConcurrentModification)
}

func (s *CartService) lookupActive(ctx context.Context, productID string) (domain.Product, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	product, ok, err := catalog.GetProduct(callCtx, s.catalog, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("catalog lookup: %w", err)
	}
	if !ok || !product.IsActive {
		return domain.Product{}, &domain.ProductUnavailableError{ProductID: productID, Reason: "not in catalog"}
	}
	return product, nil
}

func (s *CartService) lookupPurchasable(ctx context.Context, productID, variant string) (domain.Product, error) {
	product, err := s.lookupActive(ctx, productID)
	if err != nil {
		return product, err
	}
	if !product.AcceptsVariant(variant) {
		if variant == "" {
			return product, domain.NewValidationError("variant", "select a size")
		}
		return product, domain.NewValidationError("variant", fmt.Sprintf("size %q not offered", variant))
	}
	return product, nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate error", "user_id", userID, "error", err)
	}
}

func sameState(a, b domain.UserState) bool {
	if !domain.SameCart(a.Cart, b.Cart) || len(a.Wishlist) != len(b.Wishlist) {
		return false
	}
	for i := range a.Wishlist {
		if a.Wishlist[i].ProductID != b.Wishlist[i].ProductID {
			return false
		}
	}
	return true
}
