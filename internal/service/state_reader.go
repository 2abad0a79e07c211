package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/cache"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/engine"
)

// GetState serves reads from the cache when possible. A cart left behind by
// an order whose clear step failed is repaired before it is returned.
func (s *CartService) GetState(ctx context.Context, userID string) (*domain.UserState, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		state, err := s.cache.Get(ctx, userID)
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithContext(ctx).Warn("cache get error", "user_id", userID, "error", err) // continue with the store
		}

		state, err = s.LoadState(ctx, userID)
		if err != nil {
			return nil, err
		}

		setCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := s.cache.Set(setCtx, userID, state); err != nil {
			s.log.WithContext(ctx).Warn("cache set error", "user_id", userID, "error", err)
		}
		return state, nil
	})
	if err != nil {
		return nil, err
	}

	state := v.(*domain.UserState)
	out := state.Clone()
	return s.repairOnRead(ctx, &out), nil
}

// repairOnRead never fails the read; the original state is returned when
// the check or the clear cannot complete.
func (s *CartService) repairOnRead(ctx context.Context, state *domain.UserState) *domain.UserState {
	if s.orders == nil || len(state.Cart) == 0 {
		return state
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	latest, err := s.orders.LatestOrderTime(callCtx, state.UserID)
	cancel()
	if err != nil {
		s.log.WithContext(ctx).Warn("latest order lookup failed, skipping cart repair", "user_id", state.UserID, "error", err)
		return state
	}
	if !latest.After(state.CartUpdatedAt) {
		return state
	}

	repaired, cleared, err := s.clearIfStale(ctx, state.UserID, latest)
	if err != nil || !cleared {
		if err != nil {
			s.log.WithContext(ctx).Warn("cart repair failed", "user_id", state.UserID, "error", err)
		}
		return state
	}
	s.log.WithContext(ctx).Info("cleared cart left over from an earlier order", "user_id", state.UserID)
	return repaired
}

// LoadRepairedState is the authoritative read used before committing an
// order. It bypasses the cache and clears a cart older than the user's newest
// order. Unlike GetState it fails when the repair check cannot complete, so a
// leftover cart is never committed twice.
func (s *CartService) LoadRepairedState(ctx context.Context, userID string) (*domain.UserState, error) {
	state, err := s.LoadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.orders == nil || len(state.Cart) == 0 {
		return state, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	latest, err := s.orders.LatestOrderTime(callCtx, userID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("latest order time: %w", err)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if !latest.After(state.CartUpdatedAt) {
			return state, nil
		}
		repaired, cleared, err := s.clearIfStale(ctx, userID, latest)
		if err != nil {
			return nil, err
		}
		if cleared {
			s.log.WithContext(ctx).Info("cleared cart left over from an earlier order", "user_id", userID)
			return repaired, nil
		}
		// lost a version race; re-read and check again
		if state, err = s.LoadState(ctx, userID); err != nil {
			return nil, err
		}
		if len(state.Cart) == 0 {
			return state, nil
		}
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrBusy, domain.ErrConcurrentModification)
}

// RepairCart clears the cart if it has not changed since orderCreatedAt.
// It makes one attempt; losing a version race means someone else touched
// the cart, which already supersedes the order.
func (s *CartService) RepairCart(ctx context.Context, userID string, orderCreatedAt time.Time) (bool, error) {
	_, cleared, err := s.clearIfStale(ctx, userID, orderCreatedAt)
	return cleared, err
}

func (s *CartService) clearIfStale(ctx context.Context, userID string, orderCreatedAt time.Time) (*domain.UserState, bool, error) {
	current, err := s.LoadState(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if len(current.Cart) == 0 || !orderCreatedAt.After(current.CartUpdatedAt) {
		return current, false, nil
	}

	next, _ := engine.ClearCart(*current)
	next.CartUpdatedAt = s.now().UTC()

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	ok, version, err := s.repo.CompareAndSwap(callCtx, userID, current.Version, &next)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return current, false, nil
	}
	s.invalidateCache(userID)
	next.UserID = userID
	next.Version = version
	return &next, true, nil
}
