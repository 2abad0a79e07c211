// Package cache holds read-through copies of user state. The store stays
// authoritative; writers delete the entry after every successful swap.
package cache

import (
	"context"
	"errors"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

type StateCache interface {
	Get(ctx context.Context, userID string) (*domain.UserState, error)
	Set(ctx context.Context, userID string, state *domain.UserState) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop never holds anything. Used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.UserState, error) { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, string, *domain.UserState) error   { return nil }
func (Noop) Delete(context.Context, string) error                   { return nil }
