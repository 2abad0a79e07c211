// Package repository persists one UserState record per user and guards
// writes with a version token.
package repository

import (
	"context"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

// UserStore defines the storage contract the cart service depends on.
type UserStore interface {
	// GetUser returns the stored state. A user without a record gets an empty
	// state with version 0.
	GetUser(ctx context.Context, userID string) (*domain.UserState, error)

	// CompareAndSwap writes next only if the stored version still equals
	// version. ok is false on a version mismatch; err is reserved for
	// storage failures.
	CompareAndSwap(ctx context.Context, userID string, version int64, next *domain.UserState) (ok bool, newVersion int64, err error)
}

func emptyState(userID string) *domain.UserState {
	return &domain.UserState{UserID: userID}
}
