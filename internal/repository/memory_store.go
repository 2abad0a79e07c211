package repository

import (
	"context"
	"sync"
	"time"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

// MemoryStore implements UserStore in process memory. It backs tests and the
// single-node development mode.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]domain.UserState
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]domain.UserState),
		now:   time.Now,
	}
}

func (s *MemoryStore) GetUser(_ context.Context, userID string) (*domain.UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.users[userID]
	if !ok {
		return emptyState(userID), nil
	}
	out := state.Clone()
	return &out, nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, userID string, version int64, next *domain.UserState) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.users[userID].Version
	if current != version {
		return false, 0, nil
	}

	stored := next.Clone()
	stored.UserID = userID
	stored.Version = version + 1
	stored.UpdatedAt = s.now().UTC()
	s.users[userID] = stored
	return true, stored.Version, nil
}
