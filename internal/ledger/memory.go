package ledger

import (
	"context"
	"sync"

	"github.com/solguard/engine/internal/store"
)

// MemoryStore implements Store with an in-memory slice. Outcomes do not
// survive a restart; use the PostgreSQL store for that.
type MemoryStore struct {
	mu       sync.RWMutex
	outcomes []store.LiquidationOutcome
	maxKept  int
}

// NewMemoryStore creates an in-memory store retaining at most maxKept
// outcomes (oldest dropped first).
func NewMemoryStore(maxKept int) *MemoryStore {
	if maxKept < 1 {
		maxKept = 1
	}
	return &MemoryStore{maxKept: maxKept}
}

func (s *MemoryStore) Append(_ context.Context, o store.LiquidationOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outcomes = append(s.outcomes, o)
	if over := len(s.outcomes) - s.maxKept; over > 0 {
		s.outcomes = s.outcomes[over:]
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]store.LiquidationOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.outcomes)
	if limit > n {
		limit = n
	}

	result := make([]store.LiquidationOutcome, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, s.outcomes[i])
	}
	return result, nil
}
