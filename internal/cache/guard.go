package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Guard is the single mutual-exclusion domain for store access. Every table
// shares it, so callers touching different users still run one at a time.
type Guard struct {
	sem *semaphore.Weighted
}

// NewGuard returns an unlocked guard.
func NewGuard() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// Do runs fn while holding the guard. Waiting stops when ctx is done.
func (g *Guard) Do(ctx context.Context, fn func() error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire guard: %w", err)
	}
	defer g.sem.Release(1)
	return fn()
}
