package executor

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/solguard/engine/internal/store"
)

// AttemptFunc runs a single liquidation attempt and returns its outcome, or
// nil when the attempt was skipped or failed.
type AttemptFunc func(ctx context.Context, sp store.ScoredPosition) *store.LiquidationOutcome

// Strategy decides how the attempts for one scoring pass are scheduled.
// Candidates arrive ordered highest estimated profit first.
type Strategy interface {
	Execute(ctx context.Context, candidates []store.ScoredPosition, attempt AttemptFunc) []store.LiquidationOutcome
}

// Sequential runs at most one liquidation at a time, in candidate order.
// A later attempt does not start until the previous outcome is known. This
// is the default: it keeps capital exposure predictable and avoids racing
// the venue against ourselves on adjacent positions.
type Sequential struct{}

// Execute implements Strategy.
func (Sequential) Execute(ctx context.Context, candidates []store.ScoredPosition, attempt AttemptFunc) []store.LiquidationOutcome {
	var outcomes []store.LiquidationOutcome
	for _, sp := range candidates {
		if ctx.Err() != nil {
			break
		}
		if o := attempt(ctx, sp); o != nil {
			outcomes = append(outcomes, *o)
		}
	}
	return outcomes
}

// BoundedParallel runs up to Limit attempts concurrently. Outcome order is
// not defined. Selection and scoring are untouched; only scheduling changes.
type BoundedParallel struct {
	Limit int
}

// Execute implements Strategy.
func (s BoundedParallel) Execute(ctx context.Context, candidates []store.ScoredPosition, attempt AttemptFunc) []store.LiquidationOutcome {
	limit := s.Limit
	if limit < 1 {
		limit = 1
	}

	var (
		mu       sync.Mutex
		outcomes []store.LiquidationOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, sp := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if o := attempt(gctx, sp); o != nil {
				mu.Lock()
				outcomes = append(outcomes, *o)
				mu.Unlock()
			}
			return nil
		})
	}

	g.Wait()
	return outcomes
}
