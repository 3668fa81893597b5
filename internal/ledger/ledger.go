// Package ledger records liquidation outcomes for the operator.
// Implementations include PostgreSQL (persistent) and in-memory (default,
// also used for testing).
package ledger

import (
	"context"

	"github.com/solguard/engine/internal/store"
)

// Store is the outcome persistence interface.
type Store interface {
	// Append records one liquidation outcome.
	Append(ctx context.Context, o store.LiquidationOutcome) error

	// Recent returns up to limit outcomes, newest first.
	Recent(ctx context.Context, limit int) ([]store.LiquidationOutcome, error)
}
