// Package chain talks to the RPC gateway that fronts the lending venue and
// the wallet identity service. The engine core never builds or signs
// transactions itself; it consumes the gateway's read and write operations
// through the Client interface.
package chain

import (
	"context"

	"github.com/solguard/engine/internal/store"
)

// Client is the full gateway surface consumed by the engine. Packages that
// need only a slice of it declare their own narrow interfaces; GatewayClient
// satisfies all of them.
type Client interface {
	// ListTokens returns tradeable tokens matching the status filter,
	// sorted by sortKey, at most limit entries. Only identity and price
	// fields are populated.
	ListTokens(ctx context.Context, status, sortKey string, limit int) ([]store.Token, error)

	// GetLendingParams returns the lending market parameters for a mint.
	GetLendingParams(ctx context.Context, mint string) (store.LendingParams, error)

	// GetPosition returns the borrow position of one wallet on one mint.
	GetPosition(ctx context.Context, mint, borrower string) (store.Position, error)

	// ListBorrowers returns wallet addresses with positions on a mint.
	ListBorrowers(ctx context.Context, mint string, limit int) ([]string, error)

	// GetTradeMessages returns recent trade broadcasts for a mint.
	GetTradeMessages(ctx context.Context, mint string, limit int) ([]store.TradeMessage, error)

	// GetReputation returns the identity service's view of a wallet. A
	// wallet unknown to the service yields {Verified:false, Tier:unknown}
	// with a nil error; only transport failures return an error.
	GetReputation(ctx context.Context, address string) (store.Reputation, error)

	// ExecuteLiquidation liquidates a position and returns the settlement
	// reference. The gateway rejects positions that are not actually past
	// the liquidation threshold.
	ExecuteLiquidation(ctx context.Context, mint, borrower string) (string, error)

	// Repay pays down a position and returns the settlement reference.
	Repay(ctx context.Context, mint string, amountLamports uint64) (string, error)

	// ReportSettlement reports a settlement to the identity service.
	ReportSettlement(ctx context.Context, ref string) (store.SettlementReport, error)
}
