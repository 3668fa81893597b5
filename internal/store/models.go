// Package store provides the domain models shared across the engine.
package store

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// LamportsToSOL converts a lamport amount to SOL as an exact decimal.
func LamportsToSOL(lamports decimal.Decimal) decimal.Decimal {
	return lamports.Div(decimal.NewFromInt(LamportsPerSOL))
}

// SOLToLamports converts a SOL amount to lamports, truncating sub-lamport dust.
func SOLToLamports(sol decimal.Decimal) decimal.Decimal {
	return sol.Mul(decimal.NewFromInt(LamportsPerSOL)).Floor()
}

// PositionHealth is the lending venue's classification of a borrow position.
type PositionHealth string

const (
	HealthNone         PositionHealth = "none"
	HealthHealthy      PositionHealth = "healthy"
	HealthAtRisk       PositionHealth = "at_risk"
	HealthLiquidatable PositionHealth = "liquidatable"
)

// LoanCount is a tri-state active-loan counter. The gateway may omit the
// counter entirely, which is not the same as reporting zero loans.
type LoanCount struct {
	Known bool
	Value uint64
}

// KnownLoans returns a counter with an authoritative value.
func KnownLoans(n uint64) LoanCount { return LoanCount{Known: true, Value: n} }

// UnknownLoans returns a counter the gateway could not report.
func UnknownLoans() LoanCount { return LoanCount{} }

// String renders the counter for logs and API views.
func (c LoanCount) String() string {
	if !c.Known {
		return "unknown"
	}
	return strconv.FormatUint(c.Value, 10)
}

// LendingParams holds the lending market parameters for one token.
// All ratios are basis points; treasury is lamports.
type LendingParams struct {
	InterestRateBps         uint64
	MaxLtvBps               uint64
	LiquidationThresholdBps uint64
	LiquidationBonusBps     uint64
	TreasuryAvailable       uint64
	ActiveLoans             LoanCount
}

// PricePoint is one price sample in a token's rolling history.
type PricePoint struct {
	Price     float64
	Timestamp time.Time
}

// Token is a monitored entity with an active lending market.
// The monitor owns the working set of tokens and replaces it wholesale on
// every discovery pass; nothing mutates a Token in place across passes.
type Token struct {
	Mint         string
	Name         string
	Symbol       string
	Params       LendingParams
	Price        float64
	PriceHistory []PricePoint
	Borrowers    map[string]struct{}
	LastRefresh  time.Time
}

// Position is the raw borrow position state reported by the venue.
// Amounts are lamports.
type Position struct {
	Health           PositionHealth
	CurrentLtvBps    uint64
	CollateralAmount uint64
	CollateralValue  uint64
	BorrowedAmount   uint64
	AccruedInterest  uint64
	TotalOwed        uint64
}

// HasObligation reports whether the position carries any outstanding debt.
func (p Position) HasObligation() bool {
	return p.Health != HealthNone && p.TotalOwed > 0
}

// ReputationTier is the coarse trust classification from the identity service.
type ReputationTier string

const (
	TierHigh    ReputationTier = "high"
	TierMedium  ReputationTier = "medium"
	TierLow     ReputationTier = "low"
	TierUnknown ReputationTier = "unknown"
)

// Reputation is the identity service's view of a wallet.
type Reputation struct {
	Verified bool
	Tier     ReputationTier
}

// TradeMessage is one trade broadcast on a token's message feed.
// PnL is lamports and may be absent.
type TradeMessage struct {
	Sender      string
	PnLLamports int64
	HasPnL      bool
}

// TradeStats are win/loss statistics derived from a wallet's trade messages.
// NetPnL is SOL.
type TradeStats struct {
	Total   int
	Won     int
	Lost    int
	WinRate float64
	NetPnL  decimal.Decimal
}

// NeutralStats returns the conservative default used when trade history is
// unavailable: zero trades, even win rate.
func NeutralStats() TradeStats {
	return TradeStats{WinRate: 0.5, NetPnL: decimal.Zero}
}

// WalletProfile combines external reputation with derived trade statistics
// into a 0-100 wallet risk number. Profiles are immutable once built; a
// refresh replaces the whole value.
type WalletProfile struct {
	Address    string
	Verified   bool
	Tier       ReputationTier
	Stats      TradeStats
	Risk       float64
	ComputedAt time.Time
}

// FactorSet holds the four normalized risk factors, each in [0,100].
type FactorSet struct {
	LtvProximity   float64
	Momentum       float64
	WalletRisk     float64
	InterestBurden float64
}

// ScoredPosition is the transient result of one scoring pass over one
// borrower position. Never persisted; recomputed every pass.
type ScoredPosition struct {
	Mint            string
	Symbol          string
	Borrower        string
	Position        Position
	Profile         WalletProfile
	Factors         FactorSet
	Score           int
	EstimatedProfit decimal.Decimal // lamports
	ScoredAt        time.Time
}

// LiquidationOutcome records a successful liquidation attempt.
type LiquidationOutcome struct {
	ID                  string          `json:"id"`
	Mint                string          `json:"mint"`
	Borrower            string          `json:"borrower"`
	SettlementRef       string          `json:"settlement_ref"`
	Profit              decimal.Decimal `json:"profit_lamports"` // estimate at execution time
	ReputationConfirmed bool            `json:"reputation_confirmed"`
	Timestamp           time.Time       `json:"timestamp"`
}

// SettlementReport is the identity service's acknowledgement of a reported
// settlement.
type SettlementReport struct {
	Confirmed bool
	EventType string
}

// PriceUpdate is a single price tick from the streaming feed.
type PriceUpdate struct {
	Mint      string
	Price     float64
	Timestamp time.Time
}
