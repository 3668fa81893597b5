// Package scorer maps position state, lending parameters, price history, and
// a wallet profile to a composite liquidation risk score and a fee-adjusted
// profit estimate. Everything here is pure: no I/O, no hidden state.
package scorer

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solguard/engine/internal/store"
)

// Factor weights. They sum to 1.
const (
	WeightLtvProximity   = 0.40
	WeightMomentum       = 0.30
	WeightWalletRisk     = 0.20
	WeightInterestBurden = 0.10
)

const (
	// FixedSettlementFeeLamports is the flat settlement fee charged per
	// liquidation transaction.
	FixedSettlementFeeLamports = 5000

	// TransferFeeRate estimates proportional transfer cost against the
	// collateral value.
	TransferFeeRate = 0.01
)

// Score computes the composite risk score and profit estimate for one
// borrower position.
func Score(mint, symbol, borrower string, pos store.Position, params store.LendingParams,
	history []store.PricePoint, profile store.WalletProfile, now time.Time) store.ScoredPosition {

	factors := store.FactorSet{
		LtvProximity:   LtvProximity(pos.CurrentLtvBps, params.LiquidationThresholdBps),
		Momentum:       Momentum(history),
		WalletRisk:     clamp(profile.Risk, 0, 100),
		InterestBurden: InterestBurden(pos.AccruedInterest, pos.CollateralValue),
	}

	return store.ScoredPosition{
		Mint:            mint,
		Symbol:          symbol,
		Borrower:        borrower,
		Position:        pos,
		Profile:         profile,
		Factors:         factors,
		Score:           Composite(factors),
		EstimatedProfit: EstimateProfit(pos.CollateralValue, params.LiquidationBonusBps),
		ScoredAt:        now,
	}
}

// LtvProximity measures how close the current LTV sits to the liquidation
// threshold, in [0,100]. A market without a threshold has no proximity risk.
func LtvProximity(currentLtvBps, thresholdBps uint64) float64 {
	if thresholdBps == 0 {
		return 0
	}
	return clamp(100*float64(currentLtvBps)/float64(thresholdBps), 0, 100)
}

// Momentum scores the recent price trend in [0,100]: a falling price raises
// the score, a flat or rising price lowers it. Fewer than two samples is
// neutral (50).
func Momentum(history []store.PricePoint) float64 {
	if len(history) < 2 {
		return 50
	}

	// Least-squares slope of price against sample index.
	n := float64(len(history))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range history {
		x := float64(i)
		sumX += x
		sumY += p.Price
		sumXY += x * p.Price
		sumXX += x * x
	}

	mean := sumY / n
	if mean == 0 {
		return 50
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 50
	}
	slope := (n*sumXY - sumX*sumY) / denom

	return clamp(50-1000*(slope/mean), 0, 100)
}

// InterestBurden measures accrued interest against collateral value in
// [0,100]. Zero collateral is maximal burden.
func InterestBurden(accruedInterest, collateralValue uint64) float64 {
	if collateralValue == 0 {
		return 100
	}
	return clamp(1000*float64(accruedInterest)/float64(collateralValue), 0, 100)
}

// Composite combines the four factors into the weighted 0-100 score.
func Composite(f store.FactorSet) int {
	weighted := WeightLtvProximity*f.LtvProximity +
		WeightMomentum*f.Momentum +
		WeightWalletRisk*f.WalletRisk +
		WeightInterestBurden*f.InterestBurden

	score := int(math.Round(clamp(weighted, 0, 100)))
	return score
}

// EstimateProfit returns the fee-adjusted profit estimate in lamports:
// the liquidation bonus on the collateral, minus the fixed settlement fee
// and the proportional transfer fee. Never negative.
func EstimateProfit(collateralValueLamports, bonusBps uint64) decimal.Decimal {
	collateral := decimal.NewFromUint64(collateralValueLamports)

	gross := collateral.
		Mul(decimal.NewFromUint64(bonusBps)).
		Div(decimal.NewFromInt(10_000)).
		Floor()

	transferFee := collateral.Mul(decimal.NewFromFloat(TransferFeeRate))

	profit := gross.
		Sub(decimal.NewFromInt(FixedSettlementFeeLamports)).
		Sub(transferFee)

	if profit.IsNegative() {
		return decimal.Zero
	}
	return profit
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
