// Package executor gates scored positions against liquidation eligibility
// and profit policy, and carries out eligible liquidations through the
// gateway.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solguard/engine/internal/metrics"
	"github.com/solguard/engine/internal/store"
)

// Liquidator is the slice of the gateway the executor needs.
type Liquidator interface {
	ExecuteLiquidation(ctx context.Context, mint, borrower string) (string, error)
	ReportSettlement(ctx context.Context, ref string) (store.SettlementReport, error)
}

// Executor attempts liquidations under a minimum-profit policy.
type Executor struct {
	client    Liquidator
	minProfit decimal.Decimal // lamports
}

// New creates an executor requiring at least minProfitLamports estimated
// profit per liquidation.
func New(client Liquidator, minProfitLamports decimal.Decimal) *Executor {
	return &Executor{client: client, minProfit: minProfitLamports}
}

// Attempt liquidates a scored position if, and only if, its health is
// exactly liquidatable and its estimated profit meets the minimum. It
// returns nil with no side effects when either gate fails, and nil when the
// liquidation call itself fails (the position stays a candidate for the
// next pass). The follow-up settlement report is best effort: its failure
// never undoes a completed liquidation.
func (e *Executor) Attempt(ctx context.Context, sp store.ScoredPosition) *store.LiquidationOutcome {
	if sp.Position.Health != store.HealthLiquidatable {
		return nil
	}
	if sp.EstimatedProfit.LessThan(e.minProfit) {
		slog.Debug("liquidation_below_min_profit",
			"mint", sp.Mint,
			"borrower", sp.Borrower,
			"profit_lamports", sp.EstimatedProfit.String(),
			"min_lamports", e.minProfit.String(),
		)
		metrics.LiquidationAttemptsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	ref, err := e.client.ExecuteLiquidation(ctx, sp.Mint, sp.Borrower)
	if err != nil {
		slog.Warn("liquidation_failed",
			"mint", sp.Mint,
			"borrower", sp.Borrower,
			"error", err,
		)
		metrics.LiquidationAttemptsTotal.WithLabelValues("failed").Inc()
		return nil
	}

	outcome := &store.LiquidationOutcome{
		ID:            uuid.New().String(),
		Mint:          sp.Mint,
		Borrower:      sp.Borrower,
		SettlementRef: ref,
		Profit:        sp.EstimatedProfit,
		Timestamp:     time.Now(),
	}

	if report, err := e.client.ReportSettlement(ctx, ref); err != nil {
		slog.Warn("settlement_report_failed", "ref", ref, "error", err)
	} else {
		outcome.ReputationConfirmed = report.Confirmed
	}

	metrics.LiquidationAttemptsTotal.WithLabelValues("executed").Inc()
	if profit, _ := sp.EstimatedProfit.Float64(); profit > 0 {
		metrics.LiquidationProfitLamports.Add(profit)
	}

	slog.Info("liquidation_executed",
		"mint", sp.Mint,
		"borrower", sp.Borrower,
		"settlement_ref", ref,
		"profit_lamports", sp.EstimatedProfit.String(),
		"reputation_confirmed", outcome.ReputationConfirmed,
	)

	return outcome
}
