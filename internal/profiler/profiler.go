// Package profiler builds wallet risk profiles from external reputation and
// derived trade statistics. Profiling never fails: every external failure
// degrades to a conservative default.
package profiler

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solguard/engine/internal/cache"
	"github.com/solguard/engine/internal/metrics"
	"github.com/solguard/engine/internal/store"
)

// ReputationSource looks up a wallet's identity-service reputation.
type ReputationSource interface {
	GetReputation(ctx context.Context, address string) (store.Reputation, error)
}

// TradeSource fetches recent trade messages for a mint.
type TradeSource interface {
	GetTradeMessages(ctx context.Context, mint string, limit int) ([]store.TradeMessage, error)
}

// Profiler computes bounded-cached wallet profiles.
type Profiler struct {
	rep        ReputationSource
	trades     TradeSource
	cache      *cache.Cache[store.WalletProfile]
	cooldown   time.Duration
	tradeLimit int
}

// New creates a profiler. cooldown is the minimum age before a cached
// profile is recomputed; the cache bounds live in the cache itself.
func New(rep ReputationSource, trades TradeSource, c *cache.Cache[store.WalletProfile], cooldown time.Duration, tradeLimit int) *Profiler {
	return &Profiler{
		rep:        rep,
		trades:     trades,
		cache:      c,
		cooldown:   cooldown,
		tradeLimit: tradeLimit,
	}
}

// Profile returns the wallet profile for a borrower, reusing the cached
// value while it is within the cooldown window.
func (p *Profiler) Profile(ctx context.Context, borrower, mint string) store.WalletProfile {
	if cached, ok := p.cache.Get(borrower); ok {
		if time.Since(cached.ComputedAt) < p.cooldown {
			metrics.ProfileCacheLookups.WithLabelValues("hit").Inc()
			return cached
		}
	}
	metrics.ProfileCacheLookups.WithLabelValues("miss").Inc()

	rep, err := p.rep.GetReputation(ctx, borrower)
	if err != nil {
		// Unreachable identity service is not a reason to stall the
		// scoring pass; score the wallet as unverified instead.
		slog.Warn("reputation_lookup_failed", "wallet", borrower, "error", err)
		rep = store.Reputation{Verified: false, Tier: store.TierUnknown}
	}

	stats := p.deriveStats(ctx, borrower, mint)

	profile := store.WalletProfile{
		Address:    borrower,
		Verified:   rep.Verified,
		Tier:       rep.Tier,
		Stats:      stats,
		Risk:       WalletRisk(rep, stats),
		ComputedAt: time.Now(),
	}

	p.cache.Put(borrower, profile)
	return profile
}

// CacheLen returns the number of cached profiles.
func (p *Profiler) CacheLen() int { return p.cache.Len() }

// deriveStats computes win/loss statistics from the borrower's recent trade
// messages on the mint, substituting neutral stats on failure.
func (p *Profiler) deriveStats(ctx context.Context, borrower, mint string) store.TradeStats {
	msgs, err := p.trades.GetTradeMessages(ctx, mint, p.tradeLimit)
	if err != nil {
		slog.Debug("trade_messages_failed", "mint", mint, "error", err)
		return store.NeutralStats()
	}
	return DeriveStats(msgs, borrower)
}

// DeriveStats filters trade messages to one sender and derives trade counts,
// win rate, and net realized P&L.
func DeriveStats(msgs []store.TradeMessage, sender string) store.TradeStats {
	stats := store.TradeStats{NetPnL: decimal.Zero}
	netLamports := decimal.Zero

	for _, m := range msgs {
		if m.Sender != sender {
			continue
		}
		stats.Total++
		if !m.HasPnL {
			continue
		}
		netLamports = netLamports.Add(decimal.NewFromInt(m.PnLLamports))
		switch {
		case m.PnLLamports > 0:
			stats.Won++
		case m.PnLLamports < 0:
			stats.Lost++
		}
	}

	if decided := stats.Won + stats.Lost; decided > 0 {
		stats.WinRate = float64(stats.Won) / float64(decided)
	} else {
		stats.WinRate = 0.5
	}
	stats.NetPnL = store.LamportsToSOL(netLamports)

	return stats
}

// WalletRisk maps reputation and trade statistics to a 0-100 risk number.
// Tier sets the base (verified high wallets are safest); the win-rate
// modifier pulls risk toward the wallet's demonstrated skill, capped at
// ±20; sustained net losses add up to +20 more.
func WalletRisk(rep store.Reputation, stats store.TradeStats) float64 {
	risk := tierBase(rep)

	winMod := (0.5 - stats.WinRate) * 80
	risk += clamp(winMod, -20, 20)

	if stats.NetPnL.IsNegative() {
		lossSOL, _ := stats.NetPnL.Abs().Float64()
		risk += clamp(lossSOL*4, 0, 20)
	}

	return clamp(risk, 0, 100)
}

func tierBase(rep store.Reputation) float64 {
	if !rep.Verified {
		return 50
	}
	switch rep.Tier {
	case store.TierHigh:
		return 10
	case store.TierMedium:
		return 40
	case store.TierLow:
		return 70
	default:
		return 50
	}
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
