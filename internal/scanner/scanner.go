// Package scanner discovers tokens with an active lending market and
// maintains each token's bounded rolling price history.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solguard/engine/internal/store"
)

// MarketSource is the slice of the gateway the scanner needs.
type MarketSource interface {
	ListTokens(ctx context.Context, status, sortKey string, limit int) ([]store.Token, error)
	GetLendingParams(ctx context.Context, mint string) (store.LendingParams, error)
}

// Scanner refreshes the monitored token set. A refresh builds a brand-new
// set; the previous one is never mutated, so the caller can swap the result
// in atomically.
type Scanner struct {
	src        MarketSource
	depth      int
	tokenLimit int
}

// New creates a scanner keeping price histories at the given depth and
// fetching at most tokenLimit tokens per discovery pass.
func New(src MarketSource, depth, tokenLimit int) *Scanner {
	return &Scanner{src: src, depth: depth, tokenLimit: tokenLimit}
}

// Refresh returns a new token set restricted to tokens whose lending market
// reports at least one active obligation. An unknown loan count keeps the
// token monitored; treating unknown as zero would silently drop positions.
// Tokens absent from the discovery response are dropped. A lending-param
// failure skips that token for this pass only; the token may reappear on the
// next pass. Only a failed discovery listing fails the whole refresh.
func (s *Scanner) Refresh(ctx context.Context, prev map[string]*store.Token) (map[string]*store.Token, error) {
	listed, err := s.src.ListTokens(ctx, "active", "volume", s.tokenLimit)
	if err != nil {
		return nil, fmt.Errorf("token discovery failed: %w", err)
	}

	now := time.Now()
	next := make(map[string]*store.Token, len(listed))

	for _, t := range listed {
		params, err := s.src.GetLendingParams(ctx, t.Mint)
		if err != nil {
			slog.Warn("lending_params_failed", "mint", t.Mint, "error", err)
			continue
		}

		if params.ActiveLoans.Known && params.ActiveLoans.Value == 0 {
			continue
		}

		token := &store.Token{
			Mint:        t.Mint,
			Name:        t.Name,
			Symbol:      t.Symbol,
			Params:      params,
			Price:       t.Price,
			Borrowers:   make(map[string]struct{}),
			LastRefresh: now,
		}

		if old, ok := prev[t.Mint]; ok {
			token.PriceHistory = append(token.PriceHistory, old.PriceHistory...)
			for b := range old.Borrowers {
				token.Borrowers[b] = struct{}{}
			}
		}

		token.PriceHistory = TrimmedAppend(token.PriceHistory,
			store.PricePoint{Price: t.Price, Timestamp: now}, s.depth)

		next[t.Mint] = token
	}

	slog.Debug("scan_refresh_complete", "listed", len(listed), "monitored", len(next))
	return next, nil
}

// TrimmedAppend appends a sample and drops the oldest samples from the front
// until the history fits the configured depth.
func TrimmedAppend(history []store.PricePoint, p store.PricePoint, depth int) []store.PricePoint {
	history = append(history, p)
	if over := len(history) - depth; over > 0 {
		history = history[over:]
	}
	return history
}
