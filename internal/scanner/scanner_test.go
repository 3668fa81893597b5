package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solguard/engine/internal/store"
)

type fakeSource struct {
	tokens    []store.Token
	params    map[string]store.LendingParams
	listErr   error
	paramErrs map[string]error
}

func (f *fakeSource) ListTokens(_ context.Context, _, _ string, _ int) ([]store.Token, error) {
	return f.tokens, f.listErr
}

func (f *fakeSource) GetLendingParams(_ context.Context, mint string) (store.LendingParams, error) {
	if err, ok := f.paramErrs[mint]; ok {
		return store.LendingParams{}, err
	}
	return f.params[mint], nil
}

func activeParams(loans uint64) store.LendingParams {
	return store.LendingParams{
		LiquidationThresholdBps: 8000,
		LiquidationBonusBps:     1000,
		ActiveLoans:             store.KnownLoans(loans),
	}
}

func TestRefreshFiltersAndCarriesState(t *testing.T) {
	src := &fakeSource{
		tokens: []store.Token{
			{Mint: "mintA", Symbol: "AAA", Price: 1.5},
			{Mint: "mintB", Symbol: "BBB", Price: 2.0},
			{Mint: "mintC", Symbol: "CCC", Price: 3.0},
		},
		params: map[string]store.LendingParams{
			"mintA": activeParams(3),
			"mintB": activeParams(0), // no active loans
			"mintC": {ActiveLoans: store.UnknownLoans()},
		},
	}
	s := New(src, 5, 100)

	prev := map[string]*store.Token{
		"mintA": {
			Mint:         "mintA",
			PriceHistory: []store.PricePoint{{Price: 1.0}},
			Borrowers:    map[string]struct{}{"wallet1": {}},
		},
		"mintGone": {Mint: "mintGone"},
	}

	next, err := s.Refresh(context.Background(), prev)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// Zero known loans drops the token
	if _, ok := next["mintB"]; ok {
		t.Error("Expected token with zero active loans to be dropped")
	}

	// Unknown loan count keeps the token monitored
	if _, ok := next["mintC"]; !ok {
		t.Error("Expected token with unknown loan count to be kept")
	}

	// Tokens absent from discovery are dropped
	if _, ok := next["mintGone"]; ok {
		t.Error("Expected absent token to be dropped")
	}

	// History and borrowers carry over, with the new sample appended
	a := next["mintA"]
	if len(a.PriceHistory) != 2 {
		t.Fatalf("Expected 2 history samples, got %d", len(a.PriceHistory))
	}
	if a.PriceHistory[1].Price != 1.5 {
		t.Errorf("Expected newest sample 1.5, got %f", a.PriceHistory[1].Price)
	}
	if _, ok := a.Borrowers["wallet1"]; !ok {
		t.Error("Expected known borrower to carry over")
	}
}

func TestRefreshParamFailureIsolated(t *testing.T) {
	src := &fakeSource{
		tokens: []store.Token{
			{Mint: "mintA", Price: 1.0},
			{Mint: "mintB", Price: 2.0},
		},
		params: map[string]store.LendingParams{
			"mintB": activeParams(1),
		},
		paramErrs: map[string]error{
			"mintA": errors.New("gateway timeout"),
		},
	}
	s := New(src, 5, 100)

	next, err := s.Refresh(context.Background(), nil)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if _, ok := next["mintA"]; ok {
		t.Error("Expected token with failed params to be skipped this pass")
	}
	if _, ok := next["mintB"]; !ok {
		t.Error("Expected healthy token to survive another token's failure")
	}
}

func TestRefreshDiscoveryFailure(t *testing.T) {
	src := &fakeSource{listErr: errors.New("listing down")}
	s := New(src, 5, 100)

	if _, err := s.Refresh(context.Background(), nil); err == nil {
		t.Error("Expected discovery failure to fail the refresh")
	}
}

func TestTrimmedAppendHoldsDepth(t *testing.T) {
	depth := 3
	var history []store.PricePoint

	for i := 0; i < 10; i++ {
		history = TrimmedAppend(history, store.PricePoint{Price: float64(i), Timestamp: time.Now()}, depth)
		if len(history) > depth {
			t.Fatalf("History exceeded depth after append %d: len=%d", i, len(history))
		}
	}

	// Oldest samples dropped from the front
	if history[0].Price != 7 || history[2].Price != 9 {
		t.Errorf("Expected samples [7 8 9], got %v", history)
	}
}
