package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solguard/engine/internal/executor"
	"github.com/solguard/engine/internal/ledger"
	"github.com/solguard/engine/internal/metrics"
	"github.com/solguard/engine/internal/scanner"
	"github.com/solguard/engine/internal/store"
)

// fakeGateway implements the scanner, position, and liquidator interfaces
// for one in-memory lending market.
type fakeGateway struct {
	tokens    []store.Token
	params    map[string]store.LendingParams
	borrowers map[string][]string
	positions map[string]store.Position
	listErr   error
}

func (f *fakeGateway) ListTokens(_ context.Context, _, _ string, _ int) ([]store.Token, error) {
	return f.tokens, f.listErr
}

func (f *fakeGateway) GetLendingParams(_ context.Context, mint string) (store.LendingParams, error) {
	return f.params[mint], nil
}

func (f *fakeGateway) ListBorrowers(_ context.Context, mint string, _ int) ([]string, error) {
	return f.borrowers[mint], nil
}

func (f *fakeGateway) GetPosition(_ context.Context, mint, borrower string) (store.Position, error) {
	pos, ok := f.positions[mint+"/"+borrower]
	if !ok {
		return store.Position{}, errors.New("position not found")
	}
	return pos, nil
}

func (f *fakeGateway) ExecuteLiquidation(_ context.Context, mint, borrower string) (string, error) {
	return "ref-" + mint + "-" + borrower, nil
}

func (f *fakeGateway) ReportSettlement(_ context.Context, _ string) (store.SettlementReport, error) {
	return store.SettlementReport{Confirmed: true}, nil
}

type fakeProfiler struct{}

func (fakeProfiler) Profile(_ context.Context, borrower, _ string) store.WalletProfile {
	return store.WalletProfile{Address: borrower, Risk: 50, ComputedAt: time.Now()}
}

func (fakeProfiler) CacheLen() int { return 0 }

func newTestMonitor(gw *fakeGateway, outcomes ledger.Store) *Monitor {
	cfg := Config{
		ScanInterval:  time.Hour,
		ScoreInterval: time.Hour,
		RiskThreshold: 70,
		BorrowerLimit: 50,
	}
	sc := scanner.New(gw, 20, 100)
	exec := executor.New(gw, decimal.Zero)
	return New(cfg, sc, gw, fakeProfiler{}, exec, executor.Sequential{}, outcomes, metrics.NewEngineTracker())
}

func marketGateway() *fakeGateway {
	return &fakeGateway{
		tokens: []store.Token{{Mint: "mintA", Symbol: "AAA", Price: 1.0}},
		params: map[string]store.LendingParams{
			"mintA": {
				LiquidationThresholdBps: 8000,
				LiquidationBonusBps:     1000,
				ActiveLoans:             store.KnownLoans(2),
			},
		},
		borrowers: map[string][]string{"mintA": {"liq", "healthy"}},
		positions: map[string]store.Position{
			"mintA/liq": {
				Health:          store.HealthLiquidatable,
				CurrentLtvBps:   8500,
				CollateralValue: 10 * store.LamportsPerSOL,
				TotalOwed:       8 * store.LamportsPerSOL,
			},
			"mintA/healthy": {
				Health:          store.HealthHealthy,
				CurrentLtvBps:   2000,
				CollateralValue: 10 * store.LamportsPerSOL,
				TotalOwed:       2 * store.LamportsPerSOL,
			},
		},
	}
}

func TestLifecycle(t *testing.T) {
	m := newTestMonitor(marketGateway(), ledger.NewMemoryStore(10))

	if m.State() != StateIdle {
		t.Errorf("Expected idle before start, got %s", m.State())
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if m.State() != StateRunning {
		t.Errorf("Expected running after start, got %s", m.State())
	}

	if err := m.Start(context.Background()); err == nil {
		t.Error("Expected error on second Start")
	}

	m.Stop()
	if m.State() != StateStopped {
		t.Errorf("Expected stopped after stop, got %s", m.State())
	}

	// Stop is idempotent
	m.Stop()
}

func TestDiscoveryFailureRetainsWorkingSet(t *testing.T) {
	gw := marketGateway()
	m := newTestMonitor(gw, ledger.NewMemoryStore(10))

	m.runDiscoveryPass(context.Background())
	if len(m.Tokens()) != 1 {
		t.Fatalf("Expected 1 monitored token, got %d", len(m.Tokens()))
	}

	gw.listErr = errors.New("gateway down")
	m.runDiscoveryPass(context.Background())

	if len(m.Tokens()) != 1 {
		t.Errorf("Expected previous set retained after failed discovery, got %d tokens", len(m.Tokens()))
	}
}

func TestScorePassLiquidatesAndRecords(t *testing.T) {
	gw := marketGateway()
	outcomes := ledger.NewMemoryStore(10)
	m := newTestMonitor(gw, outcomes)

	m.runDiscoveryPass(context.Background())
	m.runScorePass(context.Background())

	scored := m.LatestScored()
	if len(scored) != 2 {
		t.Fatalf("Expected 2 scored positions, got %d", len(scored))
	}

	// Sorted highest score first
	if scored[0].Score < scored[1].Score {
		t.Errorf("Expected descending score order, got %d then %d", scored[0].Score, scored[1].Score)
	}
	if scored[0].Borrower != "liq" {
		t.Errorf("Expected liquidatable position to score highest, got %q", scored[0].Borrower)
	}

	recorded, err := outcomes.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recorded) != 1 {
		t.Fatalf("Expected 1 liquidation outcome, got %d", len(recorded))
	}
	if recorded[0].Borrower != "liq" {
		t.Errorf("Expected liquidatable borrower, got %q", recorded[0].Borrower)
	}
	if !recorded[0].ReputationConfirmed {
		t.Error("Expected confirmed settlement report")
	}

	// The healthy position was never attempted
	select {
	case o := <-m.Outcomes():
		if o.Borrower != "liq" {
			t.Errorf("Unexpected outcome for %q", o.Borrower)
		}
	default:
		t.Error("Expected outcome on channel")
	}
}

func TestLiquidationOrderHighestProfitFirst(t *testing.T) {
	gw := marketGateway()
	gw.borrowers["mintA"] = []string{"small", "big"}
	gw.positions = map[string]store.Position{
		"mintA/small": {
			Health:          store.HealthLiquidatable,
			CurrentLtvBps:   8500,
			CollateralValue: 1 * store.LamportsPerSOL,
			TotalOwed:       1,
		},
		"mintA/big": {
			Health:          store.HealthLiquidatable,
			CurrentLtvBps:   8500,
			CollateralValue: 10 * store.LamportsPerSOL,
			TotalOwed:       1,
		},
	}

	outcomes := ledger.NewMemoryStore(10)
	m := newTestMonitor(gw, outcomes)

	m.runDiscoveryPass(context.Background())
	m.runScorePass(context.Background())

	recorded, _ := outcomes.Recent(context.Background(), 10)
	if len(recorded) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(recorded))
	}
	// Appended in attempt order; Recent is newest first, so the higher-profit
	// candidate (attempted first) comes last
	if recorded[1].Borrower != "big" || recorded[0].Borrower != "small" {
		t.Errorf("Expected highest profit attempted first, got %s then %s",
			recorded[1].Borrower, recorded[0].Borrower)
	}
}

func TestScorePassMergesDiscoveredBorrowers(t *testing.T) {
	gw := marketGateway()
	m := newTestMonitor(gw, ledger.NewMemoryStore(10))

	m.runDiscoveryPass(context.Background())

	// A borrower known from a previous pass but no longer listed
	m.storeBorrowers("mintA", map[string]struct{}{"stale": {}})
	gw.positions["mintA/stale"] = store.Position{
		Health:    store.HealthAtRisk,
		TotalOwed: store.LamportsPerSOL,
	}

	m.runScorePass(context.Background())

	scored := m.LatestScored()
	if len(scored) != 3 {
		t.Errorf("Expected known and listed borrowers merged (3 scored), got %d", len(scored))
	}
}

func TestApplyPriceUpdate(t *testing.T) {
	gw := marketGateway()
	m := newTestMonitor(gw, ledger.NewMemoryStore(10))

	m.runDiscoveryPass(context.Background())

	m.ApplyPriceUpdate(store.PriceUpdate{Mint: "mintA", Price: 2.5, Timestamp: time.Now()}, 3)
	m.ApplyPriceUpdate(store.PriceUpdate{Mint: "unknown", Price: 9.9, Timestamp: time.Now()}, 3)

	tokens := m.Tokens()
	if tokens[0].Price != 2.5 {
		t.Errorf("Expected updated price 2.5, got %f", tokens[0].Price)
	}
	if len(tokens) != 1 {
		t.Errorf("Expected unknown mint ignored, got %d tokens", len(tokens))
	}

	// Depth bound holds under a stream of ticks
	for i := 0; i < 10; i++ {
		m.ApplyPriceUpdate(store.PriceUpdate{Mint: "mintA", Price: float64(i), Timestamp: time.Now()}, 3)
	}
	tokens = m.Tokens()
	if len(tokens[0].PriceHistory) != 3 {
		t.Errorf("Expected history trimmed to 3, got %d", len(tokens[0].PriceHistory))
	}
}

func TestScorePassSkipsNoObligation(t *testing.T) {
	gw := marketGateway()
	gw.positions["mintA/healthy"] = store.Position{Health: store.HealthNone}
	m := newTestMonitor(gw, ledger.NewMemoryStore(10))

	m.runDiscoveryPass(context.Background())
	m.runScorePass(context.Background())

	scored := m.LatestScored()
	if len(scored) != 1 {
		t.Fatalf("Expected positions without obligations skipped, got %d scored", len(scored))
	}
	if scored[0].Borrower != "liq" {
		t.Errorf("Expected only the indebted borrower, got %q", scored[0].Borrower)
	}
}
