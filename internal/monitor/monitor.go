// Package monitor orchestrates the engine: it owns the working token set,
// schedules the discovery and scoring passes, and sequences liquidation
// attempts.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/solguard/engine/internal/executor"
	"github.com/solguard/engine/internal/ledger"
	"github.com/solguard/engine/internal/metrics"
	"github.com/solguard/engine/internal/scanner"
	"github.com/solguard/engine/internal/scorer"
	"github.com/solguard/engine/internal/store"
)

// State is the monitor lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrNotIdle is returned when Start is called on a monitor that already ran.
var ErrNotIdle = errors.New("monitor: not idle")

// PositionSource is the slice of the gateway the scoring pass needs.
type PositionSource interface {
	ListBorrowers(ctx context.Context, mint string, limit int) ([]string, error)
	GetPosition(ctx context.Context, mint, borrower string) (store.Position, error)
}

// WalletProfiler produces cached wallet risk profiles.
type WalletProfiler interface {
	Profile(ctx context.Context, borrower, mint string) store.WalletProfile
	CacheLen() int
}

// Config carries the monitor's scheduling and policy knobs.
type Config struct {
	ScanInterval  time.Duration
	ScoreInterval time.Duration
	RiskThreshold int
	BorrowerLimit int
}

const alertBuffer = 100

// Monitor runs the discovery and scoring passes. The working set is only
// ever replaced wholesale under the mutex; a scoring pass reads a snapshot
// taken at pass start, so it sees either the pre- or post-swap set, never a
// partially updated one.
type Monitor struct {
	cfg       Config
	scanner   *scanner.Scanner
	positions PositionSource
	profiler  WalletProfiler
	exec      *executor.Executor
	strategy  executor.Strategy
	outcomes  ledger.Store
	tracker   *metrics.EngineTracker

	state  atomic.Int32
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.RWMutex
	tokens       map[string]*store.Token
	latestScored []store.ScoredPosition

	alertCh   chan store.ScoredPosition
	outcomeCh chan store.LiquidationOutcome
}

// New creates a monitor. strategy defaults to sequential execution when nil.
func New(cfg Config, sc *scanner.Scanner, positions PositionSource, profiler WalletProfiler,
	exec *executor.Executor, strategy executor.Strategy, outcomes ledger.Store,
	tracker *metrics.EngineTracker) *Monitor {

	if strategy == nil {
		strategy = executor.Sequential{}
	}
	return &Monitor{
		cfg:       cfg,
		scanner:   sc,
		positions: positions,
		profiler:  profiler,
		exec:      exec,
		strategy:  strategy,
		outcomes:  outcomes,
		tracker:   tracker,
		tokens:    make(map[string]*store.Token),
		alertCh:   make(chan store.ScoredPosition, alertBuffer),
		outcomeCh: make(chan store.LiquidationOutcome, alertBuffer),
	}
}

// State returns the current lifecycle state.
func (m *Monitor) State() State { return State(m.state.Load()) }

// Alerts delivers positions whose composite score crossed the risk threshold.
func (m *Monitor) Alerts() <-chan store.ScoredPosition { return m.alertCh }

// Outcomes delivers successful liquidation outcomes.
func (m *Monitor) Outcomes() <-chan store.LiquidationOutcome { return m.outcomeCh }

// Start runs one synchronous discovery pass and then launches the discovery
// and scoring loops. It may be called once per Monitor.
func (m *Monitor) Start(ctx context.Context) error {
	if !m.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrNotIdle
	}

	ctx, m.cancel = context.WithCancel(ctx)

	// The steady state must start from a populated set, so the first
	// discovery pass runs before the loops.
	m.runDiscoveryPass(ctx)

	m.wg.Add(2)
	go m.discoveryLoop(ctx)
	go m.scoreLoop(ctx)

	slog.Info("monitor_started",
		"scan_interval", m.cfg.ScanInterval,
		"score_interval", m.cfg.ScoreInterval,
		"risk_threshold", m.cfg.RiskThreshold,
	)
	return nil
}

// Stop cancels both loops and waits for in-flight passes to finish, so the
// outcome of an in-progress liquidation attempt is observed before exit.
func (m *Monitor) Stop() {
	if !m.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.state.Store(int32(StateStopped))
	slog.Info("monitor_stopped")
}

// --- Loops ---

// Each loop sleeps for the full interval after its pass completes, so a pass
// can never overlap with its own next tick.
func (m *Monitor) discoveryLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.ScanInterval):
		}
		m.runDiscoveryPass(ctx)
	}
}

func (m *Monitor) scoreLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.ScoreInterval):
		}
		m.runScorePass(ctx)
	}
}

// --- Discovery ---

func (m *Monitor) runDiscoveryPass(ctx context.Context) {
	prev := m.snapshotTokens()

	next, err := m.scanner.Refresh(ctx, prev)
	if err != nil {
		// Keep the previous working set; stale data beats an empty set.
		slog.Warn("scan_pass_failed", "error", err)
		metrics.ScanPassesTotal.WithLabelValues("failed").Inc()
		return
	}

	m.mu.Lock()
	m.tokens = next
	m.mu.Unlock()

	metrics.ScanPassesTotal.WithLabelValues("ok").Inc()
	metrics.TokensMonitored.Set(float64(len(next)))
	m.tracker.RecordScanPass(len(next))

	slog.Info("scan_pass_complete", "tokens", len(next))
}

// --- Scoring ---

func (m *Monitor) runScorePass(ctx context.Context) {
	start := time.Now()
	snapshot := m.snapshotTokens()

	var scored []store.ScoredPosition
	for mint, token := range snapshot {
		if ctx.Err() != nil {
			return
		}
		scored = append(scored, m.scoreToken(ctx, mint, token)...)
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	m.mu.Lock()
	m.latestScored = scored
	m.mu.Unlock()

	for _, sp := range scored {
		if sp.Score < m.cfg.RiskThreshold {
			break
		}
		slog.Info("high_risk_position",
			"mint", sp.Mint,
			"symbol", sp.Symbol,
			"borrower", sp.Borrower,
			"score", sp.Score,
			"health", sp.Position.Health,
			"profit_lamports", sp.EstimatedProfit.String(),
		)
		select {
		case m.alertCh <- sp:
		default:
		}
	}

	candidates := make([]store.ScoredPosition, 0)
	for _, sp := range scored {
		if sp.Position.Health == store.HealthLiquidatable {
			candidates = append(candidates, sp)
		}
	}
	// Highest estimated profit first; attempts run in this order.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].EstimatedProfit.GreaterThan(candidates[j].EstimatedProfit)
	})

	outcomes := m.strategy.Execute(ctx, candidates, m.exec.Attempt)
	for _, o := range outcomes {
		if err := m.outcomes.Append(ctx, o); err != nil {
			slog.Warn("outcome_append_failed", "id", o.ID, "error", err)
		}
		m.tracker.RecordLiquidation(o.Profit)
		select {
		case m.outcomeCh <- o:
		default:
		}
	}

	metrics.ScorePassesTotal.Inc()
	metrics.PositionsScoredTotal.Add(float64(len(scored)))
	metrics.ScorePassDuration.Observe(time.Since(start).Seconds())
	m.tracker.RecordScorePass(len(scored), m.profiler.CacheLen())

	slog.Info("score_pass_complete",
		"scored", len(scored),
		"candidates", len(candidates),
		"liquidated", len(outcomes),
		"elapsed", time.Since(start),
	)
}

// scoreToken scores every borrower position on one token. Failures are
// isolated per borrower; a borrower-listing failure falls back to the
// previously known set.
func (m *Monitor) scoreToken(ctx context.Context, mint string, token *store.Token) []store.ScoredPosition {
	borrowers, err := m.positions.ListBorrowers(ctx, mint, m.cfg.BorrowerLimit)
	if err != nil {
		slog.Warn("borrower_listing_failed", "mint", mint, "error", err)
		borrowers = nil
	}

	merged := make(map[string]struct{}, len(token.Borrowers)+len(borrowers))
	for b := range token.Borrowers {
		merged[b] = struct{}{}
	}
	for _, b := range borrowers {
		merged[b] = struct{}{}
	}
	m.storeBorrowers(mint, merged)

	now := time.Now()
	var scored []store.ScoredPosition
	for borrower := range merged {
		if ctx.Err() != nil {
			return scored
		}

		pos, err := m.positions.GetPosition(ctx, mint, borrower)
		if err != nil {
			slog.Debug("position_fetch_failed", "mint", mint, "borrower", borrower, "error", err)
			continue
		}
		if !pos.HasObligation() {
			continue
		}

		profile := m.profiler.Profile(ctx, borrower, mint)
		scored = append(scored, scorer.Score(mint, token.Symbol, borrower,
			pos, token.Params, token.PriceHistory, profile, now))
	}
	return scored
}

// --- Working set access ---

// ApplyPriceUpdate appends a streamed price tick to a monitored token's
// history, holding the same depth bound as the scanner.
func (m *Monitor) ApplyPriceUpdate(u store.PriceUpdate, depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.tokens[u.Mint]
	if !ok {
		return
	}
	token.Price = u.Price
	token.PriceHistory = scanner.TrimmedAppend(token.PriceHistory,
		store.PricePoint{Price: u.Price, Timestamp: u.Timestamp}, depth)
}

// snapshotTokens returns a deep-enough copy of the working set: price
// histories and borrower sets are copied so passes never share mutable
// slices or maps across goroutines.
func (m *Monitor) snapshotTokens() map[string]*store.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]*store.Token, len(m.tokens))
	for mint, t := range m.tokens {
		copied := *t
		copied.PriceHistory = append([]store.PricePoint(nil), t.PriceHistory...)
		copied.Borrowers = make(map[string]struct{}, len(t.Borrowers))
		for b := range t.Borrowers {
			copied.Borrowers[b] = struct{}{}
		}
		snapshot[mint] = &copied
	}
	return snapshot
}

// storeBorrowers publishes a refreshed borrower set for a token. The token
// may have been swapped out by a discovery pass meanwhile; that is fine, the
// set reappears on the next pass.
func (m *Monitor) storeBorrowers(mint string, borrowers map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token, ok := m.tokens[mint]; ok {
		token.Borrowers = borrowers
	}
}

// LatestScored returns the most recent scoring pass results, highest score
// first.
func (m *Monitor) LatestScored() []store.ScoredPosition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]store.ScoredPosition(nil), m.latestScored...)
}

// Tokens returns a snapshot of the working set for the operator surfaces.
func (m *Monitor) Tokens() []store.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tokens := make([]store.Token, 0, len(m.tokens))
	for _, t := range m.tokens {
		copied := *t
		copied.PriceHistory = append([]store.PricePoint(nil), t.PriceHistory...)
		copied.Borrowers = nil
		tokens = append(tokens, copied)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Symbol < tokens[j].Symbol })
	return tokens
}
