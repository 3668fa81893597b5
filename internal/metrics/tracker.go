package metrics

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// EngineSnapshot is a point-in-time view of engine activity for the TUI and
// the operator API.
type EngineSnapshot struct {
	Uptime           time.Duration
	ScanPasses       int64
	ScorePasses      int64
	TokensMonitored  int
	PositionsScored  int64
	Liquidations     int64
	TotalProfit      decimal.Decimal // lamports
	LastScanAt       time.Time
	LastScoreAt      time.Time
	FeedStatus       string
	ProfileCacheSize int
}

// EngineTracker provides thread-safe engine activity tracking.
type EngineTracker struct {
	mu               sync.RWMutex
	startTime        time.Time
	scanPasses       int64
	scorePasses      int64
	tokensMonitored  int
	positionsScored  int64
	liquidations     int64
	totalProfit      decimal.Decimal
	lastScanAt       time.Time
	lastScoreAt      time.Time
	feedStatus       string
	profileCacheSize int
}

// NewEngineTracker creates a new EngineTracker.
func NewEngineTracker() *EngineTracker {
	return &EngineTracker{
		startTime:   time.Now(),
		totalProfit: decimal.Zero,
		feedStatus:  "disabled",
	}
}

// RecordScanPass records a completed discovery pass over the given set size.
func (t *EngineTracker) RecordScanPass(tokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scanPasses++
	t.tokensMonitored = tokens
	t.lastScanAt = time.Now()
}

// RecordScorePass records a completed scoring pass.
func (t *EngineTracker) RecordScorePass(scored, cacheSize int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scorePasses++
	t.positionsScored += int64(scored)
	t.profileCacheSize = cacheSize
	t.lastScoreAt = time.Now()
}

// RecordLiquidation records a successful liquidation and its profit estimate.
func (t *EngineTracker) RecordLiquidation(profitLamports decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.liquidations++
	t.totalProfit = t.totalProfit.Add(profitLamports)
}

// SetFeedStatus sets the price feed connection status.
func (t *EngineTracker) SetFeedStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.feedStatus = status
}

// Snapshot returns a point-in-time snapshot of engine activity.
func (t *EngineTracker) Snapshot() EngineSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return EngineSnapshot{
		Uptime:           time.Since(t.startTime),
		ScanPasses:       t.scanPasses,
		ScorePasses:      t.scorePasses,
		TokensMonitored:  t.tokensMonitored,
		PositionsScored:  t.positionsScored,
		Liquidations:     t.liquidations,
		TotalProfit:      t.totalProfit,
		LastScanAt:       t.lastScanAt,
		LastScoreAt:      t.lastScoreAt,
		FeedStatus:       t.feedStatus,
		ProfileCacheSize: t.profileCacheSize,
	}
}
