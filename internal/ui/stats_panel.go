package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/solguard/engine/internal/metrics"
	"github.com/solguard/engine/internal/store"
)

// StatsPanelView displays engine health and pass statistics.
type StatsPanelView struct {
	textView *tview.TextView
}

// NewStatsPanelView creates a new stats panel view.
func NewStatsPanelView() *StatsPanelView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)

	textView.SetTitle(" Engine Stats ").SetBorder(true)

	return &StatsPanelView{
		textView: textView,
	}
}

// Widget returns the tview primitive.
func (v *StatsPanelView) Widget() tview.Primitive {
	return v.textView
}

// Update refreshes the stats display.
func (v *StatsPanelView) Update(snapshot metrics.EngineSnapshot) {
	v.textView.Clear()

	uptime := formatDuration(snapshot.Uptime)

	feedStatus := snapshot.FeedStatus
	feedColor := "red"
	if feedStatus == "connected" {
		feedColor = "green"
	}
	if feedStatus == "" {
		feedStatus = "disabled"
		feedColor = "gray"
	}

	lastScan := formatTimeAgo(snapshot.LastScanAt)
	lastScore := formatTimeAgo(snapshot.LastScoreAt)

	profitSOL := store.LamportsToSOL(snapshot.TotalProfit)

	text := fmt.Sprintf(`[yellow]Engine Status[-]
Uptime: %s
Price Feed: [%s]%s[-]
Last Scan: %s
Last Score: %s

[yellow]Passes[-]
Scan Passes: %d
Score Passes: %d
Tokens Monitored: %d
Positions Scored: %d

[yellow]Liquidations[-]
Executed: %d
Total Profit: %s SOL

[yellow]Profiler[-]
Cached Profiles: %d
`,
		uptime,
		feedColor, feedStatus,
		lastScan,
		lastScore,
		snapshot.ScanPasses,
		snapshot.ScorePasses,
		snapshot.TokensMonitored,
		snapshot.PositionsScored,
		snapshot.Liquidations,
		profitSOL.StringFixed(4),
		snapshot.ProfileCacheSize,
	)

	fmt.Fprint(v.textView, text)
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// formatTimeAgo formats a time as "X ago".
func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	elapsed := time.Since(t)

	if elapsed < time.Minute {
		return fmt.Sprintf("%.0fs ago", elapsed.Seconds())
	}
	if elapsed < time.Hour {
		return fmt.Sprintf("%.0fm ago", elapsed.Minutes())
	}
	if elapsed < 24*time.Hour {
		return fmt.Sprintf("%.0fh ago", elapsed.Hours())
	}
	return fmt.Sprintf("%.0fd ago", elapsed.Hours()/24)
}
