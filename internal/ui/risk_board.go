package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/solguard/engine/internal/store"
)

// RiskBoardView displays positions whose composite score crossed the alert
// threshold, newest first.
type RiskBoardView struct {
	list     *tview.List
	alerts   []store.ScoredPosition
	maxItems int
}

// NewRiskBoardView creates a new risk board view.
func NewRiskBoardView() *RiskBoardView {
	list := tview.NewList().
		ShowSecondaryText(true)

	list.SetTitle(" 🚨 Risk Board ").SetBorder(true)
	list.SetMainTextColor(tcell.ColorWhite)

	return &RiskBoardView{
		list:     list,
		alerts:   make([]store.ScoredPosition, 0, 50),
		maxItems: 50,
	}
}

// Widget returns the tview primitive.
func (v *RiskBoardView) Widget() tview.Primitive {
	return v.list
}

// AddAlert adds a new high-risk position to the board.
func (v *RiskBoardView) AddAlert(alert store.ScoredPosition) {
	// Add to front of list
	v.alerts = append([]store.ScoredPosition{alert}, v.alerts...)

	// Trim to max items
	if len(v.alerts) > v.maxItems {
		v.alerts = v.alerts[:v.maxItems]
	}

	v.rebuildList()
}

// Refresh redraws the list.
func (v *RiskBoardView) Refresh() {
	v.rebuildList()
}

// rebuildList rebuilds the entire list from alerts.
func (v *RiskBoardView) rebuildList() {
	v.list.Clear()

	if len(v.alerts) == 0 {
		v.list.AddItem("No high-risk positions yet", "", 0, nil)
		return
	}

	for _, alert := range v.alerts {
		mainText, secondaryText := v.formatAlert(alert)
		v.list.AddItem(mainText, secondaryText, 0, nil)
	}

	v.list.SetTitle(fmt.Sprintf(" 🚨 Risk Board (%d) ", len(v.alerts)))
}

// formatAlert formats a scored position for display.
func (v *RiskBoardView) formatAlert(alert store.ScoredPosition) (string, string) {
	var icon string
	switch alert.Position.Health {
	case store.HealthLiquidatable:
		icon = "🔴"
	case store.HealthAtRisk:
		icon = "🟡"
	default:
		icon = "⚪"
	}

	timeStr := alert.ScoredAt.Format("15:04:05")

	mainText := fmt.Sprintf("%s %s %s score=%d", timeStr, icon, alert.Symbol, alert.Score)

	profitSOL := store.LamportsToSOL(alert.EstimatedProfit)
	secondaryText := fmt.Sprintf("Borrower: %s | LTV: %.1f%% | Wallet: %.0f | Profit: %s SOL",
		truncateAddress(alert.Borrower),
		float64(alert.Position.CurrentLtvBps)/100,
		alert.Profile.Risk,
		profitSOL.StringFixed(4),
	)

	return mainText, secondaryText
}

// truncateAddress truncates a wallet address for display.
func truncateAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
