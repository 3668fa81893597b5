package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/solguard/engine/internal/store"
)

// OutcomeLogView displays executed liquidations, newest first.
type OutcomeLogView struct {
	list     *tview.List
	outcomes []store.LiquidationOutcome
	maxItems int
}

// NewOutcomeLogView creates a new outcome log view.
func NewOutcomeLogView() *OutcomeLogView {
	list := tview.NewList().
		ShowSecondaryText(true)

	list.SetTitle(" 💰 Liquidations ").SetBorder(true)
	list.SetMainTextColor(tcell.ColorWhite)

	return &OutcomeLogView{
		list:     list,
		outcomes: make([]store.LiquidationOutcome, 0, 50),
		maxItems: 50,
	}
}

// Widget returns the tview primitive.
func (v *OutcomeLogView) Widget() tview.Primitive {
	return v.list
}

// AddOutcome adds an executed liquidation to the log.
func (v *OutcomeLogView) AddOutcome(outcome store.LiquidationOutcome) {
	v.outcomes = append([]store.LiquidationOutcome{outcome}, v.outcomes...)

	if len(v.outcomes) > v.maxItems {
		v.outcomes = v.outcomes[:v.maxItems]
	}

	v.rebuildList()
}

// Refresh redraws the list.
func (v *OutcomeLogView) Refresh() {
	v.rebuildList()
}

// rebuildList rebuilds the entire list from outcomes.
func (v *OutcomeLogView) rebuildList() {
	v.list.Clear()

	if len(v.outcomes) == 0 {
		v.list.AddItem("No liquidations executed yet", "", 0, nil)
		return
	}

	for _, outcome := range v.outcomes {
		timeStr := outcome.Timestamp.Format("15:04:05")
		profitSOL := store.LamportsToSOL(outcome.Profit)

		confirmed := "unconfirmed"
		if outcome.ReputationConfirmed {
			confirmed = "confirmed"
		}

		mainText := fmt.Sprintf("%s 💰 +%s SOL", timeStr, profitSOL.StringFixed(4))
		secondaryText := fmt.Sprintf("Borrower: %s | Ref: %s | Report: %s",
			truncateAddress(outcome.Borrower),
			truncateAddress(outcome.SettlementRef),
			confirmed,
		)

		v.list.AddItem(mainText, secondaryText, 0, nil)
	}

	v.list.SetTitle(fmt.Sprintf(" 💰 Liquidations (%d) ", len(v.outcomes)))
}
