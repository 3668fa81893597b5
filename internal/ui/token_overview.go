package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/solguard/engine/internal/store"
)

// TokenOverviewView displays the monitored tokens and their key lending
// parameters.
type TokenOverviewView struct {
	table *tview.Table
}

// NewTokenOverviewView creates a new token overview view.
func NewTokenOverviewView() *TokenOverviewView {
	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0)

	table.SetTitle(" Token Overview ").SetBorder(true)

	for col, header := range tokenHeaders() {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false).
			SetExpansion(1)
		table.SetCell(0, col, cell)
	}

	return &TokenOverviewView{
		table: table,
	}
}

func tokenHeaders() []string {
	return []string{"Token", "Price", "Loans", "Threshold", "Bonus", "Updated"}
}

// Widget returns the tview primitive.
func (v *TokenOverviewView) Widget() tview.Primitive {
	return v.table
}

// Update refreshes the view with the current working set.
func (v *TokenOverviewView) Update(tokens []store.Token) {
	v.table.Clear()

	for col, header := range tokenHeaders() {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false)
		v.table.SetCell(0, col, cell)
	}

	// Show top 10 tokens (arrive sorted by symbol)
	limit := 10
	if len(tokens) < limit {
		limit = len(tokens)
	}

	for i, token := range tokens[:limit] {
		row := i + 1

		loans := "?"
		if token.Params.ActiveLoans.Known {
			loans = fmt.Sprintf("%d", token.Params.ActiveLoans.Value)
		}

		cells := []string{
			token.Symbol,
			fmt.Sprintf("%.6f", token.Price),
			loans,
			fmt.Sprintf("%.1f%%", float64(token.Params.LiquidationThresholdBps)/100),
			fmt.Sprintf("%.1f%%", float64(token.Params.LiquidationBonusBps)/100),
			formatTimeAgo(token.LastRefresh),
		}

		for col, text := range cells {
			cell := tview.NewTableCell(text).
				SetAlign(tview.AlignLeft).
				SetExpansion(1)
			v.table.SetCell(row, col, cell)
		}
	}

	v.table.SetTitle(fmt.Sprintf(" Token Overview (%d monitored) ", len(tokens)))
}
