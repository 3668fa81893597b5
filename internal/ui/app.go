// Package ui provides terminal user interface components.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/solguard/engine/internal/metrics"
	"github.com/solguard/engine/internal/monitor"
	"github.com/solguard/engine/internal/store"
)

// App is the main TUI application.
type App struct {
	app    *tview.Application
	layout *tview.Flex

	// Views
	tokenOverview *TokenOverviewView
	riskBoard     *RiskBoardView
	outcomeLog    *OutcomeLogView
	statsPanel    *StatsPanelView

	// Data sources
	alertChan   <-chan store.ScoredPosition
	outcomeChan <-chan store.LiquidationOutcome
	monitor     *monitor.Monitor
	tracker     *metrics.EngineTracker
	refreshRate time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates a new TUI application.
func NewApp(mon *monitor.Monitor, tracker *metrics.EngineTracker, refreshRate time.Duration) *App {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		app:         tview.NewApplication(),
		alertChan:   mon.Alerts(),
		outcomeChan: mon.Outcomes(),
		monitor:     mon,
		tracker:     tracker,
		refreshRate: refreshRate,
		ctx:         ctx,
		cancel:      cancel,
	}

	app.tokenOverview = NewTokenOverviewView()
	app.riskBoard = NewRiskBoardView()
	app.outcomeLog = NewOutcomeLogView()
	app.statsPanel = NewStatsPanelView()

	app.setupLayout()
	app.setupKeyboard()

	return app
}

// setupLayout creates the 4-panel layout.
func (a *App) setupLayout() {
	// Top row: Token Overview (left) | Risk Board (right)
	topRow := tview.NewFlex().
		AddItem(a.tokenOverview.Widget(), 0, 1, false).
		AddItem(a.riskBoard.Widget(), 0, 2, false)

	// Bottom row: Stats Panel (left) | Outcome Log (right)
	bottomRow := tview.NewFlex().
		AddItem(a.statsPanel.Widget(), 0, 1, false).
		AddItem(a.outcomeLog.Widget(), 0, 2, false)

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 3, false).
		AddItem(bottomRow, 0, 2, false)

	a.app.SetRoot(a.layout, true)
}

// setupKeyboard configures keyboard shortcuts.
func (a *App) setupKeyboard() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			a.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				a.Stop()
				return nil
			case 'r', 'R':
				a.refresh()
				return nil
			}
		}
		return event
	})
}

// Run starts the TUI application (blocking).
func (a *App) Run() error {
	go a.processAlerts()
	go a.processOutcomes()
	go a.updateLoop()

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// processAlerts reads from the alert channel and updates the risk board.
func (a *App) processAlerts() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case alert, ok := <-a.alertChan:
			if !ok {
				return
			}

			a.app.QueueUpdateDraw(func() {
				a.riskBoard.AddAlert(alert)
			})
		}
	}
}

// processOutcomes reads from the outcome channel and updates the outcome log.
func (a *App) processOutcomes() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case outcome, ok := <-a.outcomeChan:
			if !ok {
				return
			}

			a.app.QueueUpdateDraw(func() {
				a.outcomeLog.AddOutcome(outcome)
			})
		}
	}
}

// updateLoop periodically refreshes views with tracker and working-set data.
func (a *App) updateLoop() {
	ticker := time.NewTicker(a.refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			snapshot := a.tracker.Snapshot()
			tokens := a.monitor.Tokens()

			a.app.QueueUpdateDraw(func() {
				a.statsPanel.Update(snapshot)
				a.tokenOverview.Update(tokens)
			})
		}
	}
}

// refresh manually refreshes all views.
func (a *App) refresh() {
	snapshot := a.tracker.Snapshot()
	tokens := a.monitor.Tokens()

	a.app.QueueUpdateDraw(func() {
		a.statsPanel.Update(snapshot)
		a.tokenOverview.Update(tokens)
		a.riskBoard.Refresh()
		a.outcomeLog.Refresh()
	})
}
