// Package api exposes the operator HTTP surface: health, metrics, and
// read-only views of the engine's working state.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/solguard/engine/internal/ledger"
	"github.com/solguard/engine/internal/metrics"
	"github.com/solguard/engine/internal/monitor"
	"github.com/solguard/engine/internal/store"
)

const defaultOutcomeLimit = 50

// Server serves the operator API.
type Server struct {
	httpServer *http.Server
	monitor    *monitor.Monitor
	outcomes   ledger.Store
	tracker    *metrics.EngineTracker
}

// New creates the API server listening on the given port.
func New(port int, mon *monitor.Monitor, outcomes ledger.Store, tracker *metrics.EngineTracker) *Server {
	s := &Server{
		monitor:  mon,
		outcomes: outcomes,
		tracker:  tracker,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/tokens", s.handleTokens)
		r.Get("/candidates", s.handleCandidates)
		r.Get("/outcomes", s.handleOutcomes)
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	slog.Info("api_listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  s.monitor.State().String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.tracker.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":             s.monitor.State().String(),
		"uptime_seconds":    int(snap.Uptime.Seconds()),
		"scan_passes":       snap.ScanPasses,
		"score_passes":      snap.ScorePasses,
		"tokens_monitored":  snap.TokensMonitored,
		"positions_scored":  snap.PositionsScored,
		"liquidations":      snap.Liquidations,
		"total_profit":      snap.TotalProfit.String(),
		"feed_status":       snap.FeedStatus,
		"profile_cache_len": snap.ProfileCacheSize,
	})
}

func (s *Server) handleTokens(w http.ResponseWriter, _ *http.Request) {
	tokens := s.monitor.Tokens()

	type tokenView struct {
		Mint        string  `json:"mint"`
		Name        string  `json:"name"`
		Symbol      string  `json:"symbol"`
		Price       float64 `json:"price"`
		ActiveLoans string  `json:"active_loans"`
		LastRefresh string  `json:"last_refresh"`
	}

	views := make([]tokenView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, tokenView{
			Mint:        t.Mint,
			Name:        t.Name,
			Symbol:      t.Symbol,
			Price:       t.Price,
			ActiveLoans: t.Params.ActiveLoans.String(),
			LastRefresh: t.LastRefresh.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCandidates(w http.ResponseWriter, _ *http.Request) {
	scored := s.monitor.LatestScored()

	type candidateView struct {
		Mint               string `json:"mint"`
		Symbol             string `json:"symbol"`
		Borrower           string `json:"borrower"`
		Score              int    `json:"score"`
		Health             string `json:"health"`
		CollateralLamports uint64 `json:"collateral_lamports"`
		TotalOwedLamports  uint64 `json:"total_owed_lamports"`
		EstimatedProfit    string `json:"estimated_profit_lamports"`
	}

	views := make([]candidateView, 0, len(scored))
	for _, sp := range scored {
		views = append(views, candidateView{
			Mint:               sp.Mint,
			Symbol:             sp.Symbol,
			Borrower:           sp.Borrower,
			Score:              sp.Score,
			Health:             string(sp.Position.Health),
			CollateralLamports: sp.Position.CollateralValue,
			TotalOwedLamports:  sp.Position.TotalOwed,
			EstimatedProfit:    sp.EstimatedProfit.String(),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	limit := defaultOutcomeLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	outcomes, err := s.outcomes.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("outcome_query_failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "outcome query failed"})
		return
	}
	if outcomes == nil {
		outcomes = []store.LiquidationOutcome{}
	}
	writeJSON(w, http.StatusOK, outcomes)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response_encode_failed", "error", err)
	}
}
