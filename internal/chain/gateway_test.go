package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solguard/engine/internal/store"
)

func TestGetLendingParamsNullLoanCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/lending/mintA/params" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"interest_rate_bps":500,"liquidation_threshold_bps":8000,"liquidation_bonus_bps":1000,"active_loan_count":null}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	params, err := c.GetLendingParams(context.Background(), "mintA")
	if err != nil {
		t.Fatalf("GetLendingParams failed: %v", err)
	}

	if params.ActiveLoans.Known {
		t.Error("Expected unknown loan count for null field")
	}
	if params.LiquidationThresholdBps != 8000 {
		t.Errorf("Expected threshold 8000, got %d", params.LiquidationThresholdBps)
	}
}

func TestGetLendingParamsKnownLoanCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"active_loan_count":3}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	params, err := c.GetLendingParams(context.Background(), "mintA")
	if err != nil {
		t.Fatalf("GetLendingParams failed: %v", err)
	}

	if !params.ActiveLoans.Known || params.ActiveLoans.Value != 3 {
		t.Errorf("Expected known count 3, got %+v", params.ActiveLoans)
	}
}

func TestGetPositionParsesHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/lending/mintA/positions/wallet1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"health":"liquidatable","current_ltv_bps":8500,"collateral_value":10000000000,"total_owed":8000000000}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	pos, err := c.GetPosition(context.Background(), "mintA", "wallet1")
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}

	if pos.Health != store.HealthLiquidatable {
		t.Errorf("Expected liquidatable, got %s", pos.Health)
	}
	if !pos.HasObligation() {
		t.Error("Expected an obligation")
	}
}

func TestGetReputationUnknownWallet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	rep, err := c.GetReputation(context.Background(), "wallet1")
	if err != nil {
		t.Fatalf("Expected unknown wallet to not be an error, got %v", err)
	}

	if rep.Verified || rep.Tier != store.TierUnknown {
		t.Errorf("Expected unverified unknown wallet, got %+v", rep)
	}
}

func TestGetReputationTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	if _, err := c.GetReputation(context.Background(), "wallet1"); err == nil {
		t.Error("Expected error for server failure")
	}
}

func TestGetTradeMessagesNullPnL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"sender":"w1","pnl":1000000},{"sender":"w2","pnl":null}]`))
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	msgs, err := c.GetTradeMessages(context.Background(), "mintA", 100)
	if err != nil {
		t.Fatalf("GetTradeMessages failed: %v", err)
	}

	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if !msgs[0].HasPnL || msgs[0].PnLLamports != 1000000 {
		t.Errorf("Expected PnL 1000000, got %+v", msgs[0])
	}
	if msgs[1].HasPnL {
		t.Error("Expected absent PnL for null field")
	}
}

func TestExecuteLiquidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/lending/mintA/liquidate" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["borrower"] != "wallet1" {
			t.Errorf("Expected borrower wallet1, got %q", body["borrower"])
		}
		w.Write([]byte(`{"settlement_ref":"settle-1"}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	ref, err := c.ExecuteLiquidation(context.Background(), "mintA", "wallet1")
	if err != nil {
		t.Fatalf("ExecuteLiquidation failed: %v", err)
	}
	if ref != "settle-1" {
		t.Errorf("Expected settlement ref settle-1, got %q", ref)
	}
}

func TestListTokensQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "active" || q.Get("sort") != "volume" || q.Get("limit") != "100" {
			t.Errorf("Unexpected query %v", q)
		}
		w.Write([]byte(`[{"mint":"mintA","symbol":"AAA","price_sol":1.5}]`))
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	tokens, err := c.ListTokens(context.Background(), "active", "volume", 100)
	if err != nil {
		t.Fatalf("ListTokens failed: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Price != 1.5 {
		t.Errorf("Unexpected tokens %v", tokens)
	}
}
