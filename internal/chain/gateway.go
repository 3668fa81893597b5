package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/solguard/engine/internal/store"
)

const (
	// DefaultTimeout bounds every gateway round trip.
	DefaultTimeout = 10 * time.Second
)

var _ Client = (*GatewayClient)(nil)

// GatewayClient implements Client against the RPC gateway's REST surface.
type GatewayClient struct {
	baseURL string
	client  *http.Client
}

// NewGatewayClient creates a client for the gateway at baseURL.
func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
}

// --- Wire types ---

type tokenResponse struct {
	Mint   string  `json:"mint"`
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price_sol"`
	Status string  `json:"status"`
}

type lendingParamsResponse struct {
	InterestRateBps         uint64  `json:"interest_rate_bps"`
	MaxLtvBps               uint64  `json:"max_ltv_bps"`
	LiquidationThresholdBps uint64  `json:"liquidation_threshold_bps"`
	LiquidationBonusBps     uint64  `json:"liquidation_bonus_bps"`
	TreasuryAvailable       uint64  `json:"treasury_available"`
	ActiveLoanCount         *uint64 `json:"active_loan_count"` // null when the venue cannot report it
}

type positionResponse struct {
	Health           string `json:"health"`
	CurrentLtvBps    uint64 `json:"current_ltv_bps"`
	CollateralAmount uint64 `json:"collateral_amount"`
	CollateralValue  uint64 `json:"collateral_value"`
	BorrowedAmount   uint64 `json:"borrowed_amount"`
	AccruedInterest  uint64 `json:"accrued_interest"`
	TotalOwed        uint64 `json:"total_owed"`
}

type tradeMessageResponse struct {
	Sender string `json:"sender"`
	PnL    *int64 `json:"pnl"`
}

type reputationResponse struct {
	Verified bool    `json:"verified"`
	Tier     *string `json:"tier"`
}

type settlementResponse struct {
	SettlementRef string `json:"settlement_ref"`
}

type settlementReportResponse struct {
	Confirmed bool   `json:"confirmed"`
	EventType string `json:"event_type"`
}

// --- Client implementation ---

func (g *GatewayClient) ListTokens(ctx context.Context, status, sortKey string, limit int) ([]store.Token, error) {
	q := url.Values{}
	q.Set("status", status)
	q.Set("sort", sortKey)
	q.Set("limit", fmt.Sprintf("%d", limit))

	var resp []tokenResponse
	if err := g.getJSON(ctx, "/v1/tokens?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	tokens := make([]store.Token, 0, len(resp))
	for _, t := range resp {
		tokens = append(tokens, store.Token{
			Mint:   t.Mint,
			Name:   t.Name,
			Symbol: t.Symbol,
			Price:  t.Price,
		})
	}
	return tokens, nil
}

func (g *GatewayClient) GetLendingParams(ctx context.Context, mint string) (store.LendingParams, error) {
	var resp lendingParamsResponse
	if err := g.getJSON(ctx, "/v1/lending/"+url.PathEscape(mint)+"/params", &resp); err != nil {
		return store.LendingParams{}, fmt.Errorf("lending params for %s: %w", mint, err)
	}

	loans := store.UnknownLoans()
	if resp.ActiveLoanCount != nil {
		loans = store.KnownLoans(*resp.ActiveLoanCount)
	}

	return store.LendingParams{
		InterestRateBps:         resp.InterestRateBps,
		MaxLtvBps:               resp.MaxLtvBps,
		LiquidationThresholdBps: resp.LiquidationThresholdBps,
		LiquidationBonusBps:     resp.LiquidationBonusBps,
		TreasuryAvailable:       resp.TreasuryAvailable,
		ActiveLoans:             loans,
	}, nil
}

func (g *GatewayClient) GetPosition(ctx context.Context, mint, borrower string) (store.Position, error) {
	path := "/v1/lending/" + url.PathEscape(mint) + "/positions/" + url.PathEscape(borrower)

	var resp positionResponse
	if err := g.getJSON(ctx, path, &resp); err != nil {
		return store.Position{}, fmt.Errorf("position %s/%s: %w", mint, borrower, err)
	}

	return store.Position{
		Health:           parseHealth(resp.Health),
		CurrentLtvBps:    resp.CurrentLtvBps,
		CollateralAmount: resp.CollateralAmount,
		CollateralValue:  resp.CollateralValue,
		BorrowedAmount:   resp.BorrowedAmount,
		AccruedInterest:  resp.AccruedInterest,
		TotalOwed:        resp.TotalOwed,
	}, nil
}

func (g *GatewayClient) ListBorrowers(ctx context.Context, mint string, limit int) ([]string, error) {
	path := fmt.Sprintf("/v1/lending/%s/borrowers?limit=%d", url.PathEscape(mint), limit)

	var resp []string
	if err := g.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("borrowers for %s: %w", mint, err)
	}
	return resp, nil
}

func (g *GatewayClient) GetTradeMessages(ctx context.Context, mint string, limit int) ([]store.TradeMessage, error) {
	path := fmt.Sprintf("/v1/tokens/%s/messages?limit=%d", url.PathEscape(mint), limit)

	var resp []tradeMessageResponse
	if err := g.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("trade messages for %s: %w", mint, err)
	}

	msgs := make([]store.TradeMessage, 0, len(resp))
	for _, m := range resp {
		msg := store.TradeMessage{Sender: m.Sender}
		if m.PnL != nil {
			msg.PnLLamports = *m.PnL
			msg.HasPnL = true
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (g *GatewayClient) GetReputation(ctx context.Context, address string) (store.Reputation, error) {
	var resp reputationResponse
	err := g.getJSON(ctx, "/v1/wallets/"+url.PathEscape(address)+"/reputation", &resp)
	if err != nil {
		// An unknown wallet is not an error; only transport failures are.
		if isNotFound(err) {
			return store.Reputation{Verified: false, Tier: store.TierUnknown}, nil
		}
		return store.Reputation{}, fmt.Errorf("reputation for %s: %w", address, err)
	}

	tier := store.TierUnknown
	if resp.Tier != nil {
		tier = parseTier(*resp.Tier)
	}
	return store.Reputation{Verified: resp.Verified, Tier: tier}, nil
}

func (g *GatewayClient) ExecuteLiquidation(ctx context.Context, mint, borrower string) (string, error) {
	body := map[string]string{"borrower": borrower}

	var resp settlementResponse
	path := "/v1/lending/" + url.PathEscape(mint) + "/liquidate"
	if err := g.postJSON(ctx, path, body, &resp); err != nil {
		return "", fmt.Errorf("liquidate %s/%s: %w", mint, borrower, err)
	}
	return resp.SettlementRef, nil
}

func (g *GatewayClient) Repay(ctx context.Context, mint string, amountLamports uint64) (string, error) {
	body := map[string]uint64{"amount": amountLamports}

	var resp settlementResponse
	path := "/v1/lending/" + url.PathEscape(mint) + "/repay"
	if err := g.postJSON(ctx, path, body, &resp); err != nil {
		return "", fmt.Errorf("repay %s: %w", mint, err)
	}
	return resp.SettlementRef, nil
}

func (g *GatewayClient) ReportSettlement(ctx context.Context, ref string) (store.SettlementReport, error) {
	var resp settlementReportResponse
	path := "/v1/settlements/" + url.PathEscape(ref) + "/report"
	if err := g.postJSON(ctx, path, struct{}{}, &resp); err != nil {
		return store.SettlementReport{}, fmt.Errorf("report settlement %s: %w", ref, err)
	}
	return store.SettlementReport{Confirmed: resp.Confirmed, EventType: resp.EventType}, nil
}

// --- HTTP helpers ---

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.code)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

func (g *GatewayClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}

	return g.do(req, out)
}

func (g *GatewayClient) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return g.do(req, out)
}

func (g *GatewayClient) do(req *http.Request, out any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

func parseHealth(s string) store.PositionHealth {
	switch s {
	case "healthy":
		return store.HealthHealthy
	case "at_risk":
		return store.HealthAtRisk
	case "liquidatable":
		return store.HealthLiquidatable
	default:
		return store.HealthNone
	}
}

func parseTier(s string) store.ReputationTier {
	switch s {
	case "high":
		return store.TierHigh
	case "medium":
		return store.TierMedium
	case "low":
		return store.TierLow
	default:
		return store.TierUnknown
	}
}
