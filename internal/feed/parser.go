// Package feed handles the WebSocket connection and message parsing for the
// streaming price feed.
package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/solguard/engine/internal/store"
)

// WSMessage represents the base structure of a feed message.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// TickEvent represents a single price tick from the feed. Prices arrive as
// strings to survive venues that send either numbers or quoted decimals.
type TickEvent struct {
	Mint      string `json:"mint"`
	Price     string `json:"price"`
	Timestamp string `json:"timestamp"`
}

// ParseMessage parses a raw feed message and returns price updates if present.
func ParseMessage(data []byte) ([]store.PriceUpdate, string, error) {
	// Some venues send bare tick arrays without a wrapper.
	var tickArray []TickEvent
	if err := json.Unmarshal(data, &tickArray); err == nil && len(tickArray) > 0 {
		if tickArray[0].Mint != "" {
			return convertTicks(tickArray), "tick_array", nil
		}
	}

	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal message: %w", err)
	}

	switch msg.Type {
	case "price", "tick":
		updates, err := parseTicks(msg.Data)
		if err != nil {
			return nil, msg.Type, err
		}
		return updates, msg.Type, nil
	}

	return nil, msg.Type, nil
}

// parseTicks extracts tick data from the message payload.
func parseTicks(data json.RawMessage) ([]store.PriceUpdate, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var ticks []TickEvent
	if err := json.Unmarshal(data, &ticks); err == nil && len(ticks) > 0 {
		return convertTicks(ticks), nil
	}

	var single TickEvent
	if err := json.Unmarshal(data, &single); err == nil && single.Mint != "" {
		return convertTicks([]TickEvent{single}), nil
	}

	return nil, nil
}

// convertTicks converts tick events to price updates, dropping ticks with a
// missing mint or a non-positive price.
func convertTicks(ticks []TickEvent) []store.PriceUpdate {
	updates := make([]store.PriceUpdate, 0, len(ticks))

	for _, tick := range ticks {
		if tick.Mint == "" {
			continue
		}

		price := parseFloat(tick.Price)
		if price <= 0 {
			continue
		}

		updates = append(updates, store.PriceUpdate{
			Mint:      tick.Mint,
			Price:     price,
			Timestamp: parseTimestamp(tick.Timestamp),
		})
	}

	return updates
}

// parseFloat safely parses a string to float64.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// parseTimestamp tries Unix seconds, Unix milliseconds, and RFC3339.
func parseTimestamp(v string) time.Time {
	if v == "" {
		return time.Now()
	}

	if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
		if ts > 1e12 {
			return time.UnixMilli(ts)
		}
		return time.Unix(ts, 0)
	}

	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}

	return time.Now()
}
