package feed

import (
	"testing"
	"time"
)

func TestParseMessageTickArray(t *testing.T) {
	data := []byte(`[{"mint":"mintA","price":"1.5","timestamp":"1700000000"},{"mint":"mintB","price":"0.25","timestamp":"1700000001"}]`)

	updates, msgType, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if msgType != "tick_array" {
		t.Errorf("Expected tick_array, got %q", msgType)
	}
	if len(updates) != 2 {
		t.Fatalf("Expected 2 updates, got %d", len(updates))
	}
	if updates[0].Mint != "mintA" || updates[0].Price != 1.5 {
		t.Errorf("Unexpected first update: %+v", updates[0])
	}
	if !updates[0].Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("Expected Unix seconds timestamp, got %v", updates[0].Timestamp)
	}
}

func TestParseMessageWrappedTick(t *testing.T) {
	data := []byte(`{"type":"price","data":{"mint":"mintA","price":"2.0","timestamp":"1700000000000"}}`)

	updates, msgType, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if msgType != "price" {
		t.Errorf("Expected price, got %q", msgType)
	}
	if len(updates) != 1 || updates[0].Price != 2.0 {
		t.Fatalf("Expected 1 update at 2.0, got %v", updates)
	}
	if !updates[0].Timestamp.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("Expected Unix millis timestamp, got %v", updates[0].Timestamp)
	}
}

func TestParseMessageDropsInvalidTicks(t *testing.T) {
	data := []byte(`[{"mint":"mintA","price":"0"},{"mint":"","price":"1.0"},{"mint":"mintB","price":"-1"}]`)

	updates, _, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("Expected all ticks dropped, got %v", updates)
	}
}

func TestParseMessageOtherType(t *testing.T) {
	data := []byte(`{"type":"subscribed"}`)

	updates, msgType, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("Expected no updates, got %v", updates)
	}
	if msgType != "subscribed" {
		t.Errorf("Expected subscribed, got %q", msgType)
	}
}

func TestParseMessageMalformed(t *testing.T) {
	if _, _, err := ParseMessage([]byte(`not json`)); err == nil {
		t.Error("Expected error for malformed message")
	}
}
