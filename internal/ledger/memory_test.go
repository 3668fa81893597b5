package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/solguard/engine/internal/store"
)

func TestMemoryStoreRecentNewestFirst(t *testing.T) {
	s := NewMemoryStore(100)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := s.Append(ctx, store.LiquidationOutcome{
			ID:     fmt.Sprintf("o-%d", i),
			Profit: decimal.NewFromInt(int64(i)),
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	recent, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 outcomes, got %d", len(recent))
	}
	if recent[0].ID != "o-4" || recent[2].ID != "o-2" {
		t.Errorf("Expected newest first, got %v", recent)
	}
}

func TestMemoryStoreCap(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		s.Append(ctx, store.LiquidationOutcome{ID: fmt.Sprintf("o-%d", i)})
	}

	recent, _ := s.Recent(ctx, 100)
	if len(recent) != 3 {
		t.Fatalf("Expected cap of 3, got %d", len(recent))
	}
	if recent[0].ID != "o-9" || recent[2].ID != "o-7" {
		t.Errorf("Expected newest 3 retained, got %v", recent)
	}
}

func TestMemoryStoreLimitLargerThanContents(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	s.Append(ctx, store.LiquidationOutcome{ID: "only"})

	recent, _ := s.Recent(ctx, 50)
	if len(recent) != 1 || recent[0].ID != "only" {
		t.Errorf("Expected single outcome, got %v", recent)
	}
}
