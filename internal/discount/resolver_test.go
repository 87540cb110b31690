package discount

import (
	"testing"

	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

func TestResolvePercent(t *testing.T) {
	got := Resolve(300_000, pos.DiscountPercent, 10)
	if got != 30_000 {
		t.Fatalf("expected 30000, got %d", got)
	}
}

func TestResolveAmountVerbatim(t *testing.T) {
	got := Resolve(100_000, pos.DiscountAmount, 150_000)
	if got != 150_000 {
		t.Fatalf("flat discounts are not clamped, expected 150000, got %d", got)
	}
}

func TestResolveNoneIsZero(t *testing.T) {
	if got := Resolve(100_000, pos.DiscountNone, 50); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestResolveZeroValueBothKinds(t *testing.T) {
	if got := Resolve(100_000, pos.DiscountPercent, 0); got != 0 {
		t.Fatalf("percent 0 must yield 0, got %d", got)
	}
	if got := Resolve(100_000, pos.DiscountAmount, 0); got != 0 {
		t.Fatalf("amount 0 must yield 0, got %d", got)
	}
}
