package ledger

import (
	"errors"
	"testing"

	"github.com/avolkov/cryptofolio/internal/models"
)

func lots(amounts ...int64) []models.Lot {
	out := make([]models.Lot, len(amounts))
	for i, a := range amounts {
		out[i] = models.Lot{ID: int64(i + 1), Asset: "X", Amount: a, PriceBought: int64(10 * (i + 1))}
	}
	return out
}

func TestDeplete_OldestFirst(t *testing.T) {
	// Two lots of 5; selling 7 empties the first and leaves 3 in the second.
	plan, err := Deplete(lots(5, 5), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Change{{LotID: 1, Remaining: 0}, {LotID: 2, Remaining: 3}}
	if len(plan) != len(want) {
		t.Fatalf("plan length = %d, want %d", len(plan), len(want))
	}
	for i := range want {
		if plan[i] != want[i] {
			t.Errorf("plan[%d] = %+v, want %+v", i, plan[i], want[i])
		}
	}
}

func TestDeplete_ExactLotBoundary(t *testing.T) {
	plan, err := Deplete(lots(5, 5), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan) != 1 || plan[0] != (Change{LotID: 1, Remaining: 0}) {
		t.Errorf("plan = %+v, want first lot fully consumed only", plan)
	}
}

func TestDeplete_AllLots(t *testing.T) {
	plan, err := Deplete(lots(2, 3, 4), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan) != 3 {
		t.Fatalf("plan length = %d, want 3", len(plan))
	}
	for i, c := range plan {
		if c.Remaining != 0 {
			t.Errorf("plan[%d].Remaining = %d, want 0", i, c.Remaining)
		}
	}
}

func TestDeplete_InsufficientHoldings(t *testing.T) {
	plan, err := Deplete(lots(5, 5), 11)
	if !errors.Is(err, models.ErrInsufficientHoldings) {
		t.Fatalf("error = %v, want ErrInsufficientHoldings", err)
	}
	if plan != nil {
		t.Errorf("plan = %+v, want nil on error", plan)
	}
}

func TestDeplete_NoLots(t *testing.T) {
	if _, err := Deplete(nil, 1); !errors.Is(err, models.ErrInsufficientHoldings) {
		t.Fatalf("error = %v, want ErrInsufficientHoldings", err)
	}
}

func TestDeplete_InvalidAmount(t *testing.T) {
	for _, amount := range []int64{0, -3} {
		if _, err := Deplete(lots(5), amount); !errors.Is(err, models.ErrInvalidAmount) {
			t.Errorf("Deplete(amount=%d) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
}
