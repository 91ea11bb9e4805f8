// Package ledger holds the pure lot-depletion arithmetic used by the
// portfolio repository when settling a sell.
package ledger

import "github.com/avolkov/cryptofolio/internal/models"

// Change describes what happens to one lot when a depletion plan is
// applied. Remaining == 0 means the lot is fully consumed and must be
// deleted; otherwise the lot's amount shrinks to Remaining.
type Change struct {
	LotID     int64
	Remaining int64
}

// Deplete plans the removal of amount units across lots, oldest first.
// lots must be ordered by creation (ascending id). The plan is computed
// against the snapshot only; no lot is modified here.
//
// Returns models.ErrInvalidAmount if amount is not positive, or
// models.ErrInsufficientHoldings if the lots hold fewer than amount
// units in total. On error the returned plan is nil, so a caller can
// never apply a partial depletion.
func Deplete(lots []models.Lot, amount int64) ([]Change, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var held int64
	for _, lot := range lots {
		held += lot.Amount
	}
	if held < amount {
		return nil, models.ErrInsufficientHoldings
	}

	plan := make([]Change, 0, len(lots))
	remaining := amount
	for _, lot := range lots {
		if remaining == 0 {
			break
		}
		if lot.Amount <= remaining {
			remaining -= lot.Amount
			plan = append(plan, Change{LotID: lot.ID, Remaining: 0})
			continue
		}
		// This lot straddles the boundary and is consumed partially.
		plan = append(plan, Change{LotID: lot.ID, Remaining: lot.Amount - remaining})
		remaining = 0
	}
	return plan, nil
}
