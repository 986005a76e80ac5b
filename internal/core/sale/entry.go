package sale

import (
	"github.com/avelines/salevaultd/internal/core/amount"
	"github.com/avelines/salevaultd/internal/core/tick"
)

// SaleEntry is one seller submission held in escrow. Everything but Status
// is immutable after creation; FeeAmount is fixed by the fee rate in effect
// at submission time and later rate changes never touch it.
type SaleEntry struct {
	Amount    amount.Amount
	FeeAmount amount.Amount
	OpenedAt  tick.Tick
	ExpiresAt tick.Tick
	Status    Status
}

// Refund is the quantity returned to the seller on reclaim.
func (e *SaleEntry) Refund() amount.Amount {
	return e.Amount.Add(e.FeeAmount)
}

// InWindow reports whether now is inside the settle window. The lower bound
// is strict: an entry cannot settle in the tick it was opened.
func (e *SaleEntry) InWindow(now tick.Tick) bool {
	return now > e.OpenedAt && now <= e.ExpiresAt
}

// Expired reports whether the escrow window has lapsed.
func (e *SaleEntry) Expired(now tick.Tick) bool {
	return now > e.ExpiresAt
}

func (e *SaleEntry) clone() *SaleEntry {
	c := *e
	return &c
}
