package sale

import (
	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/amount"
	"github.com/avelines/salevaultd/internal/core/tick"
)

// EventType labels a successful state mutation.
type EventType string

const (
	EventSubmitted      EventType = "submitted"
	EventTreasuryFunded EventType = "treasuryFunded"
	EventPoolFunded     EventType = "poolFunded"
	EventSettled        EventType = "settled"
	EventReclaimed      EventType = "reclaimed"
)

// Event is broadcast after a mutation commits. Amount carries the principal;
// Currency is only set where currency moved (settle, pool funding).
type Event struct {
	Type     EventType     `json:"type"`
	Seller   addr.Address  `json:"seller,omitempty"`
	Index    int           `json:"index"`
	Amount   amount.Amount `json:"amount"`
	Fee      amount.Amount `json:"fee"`
	Currency amount.Amount `json:"currency"`
	Tick     tick.Tick     `json:"tick"`
}

// Publisher receives engine events. Implementations must not call back into
// mutating engine operations.
type Publisher interface {
	Publish(Event)
}

// Resolution is the audit record of one terminal transition.
type Resolution struct {
	Seller       addr.Address
	Index        int
	Amount       amount.Amount
	FeeAmount    amount.Amount
	CurrencyPaid amount.Amount
	Tick         tick.Tick
	Status       Status
}

// Recorder persists resolutions to the history index. Record runs after the
// transition committed; an error is logged and never unwinds the transition.
type Recorder interface {
	Record(Resolution) error
}

// Store receives the durable state after each mutation. Implementations
// write through; load happens once at startup via the storage package.
type Store interface {
	PutBook(seller addr.Address, book []*SaleEntry) error
	PutTotals(Totals) error
	PutParams(Params) error
}
