package sale

import (
	"fmt"

	"github.com/avelines/salevaultd/internal/core/addr"
)

// Ledger maps each seller to an ordered, append-only sequence of entries.
// Indices are stable for the life of the ledger: entries are never removed
// or reordered, because external callers persist (seller, index) pairs.
// The Ledger carries no lock of its own; the engine serializes access.
type Ledger struct {
	books map[addr.Address][]*SaleEntry
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{books: make(map[addr.Address][]*SaleEntry)}
}

// Append adds an entry to the seller's book and returns its stable index.
func (l *Ledger) Append(seller addr.Address, e *SaleEntry) int {
	l.books[seller] = append(l.books[seller], e)
	return len(l.books[seller]) - 1
}

// Get returns the entry at (seller, index).
func (l *Ledger) Get(seller addr.Address, index int) (*SaleEntry, error) {
	book := l.books[seller]
	if index < 0 || index >= len(book) {
		return nil, fmt.Errorf("%w: %s[%d]", ErrNotFound, seller.Short(), index)
	}
	return book[index], nil
}

// List returns a copy of the seller's book. The entries themselves are
// shared; callers must not mutate them.
func (l *Ledger) List(seller addr.Address) []*SaleEntry {
	book := l.books[seller]
	out := make([]*SaleEntry, len(book))
	copy(out, book)
	return out
}

// Count returns the number of entries for seller.
func (l *Ledger) Count(seller addr.Address) int {
	return len(l.books[seller])
}

// Sellers returns every seller holding at least one entry.
func (l *Ledger) Sellers() []addr.Address {
	out := make([]addr.Address, 0, len(l.books))
	for s := range l.books {
		out = append(out, s)
	}
	return out
}

// setStatus moves the entry at (seller, index) out of Pending. Terminal
// states are final: any other current status is rejected.
func (l *Ledger) setStatus(seller addr.Address, index int, status Status) error {
	e, err := l.Get(seller, index)
	if err != nil {
		return err
	}
	if !status.Persistable() {
		return fmt.Errorf("%w: derived status %s cannot be stored", ErrInvalidState, status)
	}
	if e.Status != StatusPending {
		return fmt.Errorf("%w: %s[%d] is %s", ErrInvalidState, seller.Short(), index, e.Status)
	}
	e.Status = status
	return nil
}

// revertStatus undoes a terminal transition during rollback of a failed
// external transfer. It is never reachable from a public operation.
func (l *Ledger) revertStatus(seller addr.Address, index int) {
	if e, err := l.Get(seller, index); err == nil {
		e.Status = StatusPending
	}
}

// dropLast removes the most recent entry for seller. Only the submit path
// uses it, to roll back an append whose token pull failed before any state
// became externally observable.
func (l *Ledger) dropLast(seller addr.Address) {
	book := l.books[seller]
	if len(book) == 0 {
		return
	}
	l.books[seller] = book[:len(book)-1]
	if len(l.books[seller]) == 0 {
		delete(l.books, seller)
	}
}

// restore installs a seller's book wholesale. Startup recovery only.
func (l *Ledger) restore(seller addr.Address, book []*SaleEntry) {
	if len(book) == 0 {
		return
	}
	l.books[seller] = book
}
