package sale

import "fmt"

// Status is the lifecycle state of a sale entry. Only Pending, Settled and
// Reclaimed are ever persisted; SettleReady and ReclaimReady are views
// derived on read from the current tick and pool totals.
type Status uint8

const (
	StatusPending Status = iota
	StatusSettled
	StatusReclaimed
	StatusSettleReady
	StatusReclaimReady
)

// Terminal reports whether s is a final persisted state.
func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusReclaimed
}

// Persistable reports whether s may be stored on an entry.
func (s Status) Persistable() bool {
	return s <= StatusReclaimed
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSettled:
		return "settled"
	case StatusReclaimed:
		return "reclaimed"
	case StatusSettleReady:
		return "settleReady"
	case StatusReclaimReady:
		return "reclaimReady"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
