package sale

import (
	"fmt"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/tick"
)

// Fixed-point scales. FeeScale is the denominator of FeeRate (1e5, so
// 5000 = 5%); PriceScale is the denominator of Price (1e2, so 100 = 1.00
// currency per token).
const (
	FeeScale   = 100_000
	PriceScale = 100
)

// Params is the configuration store: leaf data read by every operation and
// written only through the owner-gated setters on the engine.
type Params struct {
	// Price is the token→currency rate, PriceScale fixed point.
	Price uint64

	// FeeRate is the submission surcharge rate, FeeScale fixed point,
	// capped at FeeScale (100%).
	FeeRate uint64

	// EscrowDuration is the settle window length in ticks.
	EscrowDuration tick.Tick

	Owner         addr.Address
	TreasuryRole  addr.Address
	PoolRole      addr.Address
	TreasuryToken addr.Address
}

// Validate checks every domain constraint at once. The per-field setters
// apply the same rules individually.
func (p Params) Validate() error {
	if p.FeeRate > FeeScale {
		return fmt.Errorf("%w: fee rate %d above cap %d", ErrInvalidConfiguration, p.FeeRate, FeeScale)
	}
	for _, f := range []struct {
		name string
		a    addr.Address
	}{
		{"owner", p.Owner},
		{"treasury role", p.TreasuryRole},
		{"pool role", p.PoolRole},
		{"treasury token", p.TreasuryToken},
	} {
		if f.a.IsZero() {
			return fmt.Errorf("%w: zero address for %s", ErrInvalidConfiguration, f.name)
		}
	}
	return nil
}

func validateRole(a addr.Address) error {
	if a.IsZero() {
		return fmt.Errorf("%w: zero address", ErrInvalidConfiguration)
	}
	return nil
}

func validateFeeRate(rate uint64) error {
	if rate > FeeScale {
		return fmt.Errorf("%w: fee rate %d above cap %d", ErrInvalidConfiguration, rate, FeeScale)
	}
	return nil
}
