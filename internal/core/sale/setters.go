package sale

import (
	"fmt"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/tick"
)

// Owner-gated configuration setters. Each validates its domain constraint,
// writes the field and persists the params; nothing else moves. Rate and
// price changes are never retroactive: fees and windows on existing entries
// were fixed at submission time.

func (e *Engine) requireOwner(caller addr.Address) error {
	if caller != e.params.Owner {
		return fmt.Errorf("%w: owner required", ErrUnauthorized)
	}
	return nil
}

// SetPrice updates the token→currency rate (PriceScale fixed point).
func (e *Engine) SetPrice(caller addr.Address, price uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.params.Price = price
	e.persistParams()
	e.log.WithField("price", price).Info("price updated")
	return nil
}

// SetFeeRate updates the submission surcharge rate (FeeScale fixed point,
// capped at 100%).
func (e *Engine) SetFeeRate(caller addr.Address, rate uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := validateFeeRate(rate); err != nil {
		return err
	}
	e.params.FeeRate = rate
	e.persistParams()
	e.log.WithField("fee_rate", rate).Info("fee rate updated")
	return nil
}

// SetEscrowDuration updates the settle window length in ticks.
func (e *Engine) SetEscrowDuration(caller addr.Address, d tick.Tick) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.params.EscrowDuration = d
	e.persistParams()
	e.log.WithField("escrow_duration", uint64(d)).Info("escrow duration updated")
	return nil
}

// SetTreasuryRole updates the treasury funding capability holder.
func (e *Engine) SetTreasuryRole(caller, role addr.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := validateRole(role); err != nil {
		return err
	}
	e.params.TreasuryRole = role
	e.persistParams()
	e.log.WithField("treasury_role", role.Short()).Info("treasury role updated")
	return nil
}

// SetPoolRole updates the pool funding capability holder.
func (e *Engine) SetPoolRole(caller, role addr.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := validateRole(role); err != nil {
		return err
	}
	e.params.PoolRole = role
	e.persistParams()
	e.log.WithField("pool_role", role.Short()).Info("pool role updated")
	return nil
}

// SetTreasuryToken updates the recorded address of the sale token contract.
func (e *Engine) SetTreasuryToken(caller, tokenAddr addr.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := validateRole(tokenAddr); err != nil {
		return err
	}
	e.params.TreasuryToken = tokenAddr
	e.persistParams()
	e.log.WithField("treasury_token", tokenAddr.Short()).Info("treasury token updated")
	return nil
}
