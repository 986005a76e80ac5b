package sale

import (
	"fmt"

	"github.com/avelines/salevaultd/internal/core/amount"
)

// Liquidity split between the two funding roles. These are protocol
// constants, not configuration.
const (
	TreasuryShare = 20
	PoolShare     = 80
	ShareScale    = 100
)

// RequiredTreasury is the treasury-side token requirement for settling amt.
func RequiredTreasury(amt amount.Amount) amount.Amount {
	return amt.MulDiv(TreasuryShare, ShareScale)
}

// RequiredPool is the pool-side token requirement for settling amt.
func RequiredPool(amt amount.Amount) amount.Amount {
	return amt.MulDiv(PoolShare, ShareScale)
}

// RequiredCurrency is the native-currency payout for settling amt at price,
// a 1e2 fixed-point token→currency rate.
func RequiredCurrency(amt amount.Amount, price uint64) amount.Amount {
	return amt.MulDiv(price, PriceScale)
}

// Totals is a snapshot of the three running liquidity counters.
type Totals struct {
	Treasury amount.Amount
	Pool     amount.Amount
	Queued   amount.Amount
}

// pool holds the running counters. Mutations happen only under the engine
// mutex. Invariant: Queued equals the sum of Amount over all Pending
// entries; Treasury and Pool only grow through funding calls and only
// shrink when a settlement consumes them.
type pool struct {
	treasury amount.Amount
	pool     amount.Amount
	queued   amount.Amount
}

func (p *pool) totals() Totals {
	return Totals{Treasury: p.treasury, Pool: p.pool, Queued: p.queued}
}

func (p *pool) restore(t Totals) {
	p.treasury, p.pool, p.queued = t.Treasury, t.Pool, t.Queued
}

// canCover reports whether both funding sides meet the given requirements.
func (p *pool) canCover(reqTreasury, reqPool amount.Amount) bool {
	return p.treasury.GTE(reqTreasury) && p.pool.GTE(reqPool)
}

func (p *pool) fundTreasury(amt amount.Amount) {
	p.treasury = p.treasury.Add(amt)
}

func (p *pool) fundPool(amt amount.Amount) {
	p.pool = p.pool.Add(amt)
}

func (p *pool) enqueue(amt amount.Amount) {
	p.queued = p.queued.Add(amt)
}

func (p *pool) dequeue(amt amount.Amount) error {
	q, err := p.queued.Sub(amt)
	if err != nil {
		return fmt.Errorf("%w: queued below %s", ErrInsufficientLiquidity, amt)
	}
	p.queued = q
	return nil
}

// consume decrements all three counters for a settlement. The caller checks
// canCover first; a failure here means a broken invariant, and no counter is
// modified when any decrement would go negative.
func (p *pool) consume(reqTreasury, reqPool, queued amount.Amount) error {
	t, err := p.treasury.Sub(reqTreasury)
	if err != nil {
		return fmt.Errorf("%w: treasury below %s", ErrInsufficientLiquidity, reqTreasury)
	}
	pl, err := p.pool.Sub(reqPool)
	if err != nil {
		return fmt.Errorf("%w: pool below %s", ErrInsufficientLiquidity, reqPool)
	}
	q, err := p.queued.Sub(queued)
	if err != nil {
		return fmt.Errorf("%w: queued below %s", ErrInsufficientLiquidity, queued)
	}
	p.treasury, p.pool, p.queued = t, pl, q
	return nil
}

// restoreConsume reverses consume during rollback of a failed settlement.
func (p *pool) restoreConsume(reqTreasury, reqPool, queued amount.Amount) {
	p.treasury = p.treasury.Add(reqTreasury)
	p.pool = p.pool.Add(reqPool)
	p.queued = p.queued.Add(queued)
}
