// Package sale implements the escrowed token sale lifecycle: sellers lock
// tokens plus a fee surcharge, two independent liquidity roles co-fund
// settlement in token and currency form, and entries that miss their window
// are reclaimed unconditionally. Each entry resolves exactly once.
package sale

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/amount"
	"github.com/avelines/salevaultd/internal/core/tick"
	"github.com/avelines/salevaultd/internal/core/token"
)

// Engine owns all sale state. A single mutex serializes every mutating entry
// point; invariant checks and writes happen inside that critical section. The
// latch is set for the duration of any external value transfer so that a
// transfer hook calling back into a mutating operation fails fast instead of
// deadlocking on the mutex.
type Engine struct {
	mu    sync.Mutex
	latch atomic.Bool

	params Params
	ledger *Ledger
	pool   pool

	clock  tick.Source
	tokens token.Ledger
	vault  token.Vault
	self   addr.Address

	store     Store
	recorder  Recorder
	publisher Publisher
	log       *logrus.Entry
}

// Config assembles an Engine. Clock, Tokens, Vault and Self are required;
// Store, Recorder, Publisher and Logger are optional collaborators.
type Config struct {
	Params    Params
	Clock     tick.Source
	Tokens    token.Ledger
	Vault     token.Vault
	Self      addr.Address
	Store     Store
	Recorder  Recorder
	Publisher Publisher
	Logger    *logrus.Logger
}

// New validates cfg and returns an Engine with an empty ledger.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil || cfg.Tokens == nil || cfg.Vault == nil {
		return nil, fmt.Errorf("%w: missing collaborator", ErrInvalidConfiguration)
	}
	if cfg.Self.IsZero() {
		return nil, fmt.Errorf("%w: zero self address", ErrInvalidConfiguration)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &Engine{
		params:    cfg.Params,
		ledger:    NewLedger(),
		clock:     cfg.Clock,
		tokens:    cfg.Tokens,
		vault:     cfg.Vault,
		self:      cfg.Self,
		store:     cfg.Store,
		recorder:  cfg.Recorder,
		publisher: cfg.Publisher,
		log:       logger.WithField("component", "sale"),
	}, nil
}

// Restore installs persisted books and totals at startup. It must run before
// the engine serves any operation.
func (e *Engine) Restore(books map[addr.Address][]*SaleEntry, totals Totals, params Params) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := params.Validate(); err != nil {
		return err
	}
	for seller, book := range books {
		e.ledger.restore(seller, book)
	}
	e.pool.restore(totals)
	e.params = params
	return nil
}

// guard rejects a mutating call made while an external transfer is in
// flight. It runs before the mutex is taken: a reentrant call from a
// transfer hook already holds the critical section and would deadlock.
// A concurrent caller racing a transfer can also trip it; per the abort
// policy, such callers retry above the engine.
func (e *Engine) guard() error {
	if e.latch.Load() {
		return ErrReentrancy
	}
	return nil
}

// transfer runs external value movements under the reentrancy latch.
func (e *Engine) transfer(f func() error) error {
	e.latch.Store(true)
	defer e.latch.Store(false)
	return f()
}

func wrapTokenErr(err error) error {
	if errors.Is(err, token.ErrInsufficientAllowance) {
		return fmt.Errorf("%w: %w", ErrInsufficientAllowance, err)
	}
	return fmt.Errorf("%w: %w", ErrTransferFailed, err)
}

// Submit opens a Pending entry for the seller, queues its principal and
// pulls amount plus fee from the seller. The pull is the last step: when it
// fails, the append and the queued total are rolled back inside the critical
// section, so no partial state is ever observable.
func (e *Engine) Submit(seller addr.Address, amt amount.Amount) (int, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if amt.IsZero() {
		return 0, fmt.Errorf("%w: submission must be positive", ErrInvalidAmount)
	}
	if seller.IsZero() {
		return 0, fmt.Errorf("%w: zero seller", ErrInvalidAmount)
	}

	fee := amt.MulDiv(e.params.FeeRate, FeeScale)
	total := amt.Add(fee)
	now := e.clock.Now()

	entry := &SaleEntry{
		Amount:    amt,
		FeeAmount: fee,
		OpenedAt:  now,
		ExpiresAt: now + e.params.EscrowDuration,
		Status:    StatusPending,
	}
	index := e.ledger.Append(seller, entry)
	e.pool.enqueue(amt)

	err := e.transfer(func() error {
		return e.tokens.TransferFrom(e.self, seller, e.self, total)
	})
	if err != nil {
		e.ledger.dropLast(seller)
		_ = e.pool.dequeue(amt)
		return 0, wrapTokenErr(err)
	}

	e.persistBook(seller)
	e.persistTotals()
	e.publish(Event{Type: EventSubmitted, Seller: seller, Index: index, Amount: amt, Fee: fee, Tick: now})
	e.log.WithFields(logrus.Fields{
		"seller": seller.Short(),
		"index":  index,
		"amount": amt.String(),
		"fee":    fee.String(),
	}).Info("sale submitted")
	return index, nil
}

// Settle resolves a Pending entry inside its window: it consumes the
// treasury/pool/queued totals, pays the currency value to the seller,
// forwards the fee to the treasury role and burns the principal. Every
// precondition is checked before the first state write; a collaborator
// failure after that rolls the internal state back wholesale.
func (e *Engine) Settle(caller, seller addr.Address, index int) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != seller {
		return fmt.Errorf("%w: only the seller may settle its entry", ErrUnauthorized)
	}
	entry, err := e.ledger.Get(seller, index)
	if err != nil {
		return err
	}
	if entry.Status != StatusPending {
		return fmt.Errorf("%w: %s[%d] is %s", ErrInvalidState, seller.Short(), index, entry.Status)
	}
	now := e.clock.Now()
	if !entry.InWindow(now) {
		return fmt.Errorf("%w: tick %d outside (%d, %d]", ErrInvalidTiming, now, entry.OpenedAt, entry.ExpiresAt)
	}

	reqTreasury := RequiredTreasury(entry.Amount)
	reqPool := RequiredPool(entry.Amount)
	reqCurrency := RequiredCurrency(entry.Amount, e.params.Price)

	if !e.pool.canCover(reqTreasury, reqPool) {
		return fmt.Errorf("%w: need treasury %s and pool %s", ErrInsufficientLiquidity, reqTreasury, reqPool)
	}
	if e.vault.Balance().LT(reqCurrency) {
		return fmt.Errorf("%w: vault below %s", ErrInsufficientFunds, reqCurrency)
	}
	if e.tokens.BalanceOf(e.self).LT(entry.Amount.Add(entry.FeeAmount)) {
		return fmt.Errorf("%w: escrow balance below principal plus fee", ErrTransferFailed)
	}

	if err := e.pool.consume(reqTreasury, reqPool, entry.Amount); err != nil {
		return err
	}
	if err := e.ledger.setStatus(seller, index, StatusSettled); err != nil {
		e.pool.restoreConsume(reqTreasury, reqPool, entry.Amount)
		return err
	}

	err = e.transfer(func() error {
		if err := e.vault.Pay(seller, reqCurrency); err != nil {
			return err
		}
		if !entry.FeeAmount.IsZero() {
			if err := e.tokens.Transfer(e.self, e.params.TreasuryRole, entry.FeeAmount); err != nil {
				return err
			}
		}
		return e.tokens.Burn(e.self, entry.Amount)
	})
	if err != nil {
		e.pool.restoreConsume(reqTreasury, reqPool, entry.Amount)
		e.ledger.revertStatus(seller, index)
		e.log.WithError(err).WithFields(logrus.Fields{
			"seller": seller.Short(), "index": index,
		}).Error("settlement transfer failed after prechecks")
		return wrapTokenErr(err)
	}

	e.persistBook(seller)
	e.persistTotals()
	e.record(Resolution{
		Seller: seller, Index: index,
		Amount: entry.Amount, FeeAmount: entry.FeeAmount, CurrencyPaid: reqCurrency,
		Tick: now, Status: StatusSettled,
	})
	e.publish(Event{
		Type: EventSettled, Seller: seller, Index: index,
		Amount: entry.Amount, Fee: entry.FeeAmount, Currency: reqCurrency, Tick: now,
	})
	e.log.WithFields(logrus.Fields{
		"seller":   seller.Short(),
		"index":    index,
		"currency": reqCurrency.String(),
		"burned":   entry.Amount.String(),
	}).Info("sale settled")
	return nil
}

// Reclaim resolves an expired Pending entry by returning principal plus fee
// to the seller. Reclaim never touches the treasury or pool totals.
func (e *Engine) Reclaim(caller, seller addr.Address, index int) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != seller {
		return fmt.Errorf("%w: only the seller may reclaim its entry", ErrUnauthorized)
	}
	entry, err := e.ledger.Get(seller, index)
	if err != nil {
		return err
	}
	if entry.Status != StatusPending {
		return fmt.Errorf("%w: %s[%d] is %s", ErrInvalidState, seller.Short(), index, entry.Status)
	}
	now := e.clock.Now()
	if !entry.Expired(now) {
		return fmt.Errorf("%w: tick %d not past expiry %d", ErrInvalidTiming, now, entry.ExpiresAt)
	}

	if err := e.pool.dequeue(entry.Amount); err != nil {
		return err
	}
	if err := e.ledger.setStatus(seller, index, StatusReclaimed); err != nil {
		e.pool.enqueue(entry.Amount)
		return err
	}

	refund := entry.Refund()
	err = e.transfer(func() error {
		return e.tokens.Transfer(e.self, seller, refund)
	})
	if err != nil {
		e.pool.enqueue(entry.Amount)
		e.ledger.revertStatus(seller, index)
		return wrapTokenErr(err)
	}

	e.persistBook(seller)
	e.persistTotals()
	e.record(Resolution{
		Seller: seller, Index: index,
		Amount: entry.Amount, FeeAmount: entry.FeeAmount,
		Tick: now, Status: StatusReclaimed,
	})
	e.publish(Event{
		Type: EventReclaimed, Seller: seller, Index: index,
		Amount: entry.Amount, Fee: entry.FeeAmount, Tick: now,
	})
	e.log.WithFields(logrus.Fields{
		"seller": seller.Short(),
		"index":  index,
		"refund": refund.String(),
	}).Info("sale reclaimed")
	return nil
}

// FundTreasury pulls amt tokens from the treasury role and adds them to the
// treasury total.
func (e *Engine) FundTreasury(caller addr.Address, amt amount.Amount) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.params.TreasuryRole {
		return fmt.Errorf("%w: treasury role required", ErrUnauthorized)
	}
	if amt.IsZero() {
		return fmt.Errorf("%w: funding must be positive", ErrInvalidAmount)
	}

	err := e.transfer(func() error {
		return e.tokens.TransferFrom(e.self, caller, e.self, amt)
	})
	if err != nil {
		return wrapTokenErr(err)
	}

	e.pool.fundTreasury(amt)
	e.persistTotals()
	e.publish(Event{Type: EventTreasuryFunded, Amount: amt, Tick: e.clock.Now()})
	e.log.WithField("amount", amt.String()).Info("treasury funded")
	return nil
}

// FundPool pulls amt tokens from the pool role, deposits its currency
// payment into the vault and adds amt to the pool total. currencyPaid must
// cover the currency value of amt at the current price.
func (e *Engine) FundPool(caller addr.Address, amt, currencyPaid amount.Amount) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.params.PoolRole {
		return fmt.Errorf("%w: pool role required", ErrUnauthorized)
	}
	if amt.IsZero() {
		return fmt.Errorf("%w: funding must be positive", ErrInvalidAmount)
	}
	required := RequiredCurrency(amt, e.params.Price)
	if currencyPaid.LT(required) {
		return fmt.Errorf("%w: currency %s below required %s", ErrInsufficientFunds, currencyPaid, required)
	}

	err := e.transfer(func() error {
		if err := e.vault.Deposit(caller, currencyPaid); err != nil {
			return err
		}
		if err := e.tokens.TransferFrom(e.self, caller, e.self, amt); err != nil {
			// Return the deposit; the funding never happened.
			if refundErr := e.vault.Pay(caller, currencyPaid); refundErr != nil {
				e.log.WithError(refundErr).Error("could not refund pool deposit after failed pull")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return wrapTokenErr(err)
	}

	e.pool.fundPool(amt)
	e.persistTotals()
	e.publish(Event{Type: EventPoolFunded, Amount: amt, Currency: currencyPaid, Tick: e.clock.Now()})
	e.log.WithFields(logrus.Fields{
		"amount":   amt.String(),
		"currency": currencyPaid.String(),
	}).Info("pool funded")
	return nil
}

// WithdrawToken sweeps amt tokens from the engine's own balance to the
// owner. Emergency use; the sale ledger is not consulted.
func (e *Engine) WithdrawToken(caller addr.Address, amt amount.Amount) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.params.Owner {
		return fmt.Errorf("%w: owner required", ErrUnauthorized)
	}
	err := e.transfer(func() error {
		return e.tokens.Transfer(e.self, caller, amt)
	})
	if err != nil {
		return wrapTokenErr(err)
	}
	e.log.WithField("amount", amt.String()).Warn("token balance swept by owner")
	return nil
}

// WithdrawCurrency sweeps amt currency from the vault to the owner.
func (e *Engine) WithdrawCurrency(caller addr.Address, amt amount.Amount) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.params.Owner {
		return fmt.Errorf("%w: owner required", ErrUnauthorized)
	}
	err := e.transfer(func() error {
		return e.vault.Pay(caller, amt)
	})
	if err != nil {
		if errors.Is(err, token.ErrInsufficientBalance) {
			return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
		}
		return wrapTokenErr(err)
	}
	e.log.WithField("amount", amt.String()).Warn("currency balance swept by owner")
	return nil
}

// Status reports the derived view of (seller, index): persisted terminal
// states win; otherwise readiness is computed from the current tick and the
// live pool totals. Nothing derived is ever stored.
func (e *Engine) Status(seller addr.Address, index int) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.ledger.Get(seller, index)
	if err != nil {
		return StatusPending, err
	}
	return e.derived(entry, e.clock.Now()), nil
}

func (e *Engine) derived(entry *SaleEntry, now tick.Tick) Status {
	if entry.Status.Terminal() {
		return entry.Status
	}
	if entry.InWindow(now) && e.pool.canCover(RequiredTreasury(entry.Amount), RequiredPool(entry.Amount)) {
		return StatusSettleReady
	}
	if entry.Expired(now) {
		return StatusReclaimReady
	}
	return StatusPending
}

// SaleView is a read-model row for one entry, carrying the derived status.
type SaleView struct {
	Index     int           `json:"index"`
	Amount    amount.Amount `json:"amount"`
	FeeAmount amount.Amount `json:"fee_amount"`
	OpenedAt  tick.Tick     `json:"opened_at"`
	ExpiresAt tick.Tick     `json:"expires_at"`
	Status    Status        `json:"status"`
}

// UserSales lists every entry of the seller with derived statuses.
func (e *Engine) UserSales(seller addr.Address) []SaleView {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	book := e.ledger.List(seller)
	out := make([]SaleView, len(book))
	for i, entry := range book {
		out[i] = SaleView{
			Index:     i,
			Amount:    entry.Amount,
			FeeAmount: entry.FeeAmount,
			OpenedAt:  entry.OpenedAt,
			ExpiresAt: entry.ExpiresAt,
			Status:    e.derived(entry, now),
		}
	}
	return out
}

// EntryCount reports the total number of entries across every seller.
func (e *Engine) EntryCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, seller := range e.ledger.Sellers() {
		n += e.ledger.Count(seller)
	}
	return n
}

// Totals snapshots the liquidity counters.
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.totals()
}

// Params snapshots the configuration store.
func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// RequiredCurrency is the currency payout for amt at the current price.
func (e *Engine) RequiredCurrency(amt amount.Amount) amount.Amount {
	e.mu.Lock()
	defer e.mu.Unlock()
	return RequiredCurrency(amt, e.params.Price)
}

func (e *Engine) persistBook(seller addr.Address) {
	if e.store == nil {
		return
	}
	if err := e.store.PutBook(seller, e.ledger.List(seller)); err != nil {
		e.log.WithError(err).WithField("seller", seller.Short()).Error("persist book")
	}
}

func (e *Engine) persistTotals() {
	if e.store == nil {
		return
	}
	if err := e.store.PutTotals(e.pool.totals()); err != nil {
		e.log.WithError(err).Error("persist totals")
	}
}

func (e *Engine) persistParams() {
	if e.store == nil {
		return
	}
	if err := e.store.PutParams(e.params); err != nil {
		e.log.WithError(err).Error("persist params")
	}
}

func (e *Engine) record(r Resolution) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(r); err != nil {
		e.log.WithError(err).Error("record resolution")
	}
}

func (e *Engine) publish(ev Event) {
	if e.publisher != nil {
		e.publisher.Publish(ev)
	}
}
