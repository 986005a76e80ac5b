package token

import (
	"sync"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/amount"
)

// TransferHook observes completed MemLedger movements. Tests use it to drive
// reentrant callbacks into the engine mid-transfer.
type TransferHook func(op string, from, to addr.Address, amt amount.Amount)

// MemLedger is an in-memory token ledger. It is the stand-in for the real
// token contract in standalone mode and in tests.
type MemLedger struct {
	mu         sync.Mutex
	balances   map[addr.Address]amount.Amount
	allowances map[addr.Address]map[addr.Address]amount.Amount
	supply     amount.Amount
	hook       TransferHook
}

// NewMemLedger returns an empty ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{
		balances:   make(map[addr.Address]amount.Amount),
		allowances: make(map[addr.Address]map[addr.Address]amount.Amount),
	}
}

// SetTransferHook installs a hook fired after every successful movement.
// The hook runs outside the ledger lock so it may call back into the ledger
// or the engine.
func (l *MemLedger) SetTransferHook(h TransferHook) {
	l.mu.Lock()
	l.hook = h
	l.mu.Unlock()
}

// TotalSupply returns the minted-minus-burned total.
func (l *MemLedger) TotalSupply() amount.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.supply
}

func (l *MemLedger) BalanceOf(account addr.Address) amount.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

func (l *MemLedger) Transfer(from, to addr.Address, amt amount.Amount) error {
	l.mu.Lock()
	if err := l.move(from, to, amt); err != nil {
		l.mu.Unlock()
		return err
	}
	hook := l.hook
	l.mu.Unlock()
	if hook != nil {
		hook("transfer", from, to, amt)
	}
	return nil
}

func (l *MemLedger) TransferFrom(spender, from, to addr.Address, amt amount.Amount) error {
	l.mu.Lock()
	allowed := l.allowances[from][spender]
	if allowed.LT(amt) {
		l.mu.Unlock()
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amt); err != nil {
		l.mu.Unlock()
		return err
	}
	remaining, _ := allowed.Sub(amt)
	l.allowances[from][spender] = remaining
	hook := l.hook
	l.mu.Unlock()
	if hook != nil {
		hook("transferFrom", from, to, amt)
	}
	return nil
}

func (l *MemLedger) Approve(owner, spender addr.Address, amt amount.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.allowances[owner]
	if m == nil {
		m = make(map[addr.Address]amount.Amount)
		l.allowances[owner] = m
	}
	m[spender] = amt
	return nil
}

func (l *MemLedger) Allowance(owner, spender addr.Address) amount.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender]
}

func (l *MemLedger) Mint(to addr.Address, amt amount.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[to] = l.balances[to].Add(amt)
	l.supply = l.supply.Add(amt)
	return nil
}

func (l *MemLedger) Burn(from addr.Address, amt amount.Amount) error {
	l.mu.Lock()
	remaining, err := l.balances[from].Sub(amt)
	if err != nil {
		l.mu.Unlock()
		return ErrTransferRejected
	}
	l.balances[from] = remaining
	l.supply, _ = l.supply.Sub(amt)
	hook := l.hook
	l.mu.Unlock()
	if hook != nil {
		hook("burn", from, addr.Zero, amt)
	}
	return nil
}

// move debits from and credits to. Callers hold the lock.
func (l *MemLedger) move(from, to addr.Address, amt amount.Amount) error {
	remaining, err := l.balances[from].Sub(amt)
	if err != nil {
		return ErrTransferRejected
	}
	l.balances[from] = remaining
	l.balances[to] = l.balances[to].Add(amt)
	return nil
}

// MemVault is an in-memory currency vault.
type MemVault struct {
	mu      sync.Mutex
	held    amount.Amount
	paidOut map[addr.Address]amount.Amount
	hook    TransferHook
}

// NewMemVault returns an empty vault.
func NewMemVault() *MemVault {
	return &MemVault{paidOut: make(map[addr.Address]amount.Amount)}
}

// SetTransferHook installs a hook fired after every successful payment.
func (v *MemVault) SetTransferHook(h TransferHook) {
	v.mu.Lock()
	v.hook = h
	v.mu.Unlock()
}

func (v *MemVault) Balance() amount.Amount {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.held
}

func (v *MemVault) Deposit(from addr.Address, amt amount.Amount) error {
	v.mu.Lock()
	v.held = v.held.Add(amt)
	v.mu.Unlock()
	return nil
}

func (v *MemVault) Pay(to addr.Address, amt amount.Amount) error {
	v.mu.Lock()
	remaining, err := v.held.Sub(amt)
	if err != nil {
		v.mu.Unlock()
		return ErrInsufficientBalance
	}
	v.held = remaining
	v.paidOut[to] = v.paidOut[to].Add(amt)
	hook := v.hook
	v.mu.Unlock()
	if hook != nil {
		hook("pay", addr.Zero, to, amt)
	}
	return nil
}

// PaidTo reports the cumulative currency paid out to an address.
func (v *MemVault) PaidTo(to addr.Address) amount.Amount {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.paidOut[to]
}
