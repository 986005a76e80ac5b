// Package token defines the external value-transfer collaborators of the
// sale engine: a fungible-token ledger and a native-currency vault. The
// engine consumes both as opaque services; the in-memory implementations in
// this package back standalone mode and the test suite.
package token

import (
	"errors"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/amount"
)

var (
	// ErrTransferRejected is returned when a transfer, pull or burn cannot
	// be honored (typically an insufficient balance).
	ErrTransferRejected = errors.New("token: transfer rejected")

	// ErrInsufficientAllowance is returned by TransferFrom when the spender
	// holds too small an allowance from the source account.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")

	// ErrInsufficientBalance is returned by the currency vault when a
	// payment exceeds the held balance.
	ErrInsufficientBalance = errors.New("token: insufficient currency balance")
)

// Ledger is the fungible-token service. Implementations must apply each call
// atomically: a returned error means no balance moved.
type Ledger interface {
	BalanceOf(account addr.Address) amount.Amount
	Transfer(from, to addr.Address, amt amount.Amount) error
	TransferFrom(spender, from, to addr.Address, amt amount.Amount) error
	Approve(owner, spender addr.Address, amt amount.Amount) error
	Allowance(owner, spender addr.Address) amount.Amount
	Mint(to addr.Address, amt amount.Amount) error
	Burn(from addr.Address, amt amount.Amount) error
}

// Vault is the native-currency payment primitive. The engine's own currency
// balance lives here; Deposit credits it, Pay spends from it.
type Vault interface {
	Balance() amount.Amount
	Deposit(from addr.Address, amt amount.Amount) error
	Pay(to addr.Address, amt amount.Amount) error
}
