package sale

import "errors"

// Every precondition violation in the engine surfaces one of these kinds.
// Callers dispatch with errors.Is; the RPC layer maps them to wire strings.
var (
	// ErrInvalidAmount rejects a zero submission or funding amount.
	ErrInvalidAmount = errors.New("sale: invalid amount")

	// ErrNotFound is returned for an unknown (seller, index) reference.
	ErrNotFound = errors.New("sale: entry not found")

	// ErrInvalidState rejects an operation on an entry that already reached
	// a terminal status.
	ErrInvalidState = errors.New("sale: entry not pending")

	// ErrInvalidTiming rejects a settle outside its window (including the
	// opening tick) and a reclaim before expiry.
	ErrInvalidTiming = errors.New("sale: outside permitted window")

	// ErrInsufficientLiquidity means the treasury or pool total is below the
	// entry's requirement.
	ErrInsufficientLiquidity = errors.New("sale: insufficient liquidity")

	// ErrInsufficientFunds means a currency balance or payment is too low.
	ErrInsufficientFunds = errors.New("sale: insufficient funds")

	// ErrTransferFailed means the token collaborator rejected a movement.
	ErrTransferFailed = errors.New("sale: token transfer failed")

	// ErrInsufficientAllowance means the pull exceeded the caller's
	// allowance at the token collaborator.
	ErrInsufficientAllowance = errors.New("sale: insufficient allowance")

	// ErrUnauthorized rejects a caller lacking the required capability.
	ErrUnauthorized = errors.New("sale: unauthorized")

	// ErrInvalidConfiguration rejects an out-of-domain configuration value.
	ErrInvalidConfiguration = errors.New("sale: invalid configuration")

	// ErrReentrancy rejects a mutating call made while an external value
	// transfer is in flight.
	ErrReentrancy = errors.New("sale: reentrant call")
)
