// Package amount implements the unsigned arbitrary-precision quantity type
// used for token and currency values. Fixed-point scale factors in the sale
// protocol reach 1e5, so products can exceed 64 bits; all arithmetic runs
// through big.Int.
package amount

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrNegative  = errors.New("amount cannot be negative")
	ErrUnderflow = errors.New("amount underflow")
	ErrMalformed = errors.New("malformed amount")
)

// Amount is an immutable non-negative integer quantity. The zero value is 0.
type Amount struct {
	i *big.Int
}

// Zero is the zero amount.
var Zero = Amount{}

// New returns an Amount holding v.
func New(v uint64) Amount {
	return Amount{i: new(big.Int).SetUint64(v)}
}

// FromBig returns an Amount holding v. It fails on negative values.
func FromBig(v *big.Int) (Amount, error) {
	if v == nil {
		return Zero, nil
	}
	if v.Sign() < 0 {
		return Zero, ErrNegative
	}
	return Amount{i: new(big.Int).Set(v)}, nil
}

// Parse decodes a base-10 amount string.
func Parse(s string) (Amount, error) {
	if s == "" {
		return Zero, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Zero, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return FromBig(v)
}

// MustParse is Parse for fixtures; it panics on malformed input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic("amount: " + err.Error())
	}
	return a
}

func (a Amount) big() *big.Int {
	if a.i == nil {
		return new(big.Int)
	}
	return a.i
}

// Big returns a copy of the underlying integer.
func (a Amount) Big() *big.Int {
	return new(big.Int).Set(a.big())
}

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool {
	return a.i == nil || a.i.Sign() == 0
}

// Cmp compares a and b, returning -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.big().Cmp(b.big())
}

// LT reports a < b.
func (a Amount) LT(b Amount) bool { return a.Cmp(b) < 0 }

// GTE reports a >= b.
func (a Amount) GTE(b Amount) bool { return a.Cmp(b) >= 0 }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{i: new(big.Int).Add(a.big(), b.big())}
}

// Sub returns a - b, failing with ErrUnderflow when b > a. Amounts are
// unsigned; the totals they back may never go negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Cmp(b) < 0 {
		return Zero, ErrUnderflow
	}
	return Amount{i: new(big.Int).Sub(a.big(), b.big())}, nil
}

// MulDiv returns a * mul / div with an arbitrary-precision intermediate,
// truncating toward zero. div must be non-zero.
func (a Amount) MulDiv(mul, div uint64) Amount {
	if div == 0 {
		panic("amount: MulDiv by zero")
	}
	v := new(big.Int).Mul(a.big(), new(big.Int).SetUint64(mul))
	v.Quo(v, new(big.Int).SetUint64(div))
	return Amount{i: v}
}

// String returns the base-10 form.
func (a Amount) String() string {
	return a.big().String()
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
