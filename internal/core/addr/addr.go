// Package addr provides the 20-byte account identity used across the vault.
package addr

import (
	"encoding/hex"
	"errors"
	"strings"
)

// Address identifies an account. The zero value is the invalid "zero address".
type Address [20]byte

// Zero is the zero address. No account may use it.
var Zero Address

var ErrInvalidAddress = errors.New("invalid address")

// Parse decodes an address from its hex wire form ("0x" prefix optional).
func Parse(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s) != 40 {
		return Zero, ErrInvalidAddress
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Zero, ErrInvalidAddress
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// MustParse is Parse for test fixtures and hard-coded defaults; it panics on
// malformed input.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic("addr: " + err.Error() + ": " + s)
	}
	return a
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == Zero
}

// String returns the canonical "0x"-prefixed lower-case hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short returns an abbreviated form for log lines.
func (a Address) Short() string {
	s := hex.EncodeToString(a[:])
	return "0x" + s[:8]
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
