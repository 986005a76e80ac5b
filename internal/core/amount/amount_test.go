package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValue(t *testing.T) {
	var a Amount
	assert.True(t, a.IsZero())
	assert.Equal(t, "0", a.String())
	assert.True(t, a.GTE(Zero))
}

func TestAddSub(t *testing.T) {
	a := New(100).Add(New(50))
	assert.Equal(t, "150", a.String())

	b, err := a.Sub(New(150))
	require.NoError(t, err)
	assert.True(t, b.IsZero())

	_, err = b.Sub(New(1))
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestMulDiv(t *testing.T) {
	// 100000 * 5000 / 100000 = 5000
	assert.Equal(t, "5000", New(100_000).MulDiv(5_000, 100_000).String())
	// truncation
	assert.Equal(t, "0", New(19).MulDiv(1, 20).String())
	assert.Equal(t, "1", New(39).MulDiv(1, 20).String())
}

func TestMulDivExceeds64Bits(t *testing.T) {
	// The intermediate product overflows uint64; the result must not.
	huge := New(1 << 62)
	got := huge.MulDiv(100_000, 100_000)
	assert.Equal(t, huge.String(), got.String())
}

func TestMulDivPanicsOnZeroDivisor(t *testing.T) {
	assert.Panics(t, func() { New(1).MulDiv(1, 0) })
}

func TestParse(t *testing.T) {
	a, err := Parse("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", a.String())

	a, err = Parse("")
	require.NoError(t, err)
	assert.True(t, a.IsZero())

	_, err = Parse("12x")
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = Parse("-5")
	assert.ErrorIs(t, err, ErrNegative)
}

func TestFromBigRejectsNegative(t *testing.T) {
	_, err := FromBig(big.NewInt(-1))
	assert.ErrorIs(t, err, ErrNegative)
}

func TestImmutability(t *testing.T) {
	a := New(10)
	_ = a.Add(New(5))
	_ = a.MulDiv(3, 2)
	assert.Equal(t, "10", a.String())

	// Big returns a copy.
	a.Big().SetInt64(99)
	assert.Equal(t, "10", a.String())
}

func TestTextRoundTrip(t *testing.T) {
	text, err := New(42).MarshalText()
	require.NoError(t, err)
	var a Amount
	require.NoError(t, a.UnmarshalText(text))
	assert.Equal(t, "42", a.String())
}
