package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	a, err := Parse("0x0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), a[0])
	assert.Equal(t, byte(0x14), a[19])

	// Prefix is optional.
	b, err := Parse("0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for _, bad := range []string{"", "0x", "0x01", "0xzz02030405060708090a0b0c0d0e0f1011121314"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidAddress, "input %q", bad)
	}
}

func TestStringRoundTrip(t *testing.T) {
	s := "0x0102030405060708090a0b0c0d0e0f1011121314"
	a := MustParse(s)
	assert.Equal(t, s, a.String())
	assert.Equal(t, "0x01020304", a.Short())
}

func TestZero(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, MustParse("0x0102030405060708090a0b0c0d0e0f1011121314").IsZero())
}

func TestTextRoundTrip(t *testing.T) {
	a := MustParse("0x0102030405060708090a0b0c0d0e0f1011121314")
	text, err := a.MarshalText()
	require.NoError(t, err)
	var b Address
	require.NoError(t, b.UnmarshalText(text))
	assert.Equal(t, a, b)
}
