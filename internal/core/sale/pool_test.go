package sale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelines/salevaultd/internal/core/amount"
)

func TestRequiredSplit(t *testing.T) {
	amt := amount.New(100_000)
	assert.Equal(t, "20000", RequiredTreasury(amt).String())
	assert.Equal(t, "80000", RequiredPool(amt).String())
	assert.Equal(t, "100000", RequiredCurrency(amt, 100).String())
	assert.Equal(t, "250000", RequiredCurrency(amt, 250).String())
}

func TestRequiredSplitTruncates(t *testing.T) {
	// 99 * 20 / 100 = 19.8 truncates to 19
	assert.Equal(t, "19", RequiredTreasury(amount.New(99)).String())
	assert.Equal(t, "79", RequiredPool(amount.New(99)).String())
}

func TestPoolConsumeAllOrNothing(t *testing.T) {
	var p pool
	p.fundTreasury(amount.New(100))
	p.fundPool(amount.New(50))
	p.enqueue(amount.New(200))

	// Pool side is short; nothing may change.
	err := p.consume(amount.New(40), amount.New(160), amount.New(200))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
	got := p.totals()
	assert.Equal(t, "100", got.Treasury.String())
	assert.Equal(t, "50", got.Pool.String())
	assert.Equal(t, "200", got.Queued.String())

	require.NoError(t, p.consume(amount.New(40), amount.New(50), amount.New(200)))
	got = p.totals()
	assert.Equal(t, "60", got.Treasury.String())
	assert.Equal(t, "0", got.Pool.String())
	assert.Equal(t, "0", got.Queued.String())
}

func TestPoolDequeueUnderflow(t *testing.T) {
	var p pool
	p.enqueue(amount.New(10))
	assert.ErrorIs(t, p.dequeue(amount.New(11)), ErrInsufficientLiquidity)
	require.NoError(t, p.dequeue(amount.New(10)))
	assert.Equal(t, "0", p.totals().Queued.String())
}

func TestPoolRestoreConsumeRoundTrip(t *testing.T) {
	var p pool
	p.restore(Totals{
		Treasury: amount.New(100),
		Pool:     amount.New(400),
		Queued:   amount.New(500),
	})
	require.NoError(t, p.consume(amount.New(100), amount.New(400), amount.New(500)))
	p.restoreConsume(amount.New(100), amount.New(400), amount.New(500))
	got := p.totals()
	assert.Equal(t, "100", got.Treasury.String())
	assert.Equal(t, "400", got.Pool.String())
	assert.Equal(t, "500", got.Queued.String())
}
