package sale

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelines/salevaultd/internal/core/addr"
)

func validParams() Params {
	return Params{
		Price:          100,
		FeeRate:        5000,
		EscrowDuration: 50,
		Owner:          addr.Address{1},
		TreasuryRole:   addr.Address{2},
		PoolRole:       addr.Address{3},
		TreasuryToken:  addr.Address{4},
	}
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, validParams().Validate())

	p := validParams()
	p.FeeRate = FeeScale
	assert.NoError(t, p.Validate(), "100% fee is the cap, not beyond it")

	p.FeeRate = FeeScale + 1
	assert.ErrorIs(t, p.Validate(), ErrInvalidConfiguration)

	for _, mutate := range []func(*Params){
		func(p *Params) { p.Owner = addr.Zero },
		func(p *Params) { p.TreasuryRole = addr.Zero },
		func(p *Params) { p.PoolRole = addr.Zero },
		func(p *Params) { p.TreasuryToken = addr.Zero },
	} {
		p := validParams()
		mutate(&p)
		assert.ErrorIs(t, p.Validate(), ErrInvalidConfiguration)
	}
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "settled", StatusSettled.String())
	assert.Equal(t, "reclaimed", StatusReclaimed.String())
	assert.Equal(t, "settleReady", StatusSettleReady.String())
	assert.Equal(t, "reclaimReady", StatusReclaimReady.String())
}

func TestStatusClassification(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusSettled.Terminal())
	assert.True(t, StatusReclaimed.Terminal())
	assert.False(t, StatusSettleReady.Terminal())

	assert.True(t, StatusPending.Persistable())
	assert.True(t, StatusSettled.Persistable())
	assert.False(t, StatusSettleReady.Persistable())
	assert.False(t, StatusReclaimReady.Persistable())
}
