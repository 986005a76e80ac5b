package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelines/salevaultd/internal/config"
	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/amount"
	"github.com/avelines/salevaultd/internal/core/sale"
	"github.com/avelines/salevaultd/internal/core/token"
)

func testConfig(t *testing.T, storagePath string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.RPCAddr = "127.0.0.1:0"
	cfg.Server.WSAddr = "127.0.0.1:0"
	cfg.Server.RPCTimeout = 5 * time.Second
	cfg.Chain.TickInterval = time.Second
	cfg.Storage.Path = storagePath
	cfg.Sale = config.SaleConfig{
		Price:          100,
		FeeRate:        5000,
		EscrowDuration: 50,
		Owner:          "0x0101010101010101010101010101010101010101",
		TreasuryRole:   "0x0202020202020202020202020202020202020202",
		PoolRole:       "0x0303030303030303030303030303030303030303",
		TreasuryToken:  "0x0404040404040404040404040404040404040404",
		SelfAddress:    "0x0505050505050505050505050505050505050505",
	}
	cfg.Log.Level = "panic"
	cfg.Log.Format = "text"
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func TestNodeAssemblesInMemory(t *testing.T) {
	node, err := New(testConfig(t, ""))
	require.NoError(t, err)
	defer node.Close()

	params := node.Engine().Params()
	assert.Equal(t, uint64(100), params.Price)
}

func TestNodeStateSurvivesRestart(t *testing.T) {
	path := t.TempDir()
	tokens := token.NewMemLedger()
	vault := token.NewMemVault()
	seller := addr.MustParse("0x0606060606060606060606060606060606060606")
	self := addr.MustParse("0x0505050505050505050505050505050505050505")

	node, err := NewWithCollaborators(testConfig(t, path), tokens, vault)
	require.NoError(t, err)

	require.NoError(t, tokens.Mint(seller, amount.New(105_000)))
	require.NoError(t, tokens.Approve(seller, self, amount.New(105_000)))
	index, err := node.Engine().Submit(seller, amount.New(100_000))
	require.NoError(t, err)
	node.Close()

	restarted, err := NewWithCollaborators(testConfig(t, path), tokens, vault)
	require.NoError(t, err)
	defer restarted.Close()

	sales := restarted.Engine().UserSales(seller)
	require.Len(t, sales, 1)
	assert.Equal(t, "100000", sales[index].Amount.String())
	assert.Equal(t, sale.StatusPending, sales[index].Status)
	assert.Equal(t, "100000", restarted.Engine().Totals().Queued.String())
}

func TestEventRelayBindsLate(t *testing.T) {
	relay := &eventRelay{}
	// Unbound relay drops events instead of panicking.
	relay.Publish(sale.Event{Type: sale.EventSubmitted})

	var got []sale.Event
	relay.bind(publisherFunc(func(ev sale.Event) { got = append(got, ev) }))
	relay.Publish(sale.Event{Type: sale.EventSettled})
	require.Len(t, got, 1)
	assert.Equal(t, sale.EventSettled, got[0].Type)
}

type publisherFunc func(sale.Event)

func (f publisherFunc) Publish(ev sale.Event) { f(ev) }
