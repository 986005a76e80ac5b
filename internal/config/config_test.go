package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddresses = `
[sale]
owner = "0x0101010101010101010101010101010101010101"
treasury_role = "0x0202020202020202020202020202020202020202"
pool_role = "0x0303030303030303030303030303030303030303"
treasury_token = "0x0404040404040404040404040404040404040404"
self_address = "0x0505050505050505050505050505050505050505"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "salevaultd.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, testAddresses))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5005", cfg.Server.RPCAddr)
	assert.Equal(t, 30*time.Second, cfg.Server.RPCTimeout)
	assert.Equal(t, time.Second, cfg.Chain.TickInterval)
	assert.Equal(t, uint64(100), cfg.Sale.Price)
	assert.Equal(t, uint64(5000), cfg.Sale.FeeRate)
	assert.Equal(t, "sqlite", cfg.Storage.HistoryDriver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, testAddresses+`
price = 250
fee_rate = 1000

[server]
rpc_addr = "0.0.0.0:9005"

[chain]
tick_interval = "250ms"
`))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9005", cfg.Server.RPCAddr)
	assert.Equal(t, uint64(250), cfg.Sale.Price)
	assert.Equal(t, uint64(1000), cfg.Sale.FeeRate)
	assert.Equal(t, 250*time.Millisecond, cfg.Chain.TickInterval)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("SALEVAULT_LOG_LEVEL", "debug")
	cfg, err := Load(writeConfig(t, testAddresses))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	// Sale address fields live in one [sale] table, so overrides of other
	// sale keys go inline.
	cases := []struct {
		name string
		body string
	}{
		{"fee rate above cap", testAddresses + "fee_rate = 100001\n"},
		{"zero escrow duration", testAddresses + "escrow_duration = 0\n"},
		{"bad history driver", testAddresses + "\n[storage]\nhistory_driver = \"mysql\"\n"},
		{"bad log level", testAddresses + "\n[log]\nlevel = \"noisy\"\n"},
		{"bad log format", testAddresses + "\n[log]\nformat = \"xml\"\n"},
		{"missing owner", `
[sale]
treasury_role = "0x0202020202020202020202020202020202020202"
pool_role = "0x0303030303030303030303030303030303030303"
treasury_token = "0x0404040404040404040404040404040404040404"
self_address = "0x0505050505050505050505050505050505050505"
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestSaleParamsConversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, testAddresses))
	require.NoError(t, err)

	params := cfg.SaleParams()
	require.NoError(t, params.Validate())
	assert.Equal(t, uint64(100), params.Price)
	assert.Equal(t, "0x0101010101010101010101010101010101010101", params.Owner.String())
	assert.Equal(t, "0x0505050505050505050505050505050505050505", cfg.Self().String())
}
