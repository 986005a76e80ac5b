// Package config loads and validates the daemon configuration from defaults,
// a TOML file and SALEVAULT_-prefixed environment variables, in that order.
package config

import "time"

// Config is the full daemon configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Chain   ChainConfig   `mapstructure:"chain"`
	Sale    SaleConfig    `mapstructure:"sale"`
	Log     LogConfig     `mapstructure:"log"`

	configPath string
}

// ServerConfig covers the HTTP JSON-RPC and WebSocket listeners.
type ServerConfig struct {
	RPCAddr    string        `mapstructure:"rpc_addr"`
	WSAddr     string        `mapstructure:"ws_addr"`
	RPCTimeout time.Duration `mapstructure:"rpc_timeout"`
}

// StorageConfig covers the durable sale state and the history index.
type StorageConfig struct {
	// Path is the pebble database directory. Empty selects the in-memory
	// backend (state is lost on shutdown).
	Path string `mapstructure:"path"`

	// HistoryDriver is "sqlite", "postgres" or "" to disable the index.
	HistoryDriver string `mapstructure:"history_driver"`
	HistoryDSN    string `mapstructure:"history_dsn"`
}

// ChainConfig covers the logical clock.
type ChainConfig struct {
	// TickInterval is the wall-time length of one tick.
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// SaleConfig seeds the engine parameters on a fresh database. A restored
// database keeps its persisted parameters and ignores these.
type SaleConfig struct {
	Price          uint64 `mapstructure:"price"`
	FeeRate        uint64 `mapstructure:"fee_rate"`
	EscrowDuration uint64 `mapstructure:"escrow_duration"`
	Owner          string `mapstructure:"owner"`
	TreasuryRole   string `mapstructure:"treasury_role"`
	PoolRole       string `mapstructure:"pool_role"`
	TreasuryToken  string `mapstructure:"treasury_token"`
	SelfAddress    string `mapstructure:"self_address"`
}

// LogConfig covers logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Path returns the config file the loader read, if any.
func (c *Config) Path() string { return c.configPath }
