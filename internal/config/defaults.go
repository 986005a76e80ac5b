package config

import "github.com/spf13/viper"

// setDefaults sets every default value.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.rpc_addr", "127.0.0.1:5005")
	v.SetDefault("server.ws_addr", "127.0.0.1:6006")
	v.SetDefault("server.rpc_timeout", "30s")

	// Storage defaults; empty path keeps state in memory
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.history_driver", "sqlite")
	v.SetDefault("storage.history_dsn", "file:salevault_history.db")

	// Chain defaults
	v.SetDefault("chain.tick_interval", "1s")

	// Sale parameter defaults: 1.00 currency per token, 5% fee,
	// 50-tick settle window
	v.SetDefault("sale.price", 100)
	v.SetDefault("sale.fee_rate", 5000)
	v.SetDefault("sale.escrow_duration", 50)
	v.SetDefault("sale.owner", "")
	v.SetDefault("sale.treasury_role", "")
	v.SetDefault("sale.pool_role", "")
	v.SetDefault("sale.treasury_token", "")
	v.SetDefault("sale.self_address", "")

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
