package config

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/sale"
	"github.com/avelines/salevaultd/internal/core/tick"
)

// Validate checks the whole configuration. Sale addresses must parse and be
// non-zero; they seed the engine parameters on first start.
func Validate(cfg *Config) error {
	if cfg.Server.RPCAddr == "" {
		return fmt.Errorf("server.rpc_addr cannot be empty")
	}
	if cfg.Server.RPCTimeout <= 0 {
		return fmt.Errorf("server.rpc_timeout must be positive")
	}
	if cfg.Chain.TickInterval <= 0 {
		return fmt.Errorf("chain.tick_interval must be positive")
	}

	switch cfg.Storage.HistoryDriver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.history_driver must be sqlite, postgres or empty, got %q", cfg.Storage.HistoryDriver)
	}
	if cfg.Storage.HistoryDriver != "" && cfg.Storage.HistoryDSN == "" {
		return fmt.Errorf("storage.history_dsn required when history_driver is set")
	}

	if cfg.Sale.FeeRate > sale.FeeScale {
		return fmt.Errorf("sale.fee_rate %d above cap %d", cfg.Sale.FeeRate, sale.FeeScale)
	}
	if cfg.Sale.EscrowDuration == 0 {
		return fmt.Errorf("sale.escrow_duration must be positive")
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"sale.owner", cfg.Sale.Owner},
		{"sale.treasury_role", cfg.Sale.TreasuryRole},
		{"sale.pool_role", cfg.Sale.PoolRole},
		{"sale.treasury_token", cfg.Sale.TreasuryToken},
		{"sale.self_address", cfg.Sale.SelfAddress},
	} {
		a, err := addr.Parse(f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		if a.IsZero() {
			return fmt.Errorf("%s cannot be the zero address", f.name)
		}
	}

	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return nil
}

// SaleParams converts the seed configuration into engine parameters. Call
// only after Validate.
func (c *Config) SaleParams() sale.Params {
	return sale.Params{
		Price:          c.Sale.Price,
		FeeRate:        c.Sale.FeeRate,
		EscrowDuration: tick.Tick(c.Sale.EscrowDuration),
		Owner:          addr.MustParse(c.Sale.Owner),
		TreasuryRole:   addr.MustParse(c.Sale.TreasuryRole),
		PoolRole:       addr.MustParse(c.Sale.PoolRole),
		TreasuryToken:  addr.MustParse(c.Sale.TreasuryToken),
	}
}

// Self returns the engine's own escrow address. Call only after Validate.
func (c *Config) Self() addr.Address {
	return addr.MustParse(c.Sale.SelfAddress)
}

// NewLogger builds the configured logger. Call only after Validate.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, _ := logrus.ParseLevel(c.Log.Level)
	logger.SetLevel(level)
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
