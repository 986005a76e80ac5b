package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avelines/salevaultd/internal/core/sale"
	"github.com/avelines/salevaultd/internal/core/tick"
	"github.com/avelines/salevaultd/internal/storage/history"
)

// MethodFunc executes one RPC method.
type MethodFunc func(ctx context.Context, params json.RawMessage) (any, *RpcError)

// MethodRegistry maps method names to their handlers. Registration happens
// once at construction; lookups afterwards are read-only.
type MethodRegistry struct {
	methods map[string]MethodFunc
}

// NewMethodRegistry returns an empty registry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{methods: make(map[string]MethodFunc)}
}

// Register adds a method handler.
func (r *MethodRegistry) Register(name string, fn MethodFunc) {
	r.methods[name] = fn
}

// Get looks up a method handler.
func (r *MethodRegistry) Get(name string) (MethodFunc, bool) {
	fn, ok := r.methods[name]
	return fn, ok
}

// Service exposes the sale engine over RPC. History is optional; methods
// that need it report notReady when it is absent.
type Service struct {
	engine  *sale.Engine
	history *history.Store
	clock   tick.Source
	started time.Time
	version string
}

// NewService wires the engine (required) and its optional collaborators.
func NewService(engine *sale.Engine, hist *history.Store, clock tick.Source, version string) *Service {
	return &Service{
		engine:  engine,
		history: hist,
		clock:   clock,
		started: time.Now(),
		version: version,
	}
}

func decodeParams[T any](params json.RawMessage) (T, *RpcError) {
	var p T
	if len(params) == 0 {
		return p, RpcErrorInvalidParams("Missing parameters")
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return p, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return p, nil
}

// registerAll installs every method on the registry.
func (s *Service) registerAll(reg *MethodRegistry) {
	reg.Register("submit", s.handleSubmit)
	reg.Register("settle", s.handleSettle)
	reg.Register("reclaim", s.handleReclaim)
	reg.Register("sale_status", s.handleSaleStatus)
	reg.Register("user_sales", s.handleUserSales)
	reg.Register("fund_treasury", s.handleFundTreasury)
	reg.Register("fund_pool", s.handleFundPool)
	reg.Register("totals", s.handleTotals)
	reg.Register("sale_params", s.handleSaleParams)
	reg.Register("required_currency", s.handleRequiredCurrency)
	reg.Register("history", s.handleHistory)
	reg.Register("withdraw_token", s.handleWithdrawToken)
	reg.Register("withdraw_currency", s.handleWithdrawCurrency)
	reg.Register("set_price", s.handleSetPrice)
	reg.Register("set_fee_rate", s.handleSetFeeRate)
	reg.Register("set_escrow_duration", s.handleSetEscrowDuration)
	reg.Register("set_treasury_role", s.handleSetTreasuryRole)
	reg.Register("set_pool_role", s.handleSetPoolRole)
	reg.Register("set_treasury_token", s.handleSetTreasuryToken)
	reg.Register("server_info", s.handleServerInfo)
}

func (s *Service) handleSubmit(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[submitParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	index, err := s.engine.Submit(p.Seller, p.Amount)
	if err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"index": index}, nil
}

func (s *Service) handleSettle(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[entryParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.Settle(p.Caller, p.Seller, p.Index); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"settled": true}, nil
}

func (s *Service) handleReclaim(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[entryParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.Reclaim(p.Caller, p.Seller, p.Index); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"reclaimed": true}, nil
}

func (s *Service) handleSaleStatus(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[entryParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	st, err := s.engine.Status(p.Seller, p.Index)
	if err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"sale_status": st.String()}, nil
}

func (s *Service) handleUserSales(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[sellerParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]any{"sales": s.engine.UserSales(p.Seller)}, nil
}

func (s *Service) handleFundTreasury(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[fundTreasuryParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.FundTreasury(p.Caller, p.Amount); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"funded": true}, nil
}

func (s *Service) handleFundPool(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[fundPoolParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.FundPool(p.Caller, p.Amount, p.Currency); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"funded": true}, nil
}

func (s *Service) handleTotals(_ context.Context, _ json.RawMessage) (any, *RpcError) {
	t := s.engine.Totals()
	return map[string]any{
		"treasury": t.Treasury.String(),
		"pool":     t.Pool.String(),
		"queued":   t.Queued.String(),
	}, nil
}

func (s *Service) handleSaleParams(_ context.Context, _ json.RawMessage) (any, *RpcError) {
	p := s.engine.Params()
	return map[string]any{
		"price":           p.Price,
		"fee_rate":        p.FeeRate,
		"escrow_duration": uint64(p.EscrowDuration),
		"owner":           p.Owner.String(),
		"treasury_role":   p.TreasuryRole.String(),
		"pool_role":       p.PoolRole.String(),
		"treasury_token":  p.TreasuryToken.String(),
	}, nil
}

func (s *Service) handleRequiredCurrency(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[amountParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]any{
		"required_currency": s.engine.RequiredCurrency(p.Amount).String(),
		"required_treasury": sale.RequiredTreasury(p.Amount).String(),
		"required_pool":     sale.RequiredPool(p.Amount).String(),
	}, nil
}

func (s *Service) handleHistory(ctx context.Context, params json.RawMessage) (any, *RpcError) {
	if s.history == nil {
		return nil, NewRpcError(RpcNOT_READY, "notReady", "History index is not configured")
	}
	p, rpcErr := decodeParams[sellerParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	rows, err := s.history.BySeller(ctx, p.Seller, p.Limit)
	if err != nil {
		return nil, NewRpcError(RpcINTERNAL, "internal", err.Error())
	}
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = map[string]any{
			"id":            r.ID,
			"seller":        r.Seller.String(),
			"index":         r.Index,
			"amount":        r.Amount.String(),
			"fee_amount":    r.FeeAmount.String(),
			"currency_paid": r.CurrencyPaid.String(),
			"tick":          uint64(r.Tick),
			"sale_status":   r.Status,
			"resolved_at":   r.ResolvedAt,
		}
	}
	return map[string]any{"resolutions": out}, nil
}

func (s *Service) handleWithdrawToken(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[withdrawParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.WithdrawToken(p.Caller, p.Amount); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"withdrawn": true}, nil
}

func (s *Service) handleWithdrawCurrency(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[withdrawParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.WithdrawCurrency(p.Caller, p.Amount); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"withdrawn": true}, nil
}

func (s *Service) handleSetPrice(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[setUintParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetPrice(p.Caller, p.Value); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"updated": true}, nil
}

func (s *Service) handleSetFeeRate(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[setUintParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetFeeRate(p.Caller, p.Value); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"updated": true}, nil
}

func (s *Service) handleSetEscrowDuration(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[setUintParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetEscrowDuration(p.Caller, tick.Tick(p.Value)); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"updated": true}, nil
}

func (s *Service) handleSetTreasuryRole(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[setAddrParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetTreasuryRole(p.Caller, p.Address); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"updated": true}, nil
}

func (s *Service) handleSetPoolRole(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[setAddrParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetPoolRole(p.Caller, p.Address); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"updated": true}, nil
}

func (s *Service) handleSetTreasuryToken(_ context.Context, params json.RawMessage) (any, *RpcError) {
	p, rpcErr := decodeParams[setAddrParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetTreasuryToken(p.Caller, p.Address); err != nil {
		return nil, wireError(err)
	}
	return map[string]any{"updated": true}, nil
}

func (s *Service) handleServerInfo(_ context.Context, _ json.RawMessage) (any, *RpcError) {
	info := map[string]any{
		"build_version":  s.version,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"entries":        s.engine.EntryCount(),
	}
	if s.clock != nil {
		info["tick"] = uint64(s.clock.Now())
	}
	return map[string]any{"info": info}, nil
}
