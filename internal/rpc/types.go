package rpc

import (
	"encoding/json"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/amount"
)

// Request is the HTTP JSON-RPC envelope.
// Format: {"method": "method_name", "params": [{...}]}
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// Method parameter objects. Addresses arrive as 0x-prefixed hex strings and
// amounts as decimal strings; both types unmarshal themselves.

type submitParams struct {
	Seller addr.Address  `json:"seller"`
	Amount amount.Amount `json:"amount"`
}

type entryParams struct {
	Caller addr.Address `json:"caller"`
	Seller addr.Address `json:"seller"`
	Index  int          `json:"index"`
}

type fundTreasuryParams struct {
	Caller addr.Address  `json:"caller"`
	Amount amount.Amount `json:"amount"`
}

type fundPoolParams struct {
	Caller   addr.Address  `json:"caller"`
	Amount   amount.Amount `json:"amount"`
	Currency amount.Amount `json:"currency"`
}

type withdrawParams struct {
	Caller addr.Address  `json:"caller"`
	Amount amount.Amount `json:"amount"`
}

type sellerParams struct {
	Seller addr.Address `json:"seller"`
	Limit  int          `json:"limit,omitempty"`
}

type amountParams struct {
	Amount amount.Amount `json:"amount"`
}

type setUintParams struct {
	Caller addr.Address `json:"caller"`
	Value  uint64       `json:"value"`
}

type setAddrParams struct {
	Caller  addr.Address `json:"caller"`
	Address addr.Address `json:"address"`
}
