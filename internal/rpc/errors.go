package rpc

import (
	"errors"

	"github.com/avelines/salevaultd/internal/core/sale"
)

// RpcError is the wire form of a failed method call.
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message"`
}

// Wire error codes.
const (
	RpcUNKNOWN_COMMAND = 27
	RpcINVALID_PARAMS  = 31
	RpcINTERNAL        = 73
	RpcNOT_READY       = 13
	RpcUNAUTHORIZED    = 40
	RpcNOT_FOUND       = 41
	RpcBAD_STATE       = 42
	RpcBAD_TIMING      = 43
	RpcNO_LIQUIDITY    = 44
	RpcNO_FUNDS        = 45
	RpcTRANSFER_FAILED = 46
	RpcNO_ALLOWANCE    = 47
	RpcBAD_AMOUNT      = 48
	RpcBAD_CONFIG      = 49
	RpcREENTRANT       = 50
	RpcMISSING_COMMAND = 26
	RpcJSON_INVALID    = 32
)

// NewRpcError builds an error with explicit code and strings.
func NewRpcError(code int, errStr, message string) *RpcError {
	return &RpcError{Code: code, ErrorString: errStr, Message: message}
}

// RpcErrorMethodNotFound reports an unregistered method.
func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcUNKNOWN_COMMAND, "unknownCmd", "Unknown method: "+method)
}

// RpcErrorInvalidParams reports malformed or missing parameters.
func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", message)
}

// wireError maps an engine error to its wire form. Dispatch is on the
// sentinel kind; the full wrapped message rides along for the client.
func wireError(err error) *RpcError {
	msg := err.Error()
	switch {
	case errors.Is(err, sale.ErrInvalidAmount):
		return NewRpcError(RpcBAD_AMOUNT, "invalidAmount", msg)
	case errors.Is(err, sale.ErrNotFound):
		return NewRpcError(RpcNOT_FOUND, "entryNotFound", msg)
	case errors.Is(err, sale.ErrInvalidState):
		return NewRpcError(RpcBAD_STATE, "invalidState", msg)
	case errors.Is(err, sale.ErrInvalidTiming):
		return NewRpcError(RpcBAD_TIMING, "invalidTiming", msg)
	case errors.Is(err, sale.ErrInsufficientLiquidity):
		return NewRpcError(RpcNO_LIQUIDITY, "insufficientLiquidity", msg)
	case errors.Is(err, sale.ErrInsufficientFunds):
		return NewRpcError(RpcNO_FUNDS, "insufficientFunds", msg)
	case errors.Is(err, sale.ErrInsufficientAllowance):
		return NewRpcError(RpcNO_ALLOWANCE, "insufficientAllowance", msg)
	case errors.Is(err, sale.ErrTransferFailed):
		return NewRpcError(RpcTRANSFER_FAILED, "transferFailed", msg)
	case errors.Is(err, sale.ErrUnauthorized):
		return NewRpcError(RpcUNAUTHORIZED, "unauthorized", msg)
	case errors.Is(err, sale.ErrInvalidConfiguration):
		return NewRpcError(RpcBAD_CONFIG, "invalidConfiguration", msg)
	case errors.Is(err, sale.ErrReentrancy):
		return NewRpcError(RpcREENTRANT, "tryAgain", msg)
	default:
		return NewRpcError(RpcINTERNAL, "internal", msg)
	}
}
