package erp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rpcRequest is the JSON-RPC 2.0 envelope Odoo expects on /jsonrpc.
type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	ID      int64     `json:"id"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is the error object returned by the server.
type RPCError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    RPCErrorData `json:"data"`
}

// RPCErrorData carries the server-side exception.
type RPCErrorData struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Debug   string `json:"debug"`
}

func (e *RPCError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("odoo rpc error %d: %s (%s)", e.Code, e.Data.Message, e.Data.Name)
	}
	return fmt.Sprintf("odoo rpc error %d: %s", e.Code, e.Message)
}

// sessionLost reports whether the error means the uid/key pair is no longer
// accepted and a fresh authenticate may succeed.
func (e *RPCError) sessionLost() bool {
	if e.Code == 100 {
		return true
	}
	name := e.Data.Name
	return strings.Contains(name, "SessionExpired") || strings.Contains(name, "AccessDenied")
}
