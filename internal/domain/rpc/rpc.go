// Package rpc defines the wire types for the newline-delimited JSON-RPC 2.0
// protocol spoken between the orchestrator and tool processes, along with the
// error taxonomy for failed invocations.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the JSON-RPC protocol version written on every request.
const Version = "2.0"

// MethodToolsCall is the single method tool processes implement.
const MethodToolsCall = "tools/call"

// Invocation failure taxonomy. Callers distinguish failure modes with
// errors.Is; the wrapped message carries the detail (stderr, exit code,
// timeout duration).
var (
	// ErrNotInstalled indicates the tool id could not be resolved to an
	// executable. No process was spawned.
	ErrNotInstalled = errors.New("tool not installed")

	// ErrTimeout indicates no response arrived within the deadline and the
	// process was forcibly terminated.
	ErrTimeout = errors.New("tool call timed out")

	// ErrProcessExit indicates the tool process exited with a non-zero code.
	ErrProcessExit = errors.New("tool process exited with error")

	// ErrProtocol indicates the process produced no parseable response line,
	// or the response carried an error object.
	ErrProtocol = errors.New("tool protocol error")
)

// Request is a single tools/call request written to a tool process's stdin,
// terminated by a newline. Exactly one request is written per process.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  Params `json:"params"`
}

// Params carries the action name and its opaque arguments.
type Params struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

// NewRequest builds a tools/call request with the given correlation id.
func NewRequest(id, action string, arguments any) Request {
	return Request{
		JSONRPC: Version,
		ID:      id,
		Method:  MethodToolsCall,
		Params:  Params{Name: action, Arguments: arguments},
	}
}

// Response is one JSON-RPC response read back from a tool process.
// Exactly one of Result or Error is set in a well-formed response.
// ID is kept raw: tools are free to echo the id as a string or number.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the JSON-RPC error object a tool may return instead of a result.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
