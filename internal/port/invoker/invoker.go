// Package invoker defines the port interface for invoking a tool action.
package invoker

import (
	"context"
	"encoding/json"
)

// Invoker executes one tool action and returns its raw result payload.
// Implementations decide the transport (child process, in-process, cached).
// Cancellation and deadlines flow through ctx.
type Invoker interface {
	Invoke(ctx context.Context, toolID, action string, arguments any) (json.RawMessage, error)
}

// Func adapts a function to the Invoker interface.
type Func func(ctx context.Context, toolID, action string, arguments any) (json.RawMessage, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, toolID, action string, arguments any) (json.RawMessage, error) {
	return f(ctx, toolID, action, arguments)
}
