// Package execctx defines the execution context that carries tensors across
// node boundaries: a placeholder-to-tensor bindings map plus an optional
// trace context. A context is owned by exactly one party at a time — the
// caller, the execution state, a device manager, or the result callback.
package execctx

import "github.com/vk/tensorgridgo/internal/trace"

// Context is a container of placeholder bindings and optional trace data.
type Context struct {
	bindings *Bindings
	traceCtx *trace.Context
}

// New creates a context with empty bindings and no tracing.
func New() *Context {
	return &Context{bindings: NewBindings()}
}

// Bindings returns the context's placeholder bindings.
func (c *Context) Bindings() *Bindings {
	return c.bindings
}

// TraceContext returns the context's trace context, which may be nil.
func (c *Context) TraceContext() *trace.Context {
	return c.traceCtx
}

// SetTraceContext attaches a trace context.
func (c *Context) SetTraceContext(tc *trace.Context) {
	c.traceCtx = tc
}
