// Package device defines the interface the execution engine consumes to run
// compiled functions on a device. Device managers are opaque async function
// runners: submission returns immediately and the result arrives on a
// device-owned goroutine via the completion callback.
package device

import "github.com/vk/tensorgridgo/internal/execctx"

// Config describes a device to the engine. The engine reads only the name,
// for trace thread tagging.
type Config struct {
	Name string
}

// DoneFunc delivers the result of one RunFunction call. The error is nil on
// success; ownership of the context returns to the caller.
type DoneFunc func(err error, ctx *execctx.Context)

// Manager runs named functions on one device. Implementations must invoke
// done exactly once per RunFunction call, and may do so on their own
// goroutine; callers must not block inside done.
type Manager interface {
	RunFunction(name string, ctx *execctx.Context, done DoneFunc)
	Config() Config
}
