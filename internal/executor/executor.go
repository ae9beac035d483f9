package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/tensorgridgo/internal/barrier"
	"github.com/vk/tensorgridgo/internal/ctxlog"
	"github.com/vk/tensorgridgo/internal/device"
	"github.com/vk/tensorgridgo/internal/execctx"
	"github.com/vk/tensorgridgo/internal/graph"
	"github.com/vk/tensorgridgo/internal/threadpool"
)

// Engine-surfaced error taxonomy. Device-produced errors pass through
// opaquely.
var (
	// ErrRequestRefused rejects a run submitted during shutdown or with a
	// runID that is already active.
	ErrRequestRefused = errors.New("runtime request refused")
	// ErrDeviceNotFound reports a node whose device selection has no
	// registered device manager.
	ErrDeviceNotFound = errors.New("runtime device not found")
)

// ResultCallback delivers a run's aggregate result: the first error recorded
// for the run (nil on success) and the caller's context, possibly partially
// populated. It is invoked exactly once per accepted run.
type ResultCallback func(runID uint64, err error, ctx *execctx.Context)

// Executor drives pre-partitioned computation graphs to completion across a
// pool of device managers, respecting data dependencies and propagating
// intermediate tensors between nodes.
type Executor struct {
	// deviceManagers is fixed at construction and never mutated.
	deviceManagers map[graph.DeviceID]device.Manager

	// pool runs completion handlers so device goroutines are never blocked
	// by the engine's own work.
	pool *threadpool.Pool

	statesMu sync.Mutex
	states   map[uint64]*executionState

	// inflight counts dispatched-but-not-yet-fully-handled node executions
	// across all runs. Shutdown waits on it.
	inflight *barrier.Barrier

	shuttingDown atomic.Bool
	closeOnce    sync.Once
}

// New creates an executor over the given device managers with a completion
// worker pool of the given size.
func New(deviceManagers map[graph.DeviceID]device.Manager, workers int) *Executor {
	return &Executor{
		deviceManagers: deviceManagers,
		pool:           threadpool.New(workers),
		states:         make(map[uint64]*executionState),
		inflight:       barrier.New(),
	}
}

// Run executes the graph rooted at the given sentinel. The execution context
// supplies the caller's input bindings and declares the outputs it wants; it
// is relinquished to the callback when the run completes. The runID must be
// unique among currently-active runs. cb is invoked exactly once.
func (e *Executor) Run(ctx context.Context, root *graph.Node, ec *execctx.Context, runID uint64, cb ResultCallback) {
	ctx = ctxlog.WithRun(ctx, runID)
	logger := ctxlog.FromContext(ctx)
	defer ec.TraceContext().Scope("run.prepare")()

	// Refuse new work once shutdown has begun. Outstanding runs are still
	// carried to completion.
	if e.shuttingDown.Load() {
		logger.Warn("Run refused, executor is shutting down.")
		cb(runID, fmt.Errorf("%w: executor is shutting down", ErrRequestRefused), ec)
		return
	}

	// A nil or childless root means there is nothing to execute. Hand the
	// context straight back so the caller can reuse it.
	if root == nil || len(root.Children) == 0 {
		cb(runID, nil, ec)
		return
	}

	var state *executionState
	e.statesMu.Lock()
	if _, active := e.states[runID]; active {
		e.statesMu.Unlock()
		logger.Warn("Run refused, runID is already active.")
		cb(runID, fmt.Errorf("%w: another run with id %d is in progress", ErrRequestRefused, runID), ec)
		return
	}
	state = newExecutionState(runID, root, ec, cb)
	e.states[runID] = state
	e.statesMu.Unlock()

	logger.Debug("Run accepted.", "rootChildren", len(root.Children))

	// Mark every root child inflight before dispatching any of them, so the
	// terminal transition cannot fire while later children are still being
	// seeded.
	numChildren := len(root.Children)
	state.incrementInflightNodes(numChildren)
	e.inflight.Increment(numChildren)

	for _, node := range root.Children {
		// The caller's bindings seed the inputs of the entry nodes.
		e.propagatePlaceholdersForNode(state, node, state.resultCtx)
		e.executeDAGNode(ctx, state, node)
	}
}

// Shutdown refuses all future runs and blocks until every outstanding node
// execution has fully unwound, then stops the completion pool. It is
// idempotent.
func (e *Executor) Shutdown(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	e.shuttingDown.Store(true)
	logger.Debug("Executor shutting down, waiting for inflight work to drain.")
	e.inflight.Wait()
	e.closeOnce.Do(e.pool.Close)
	logger.Debug("Executor shutdown complete.")
}

// executeDAGNode dispatches one ready node to its device manager. On
// cancellation or device lookup failure the node goes straight from ready to
// handled, keeping the counter bookkeeping that guarantees the run
// eventually terminates.
func (e *Executor) executeDAGNode(ctx context.Context, state *executionState, node *graph.Node) {
	logger := ctxlog.FromContext(ctx).With("node", node.Name)

	// If the run has already failed, don't bother dispatching this node.
	if state.errs.ContainsErr() {
		logger.Debug("Skipping node dispatch, run has already failed.")
		e.retireNode(ctx, state)
		return
	}

	dev := node.NextDevice()
	dm, ok := e.deviceManagers[dev]
	if !ok {
		logger.Error("Node selected an unregistered device.", "device", int(dev))
		state.errs.Set(fmt.Errorf("%w: node %q selected device %d", ErrDeviceNotFound, node.Name, int(dev)))
		e.retireNode(ctx, state)
		return
	}

	// Tag device-side trace events with the device's name.
	if resultTraceCtx := state.resultCtx.TraceContext(); resultTraceCtx.Enabled() {
		resultTraceCtx.SetThreadName(int(dev), dm.Config().Name)
	}

	// Take exclusive ownership of the node's inputs for the device call.
	nodeCtx := state.getUniqueNodeContextPtr(node)

	traceCtx := nodeCtx.TraceContext()
	initialThread := traceCtx.Thread()
	traceCtx.Begin("enqueue." + node.Name)
	traceCtx.End("enqueue." + node.Name)
	traceCtx.SetThread(int(dev))

	logger.Debug("Dispatching node to device.", "device", dm.Config().Name)

	dm.RunFunction(node.Name, nodeCtx, func(err error, resCtx *execctx.Context) {
		// This callback runs on the device goroutine. Re-submit the real
		// handling onto the executor's pool immediately so the device is
		// free to start its next function.
		resCtx.TraceContext().SetThread(initialThread)
		resCtx.TraceContext().Begin("deferResult." + node.Name)
		e.pool.Submit(func() {
			resCtx.TraceContext().End("deferResult." + node.Name)
			e.handleDeviceManagerResult(ctx, state, err, resCtx, node)
		})
	})
}

// handleDeviceManagerResult processes one node's completion on the executor
// pool: record the error first-wins, propagate outputs to children or to the
// result bindings, unlock newly-ready children, and drive the run's terminal
// transition when this was the last inflight node.
func (e *Executor) handleDeviceManagerResult(ctx context.Context, state *executionState, err error, resCtx *execctx.Context, node *graph.Node) {
	logger := ctxlog.FromContext(ctx).With("node", node.Name)

	traceCtx := resCtx.TraceContext()
	traceCtx.Begin("handleResult." + node.Name)

	success := err == nil
	state.errs.Set(err)

	if success {
		if len(node.Children) == 0 {
			// A sink node's outputs become the run's results.
			e.propagateOutputPlaceholders(state, resCtx.Bindings())
		} else {
			for _, child := range node.Children {
				e.propagatePlaceholdersForNode(state, child, resCtx)

				// Dispatch the child once its last parent has finished. The
				// atomic transition is observed by exactly one caller.
				if state.incrementNodeParentsDone(child) {
					logger.Debug("Unlocking child node.", "child", child.Name)
					state.incrementInflightNodes(1)
					e.inflight.Increment(1)
					e.executeDAGNode(ctx, state, child)
				}
			}
		}
	} else {
		logger.Debug("Node execution failed on device.", "error", err)
	}

	traceCtx.End("handleResult." + node.Name)
	state.insertIntoTraceContext(traceCtx.TakeEvents())

	e.retireNode(ctx, state)
}

// retireNode retires one inflight node execution. The caller that observes
// the terminal transition invokes the run's callback and erases the run's
// state; the global barrier is decremented only after that has finished, so
// Shutdown cannot tear the executor down underneath the callback.
func (e *Executor) retireNode(ctx context.Context, state *executionState) {
	if state.decrementInflightNodes() {
		e.finishRun(ctx, state)
	}
	e.inflight.Decrement(1)
}

// finishRun delivers the terminal callback and erases the run's state.
func (e *Executor) finishRun(ctx context.Context, state *executionState) {
	logger := ctxlog.FromContext(ctx)

	err := state.errs.Get()
	if err != nil {
		logger.Debug("Run completed with error.", "error", err)
	} else {
		logger.Debug("Run completed.")
	}

	cb := state.cb
	cb(state.runID, err, state.takeResultContext())

	e.statesMu.Lock()
	delete(e.states, state.runID)
	e.statesMu.Unlock()
}

// activeRuns reports how many runs are currently registered.
func (e *Executor) activeRuns() int {
	e.statesMu.Lock()
	defer e.statesMu.Unlock()
	return len(e.states)
}
