package executor

import (
	"sync"
	"sync/atomic"

	"github.com/vk/tensorgridgo/internal/execctx"
	"github.com/vk/tensorgridgo/internal/graph"
	"github.com/vk/tensorgridgo/internal/tensor"
	"github.com/vk/tensorgridgo/internal/trace"
)

// errorContainer is a single-writer-wins slot for the first failure of a run.
// Reading is always allowed; every set after the first is ignored.
type errorContainer struct {
	mu  sync.Mutex
	err error
	set bool
}

// Set records err if the container is still empty. Nil errors are ignored.
func (c *errorContainer) Set(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return
	}
	c.err = err
	c.set = true
}

// ContainsErr reports whether an error has been recorded.
func (c *errorContainer) ContainsErr() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}

// Get returns the recorded error, or nil if the run has not failed.
func (c *errorContainer) Get() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// inputSlot holds a node's private input context until dispatch moves it out.
// The surrounding map is immutable after construction, so concurrent runs of
// sibling handlers never mutate it.
type inputSlot struct {
	ctx *execctx.Context
}

// executionState is the per-run bookkeeping shared between the executor,
// pending child dispatches, and device-manager completion closures. It is
// created when a run is accepted and dropped from the registry by whichever
// caller observes the terminal inflight transition.
type executionState struct {
	runID     uint64
	cb        ResultCallback
	resultCtx *execctx.Context

	// inputCtxs and nodeParentsDone are populated once by the constructor's
	// breadth-first walk and never grow afterwards.
	inputCtxs       map[*graph.Node]*inputSlot
	nodeParentsDone map[*graph.Node]*atomic.Int32

	// inflightNodes counts nodes dispatched or whose completion is still
	// being processed. The run terminates when it drains to zero.
	inflightNodes atomic.Int64

	// intermediatePlaceholders memoizes placeholders created for inter-node
	// symbols, keyed by symbol name. Written only during construction.
	intermediatePlaceholders map[string]*execctx.Placeholder

	errs errorContainer

	// bindingsMtx serializes writes to any node's input bindings and to the
	// result bindings. Coarse, but tensor moves stay atomic with respect to
	// concurrent writers.
	bindingsMtx sync.Mutex
}

// newExecutionState builds the bookkeeping for one run by walking the graph
// breadth-first from the root sentinel's children. For every reachable node
// it creates a parents-done counter and a private input context with a slot
// allocated for each placeholder symbol. nodeParentsDone doubles as the
// visited set, so each node is prepared exactly once.
func newExecutionState(runID uint64, root *graph.Node, resultCtx *execctx.Context, cb ResultCallback) *executionState {
	s := &executionState{
		runID:                    runID,
		cb:                       cb,
		resultCtx:                resultCtx,
		inputCtxs:                make(map[*graph.Node]*inputSlot),
		nodeParentsDone:          make(map[*graph.Node]*atomic.Int32),
		intermediatePlaceholders: make(map[string]*execctx.Placeholder),
	}

	resultTraceCtx := resultCtx.TraceContext()

	queue := append([]*graph.Node(nil), root.Children...)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		// A node with several parents can be enqueued more than once before
		// its first visit; skip the duplicates.
		if _, visited := s.nodeParentsDone[node]; visited {
			continue
		}
		s.nodeParentsDone[node] = &atomic.Int32{}

		nodeCtx := execctx.New()
		if resultTraceCtx != nil {
			nodeCtx.SetTraceContext(trace.NewContext(
				resultTraceCtx.TraceLevel(),
				resultTraceCtx.Thread(),
			))
		}

		// Intermediate symbols are not present in the caller's context, so
		// the placeholders backing them must be created here. Symbols of any
		// other category are invisible to the engine.
		for name, info := range node.Bundle.SymbolTable {
			if info.Category != graph.CategoryPlaceholder {
				continue
			}
			nodeCtx.Bindings().Allocate(s.createOrGetPlaceholder(name, info.Type))
		}

		s.inputCtxs[node] = &inputSlot{ctx: nodeCtx}

		// nodeParentsDone doubles as the visited set, keeping the walk from
		// preparing a node twice.
		for _, child := range node.Children {
			if _, visited := s.nodeParentsDone[child]; !visited {
				queue = append(queue, child)
			}
		}
	}

	return s
}

// createOrGetPlaceholder returns the memoized placeholder for name, creating
// it on first use. Types are assumed consistent across calls for one name.
func (s *executionState) createOrGetPlaceholder(name string, typ tensor.Type) *execctx.Placeholder {
	if p, ok := s.intermediatePlaceholders[name]; ok {
		return p
	}
	p := execctx.NewPlaceholder(name, typ, false)
	s.intermediatePlaceholders[name] = p
	return p
}

// insertIntoNodeCtx moves a tensor into the slot named name in node's input
// bindings. The slot must have been allocated during construction.
func (s *executionState) insertIntoNodeCtx(node *graph.Node, name string, t *tensor.Tensor) {
	slot, ok := s.inputCtxs[node]
	if !ok {
		panic("executor: input context not found but should exist")
	}

	s.bindingsMtx.Lock()
	defer s.bindingsMtx.Unlock()
	if !slot.ctx.Bindings().Bind(name, t) {
		panic("executor: placeholder should have already been created: " + name)
	}
}

// getUniqueNodeContextPtr moves node's input context out of the state. Each
// node's context can be taken exactly once; later calls return nil.
func (s *executionState) getUniqueNodeContextPtr(node *graph.Node) *execctx.Context {
	slot, ok := s.inputCtxs[node]
	if !ok {
		panic("executor: input context not found but should exist")
	}
	ctx := slot.ctx
	slot.ctx = nil
	return ctx
}

// insertIntoResultCtx moves a tensor into the result bindings under name. A
// name the caller did not allocate a slot for is silently dropped — the
// caller declares which outputs it wants by pre-populating its bindings.
func (s *executionState) insertIntoResultCtx(name string, t *tensor.Tensor) {
	s.bindingsMtx.Lock()
	defer s.bindingsMtx.Unlock()
	s.resultCtx.Bindings().Bind(name, t)
}

// insertIntoTraceContext appends events onto the result trace context. When
// the caller did not request tracing the events are dropped.
func (s *executionState) insertIntoTraceContext(events []trace.Event) {
	resultTraceCtx := s.resultCtx.TraceContext()
	if resultTraceCtx == nil {
		return
	}
	s.bindingsMtx.Lock()
	defer s.bindingsMtx.Unlock()
	resultTraceCtx.Append(events)
}

// incrementInflightNodes marks k more nodes as inflight.
func (s *executionState) incrementInflightNodes(k int) {
	s.inflightNodes.Add(int64(k))
}

// decrementInflightNodes retires one inflight node and reports whether the
// counter reached zero by this call. Fetch-sub semantics guarantee exactly
// one caller observes the terminal transition.
func (s *executionState) decrementInflightNodes() bool {
	newValue := s.inflightNodes.Add(-1)
	if newValue < 0 {
		panic("executor: more decrements than increments to inflight nodes")
	}
	return newValue == 0
}

// incrementNodeParentsDone records one more completed parent for node and
// reports whether all parents are now done. Fetch-add semantics guarantee
// exactly one caller observes the completion, so a node is dispatched at
// most once.
func (s *executionState) incrementNodeParentsDone(node *graph.Node) bool {
	counter, ok := s.nodeParentsDone[node]
	if !ok {
		panic("executor: node parents done counter should exist but not found")
	}
	numParents := int32(len(node.Parents))
	newValue := counter.Add(1)
	if newValue > numParents {
		panic("executor: node parents done counter incremented beyond limit")
	}
	return newValue == numParents
}

// takeResultContext relinquishes the result context to the terminal callback.
func (s *executionState) takeResultContext() *execctx.Context {
	ctx := s.resultCtx
	s.resultCtx = nil
	return ctx
}
