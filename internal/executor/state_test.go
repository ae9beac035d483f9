package executor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tensorgridgo/internal/execctx"
	"github.com/vk/tensorgridgo/internal/graph"
	"github.com/vk/tensorgridgo/internal/tensor"
	"github.com/vk/tensorgridgo/internal/trace"
)

func nopCallback(uint64, error, *execctx.Context) {}

func TestStateConstructionWalksReachableNodes(t *testing.T) {
	root := diamond()
	s := newExecutionState(1, root, execctx.New(), nopCallback)

	require.Len(t, s.inputCtxs, 3, "every reachable node gets an input context")
	require.Len(t, s.nodeParentsDone, 3, "every reachable node gets a parents-done counter")

	for _, counter := range s.nodeParentsDone {
		assert.Equal(t, int32(0), counter.Load())
	}

	for node, slot := range s.inputCtxs {
		require.NotNil(t, slot.ctx, "node %s", node.Name)
		assert.NotNil(t, slot.ctx.Bindings().PlaceholderByName("x"),
			"placeholder symbols get a slot in node %s", node.Name)
	}
}

func TestStateSharesIntermediatePlaceholders(t *testing.T) {
	root := diamond()
	s := newExecutionState(1, root, execctx.New(), nopCallback)

	// All three nodes declare the symbol x; the memoized placeholder must be
	// one shared handle.
	require.Len(t, s.intermediatePlaceholders, 1)
	shared := s.intermediatePlaceholders["x"]
	require.NotNil(t, shared)
	assert.False(t, shared.Trainable(), "engine-created placeholders are not trainable")

	for _, slot := range s.inputCtxs {
		assert.Same(t, shared, slot.ctx.Bindings().PlaceholderByName("x"))
	}
}

func TestStateIgnoresNonPlaceholderSymbols(t *testing.T) {
	bundle := graph.NewBundle(map[string]graph.SymbolInfo{
		"x": {Category: graph.CategoryPlaceholder, Type: tensor.NewType(tensor.Float32, 1)},
		"w": {Category: graph.CategoryConstant, Type: tensor.NewType(tensor.Float32, 1)},
	})
	node := graph.NewNode("n", bundle, 0)
	s := newExecutionState(1, graph.NewRoot(node), execctx.New(), nopCallback)

	bindings := s.inputCtxs[node].ctx.Bindings()
	assert.NotNil(t, bindings.PlaceholderByName("x"))
	assert.Nil(t, bindings.PlaceholderByName("w"), "constants stay out of the binding machinery")
}

func TestStateInheritsTraceContext(t *testing.T) {
	resultCtx := execctx.New()
	resultCtx.SetTraceContext(trace.NewContext(trace.LevelDebug, 5))

	root := diamond()
	s := newExecutionState(1, root, resultCtx, nopCallback)

	for _, slot := range s.inputCtxs {
		tc := slot.ctx.TraceContext()
		require.NotNil(t, tc)
		assert.Equal(t, trace.LevelDebug, tc.TraceLevel())
		assert.Equal(t, 5, tc.Thread())
	}
}

func TestGetUniqueNodeContextPtrIsSingleShot(t *testing.T) {
	root := diamond()
	node := root.Children[0]
	s := newExecutionState(1, root, execctx.New(), nopCallback)

	first := s.getUniqueNodeContextPtr(node)
	require.NotNil(t, first)
	assert.Nil(t, s.getUniqueNodeContextPtr(node), "the input context moves out exactly once")
}

func TestInsertIntoNodeCtx(t *testing.T) {
	root := diamond()
	node := root.Children[0]
	s := newExecutionState(1, root, execctx.New(), nopCallback)

	val := tensor.NewFloat32([]float32{4}, 1)
	s.insertIntoNodeCtx(node, "x", val)
	assert.Same(t, val, s.inputCtxs[node].ctx.Bindings().Tensor("x"))

	t.Run("missing slot panics", func(t *testing.T) {
		assert.Panics(t, func() {
			s.insertIntoNodeCtx(node, "ghost", tensor.NewFloat32([]float32{0}, 1))
		})
	})

	t.Run("unknown node panics", func(t *testing.T) {
		stranger := graph.NewNode("stranger", placeholderBundle("x"), 0)
		assert.Panics(t, func() {
			s.insertIntoNodeCtx(stranger, "x", tensor.NewFloat32([]float32{0}, 1))
		})
	})
}

func TestInsertIntoResultCtxDropsUnknownNames(t *testing.T) {
	resultCtx := execctx.New()
	resultCtx.Bindings().Allocate(execctx.NewPlaceholder("wanted", tensor.NewType(tensor.Float32, 1), false))

	s := newExecutionState(1, diamond(), resultCtx, nopCallback)

	s.insertIntoResultCtx("wanted", tensor.NewFloat32([]float32{1}, 1))
	s.insertIntoResultCtx("unwanted", tensor.NewFloat32([]float32{2}, 1))

	assert.NotNil(t, resultCtx.Bindings().Tensor("wanted"))
	assert.Nil(t, resultCtx.Bindings().PlaceholderByName("unwanted"))
}

func TestInsertIntoTraceContext(t *testing.T) {
	t.Run("events dropped without a result trace context", func(t *testing.T) {
		s := newExecutionState(1, diamond(), execctx.New(), nopCallback)
		assert.NotPanics(t, func() {
			s.insertIntoTraceContext([]trace.Event{{Name: "orphan"}})
		})
	})

	t.Run("events appended to the result trace context", func(t *testing.T) {
		resultCtx := execctx.New()
		resultCtx.SetTraceContext(trace.NewContext(trace.LevelRuntime, 0))
		s := newExecutionState(1, diamond(), resultCtx, nopCallback)

		s.insertIntoTraceContext([]trace.Event{{Name: "merged"}})
		events := resultCtx.TraceContext().Events()
		require.Len(t, events, 1)
		assert.Equal(t, "merged", events[0].Name)
	})
}

func TestInflightNodeCounter(t *testing.T) {
	s := newExecutionState(1, diamond(), execctx.New(), nopCallback)

	s.incrementInflightNodes(2)
	assert.False(t, s.decrementInflightNodes(), "one node still inflight")
	assert.True(t, s.decrementInflightNodes(), "exactly one caller sees the terminal transition")
	assert.Panics(t, func() { s.decrementInflightNodes() }, "underflow is a programming error")
}

func TestNodeParentsDoneCounter(t *testing.T) {
	root := diamond()
	join := root.Children[0].Children[0]
	require.Len(t, join.Parents, 2)

	s := newExecutionState(1, root, execctx.New(), nopCallback)

	assert.False(t, s.incrementNodeParentsDone(join))
	assert.True(t, s.incrementNodeParentsDone(join), "completion observed exactly once")
	assert.Panics(t, func() { s.incrementNodeParentsDone(join) }, "overflow is a programming error")

	t.Run("unknown node panics", func(t *testing.T) {
		stranger := graph.NewNode("stranger", placeholderBundle("x"), 0)
		assert.Panics(t, func() { s.incrementNodeParentsDone(stranger) })
	})
}

func TestErrorContainerFirstWins(t *testing.T) {
	var c errorContainer

	assert.False(t, c.ContainsErr())
	assert.NoError(t, c.Get())

	c.Set(nil)
	assert.False(t, c.ContainsErr(), "nil errors are ignored")

	first := errors.New("first failure")
	c.Set(first)
	c.Set(errors.New("second failure"))

	assert.True(t, c.ContainsErr())
	assert.ErrorIs(t, c.Get(), first)
}

func TestTakeResultContext(t *testing.T) {
	resultCtx := execctx.New()
	s := newExecutionState(1, diamond(), resultCtx, nopCallback)

	assert.Same(t, resultCtx, s.takeResultContext())
	assert.Nil(t, s.resultCtx)
}
