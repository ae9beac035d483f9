package executor

import (
	"github.com/vk/tensorgridgo/internal/execctx"
	"github.com/vk/tensorgridgo/internal/graph"
	"github.com/vk/tensorgridgo/internal/tensor"
)

// propagatePlaceholdersForNode copies named tensors from a source context
// into node's input bindings. For every symbol in node's symbol table that
// the source binds, the tensor is cloned and moved into the node's slot of
// the same name; symbols the source does not bind are left for an upstream
// node's output propagation to fill. Cloning keeps fan-out safe: several
// children may consume the same upstream tensor.
func (e *Executor) propagatePlaceholdersForNode(state *executionState, node *graph.Node, src *execctx.Context) {
	defer state.resultCtx.TraceContext().Scope("propagate.inputs")()

	srcBindings := src.Bindings()
	for name := range node.Bundle.SymbolTable {
		if srcBindings.PlaceholderByName(name) == nil {
			continue
		}
		t := srcBindings.Tensor(name)
		if t == nil {
			// The source allocated the slot but nothing has been bound yet;
			// there is no value to carry over.
			continue
		}
		state.insertIntoNodeCtx(node, name, t.Clone())
	}
}

// propagateOutputPlaceholders moves every bound placeholder-tensor pair of a
// sink node's bindings into the run's result bindings by name. Outputs the
// caller did not request are dropped.
func (e *Executor) propagateOutputPlaceholders(state *executionState, bindings *execctx.Bindings) {
	defer state.resultCtx.TraceContext().Scope("propagate.outputs")()

	bindings.Each(func(p *execctx.Placeholder, t *tensor.Tensor) {
		state.insertIntoResultCtx(p.Name(), t)
	})
}
