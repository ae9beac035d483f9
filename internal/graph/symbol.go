package graph

import "github.com/vk/tensorgridgo/internal/tensor"

// SymbolCategory classifies an entry in a node's symbol table.
type SymbolCategory int

const (
	// CategoryPlaceholder marks a symbol backed by a placeholder binding.
	// Only placeholder symbols participate in the engine's tensor plumbing.
	CategoryPlaceholder SymbolCategory = iota
	// CategoryConstant marks a symbol baked into the compiled function. The
	// engine ignores constants during construction and propagation.
	CategoryConstant
)

// SymbolInfo describes one named symbol of a compiled function.
type SymbolInfo struct {
	Category SymbolCategory
	Type     tensor.Type
}

// Bundle is the runtime bundle attached to a node by compilation. The engine
// reads only the symbol table.
type Bundle struct {
	SymbolTable map[string]SymbolInfo
}

// NewBundle creates a bundle with the given symbol table.
func NewBundle(symbols map[string]SymbolInfo) *Bundle {
	return &Bundle{SymbolTable: symbols}
}
