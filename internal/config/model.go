// Package config defines the format-agnostic model of a partitioned network
// definition, plus the loader interface format-specific frontends implement.
package config

import (
	"context"

	"github.com/vk/tensorgridgo/internal/tensor"
)

// Symbol categories a network definition may declare.
const (
	CategoryPlaceholder = "placeholder"
	CategoryConstant    = "constant"
)

// Model is the unified representation of one partitioned network: the set of
// device-bound functions and their data dependencies.
type Model struct {
	Name      string
	Functions []*Function
}

// Function is the format-agnostic representation of a `function` block.
type Function struct {
	// Name is the function's unique name within the network.
	Name string
	// Kernel names the registered kernel that implements the function.
	Kernel string
	// Devices lists the device replicas the function may run on.
	Devices []int
	// DependsOn names the functions whose outputs this function consumes.
	DependsOn []string
	// Symbols declares the function's symbol table.
	Symbols map[string]*SymbolDefinition
	// Feeds binds input tensors to entry-function symbols, decoded by the
	// loader at load time.
	Feeds map[string]*tensor.Tensor
}

// SymbolDefinition declares one symbol of a function.
type SymbolDefinition struct {
	Category string
	Dims     []int
}

// Loader is the interface for a format-specific network definition loader.
type Loader interface {
	// Load reads a network definition from the given path and translates it
	// into the format-agnostic model.
	Load(ctx context.Context, path string) (*Model, error)
}
