package graph

import (
	"context"
	"fmt"

	"github.com/vk/tensorgridgo/internal/config"
	"github.com/vk/tensorgridgo/internal/ctxlog"
	"github.com/vk/tensorgridgo/internal/tensor"
)

// Build translates a network definition model into an executable graph rooted
// at a sentinel. Functions without dependencies become the sentinel's
// children; everything else is linked beneath them according to depends_on.
// The resulting graph is validated before it is returned.
func Build(ctx context.Context, model *config.Model) (*Node, error) {
	logger := ctxlog.FromContext(ctx)

	nodes := make(map[string]*Node, len(model.Functions))
	for _, fn := range model.Functions {
		if _, exists := nodes[fn.Name]; exists {
			return nil, fmt.Errorf("duplicate function %q", fn.Name)
		}

		symbols := make(map[string]SymbolInfo, len(fn.Symbols))
		for name, def := range fn.Symbols {
			category, err := symbolCategory(def.Category)
			if err != nil {
				return nil, fmt.Errorf("function %q: symbol %q: %w", fn.Name, name, err)
			}
			symbols[name] = SymbolInfo{
				Category: category,
				Type:     tensor.NewType(tensor.Float32, def.Dims...),
			}
		}

		devices := make([]DeviceID, 0, len(fn.Devices))
		for _, d := range fn.Devices {
			devices = append(devices, DeviceID(d))
		}
		if len(devices) == 0 {
			devices = []DeviceID{0}
		}

		nodes[fn.Name] = NewNode(fn.Name, NewBundle(symbols), devices...)
	}

	var entry []*Node
	for _, fn := range model.Functions {
		node := nodes[fn.Name]
		if len(fn.DependsOn) == 0 {
			entry = append(entry, node)
			continue
		}
		for _, dep := range fn.DependsOn {
			parent, ok := nodes[dep]
			if !ok {
				return nil, fmt.Errorf("function %q depends on unknown function %q", fn.Name, dep)
			}
			AddChild(parent, node)
		}
	}

	root := NewRoot(entry...)
	if err := Validate(root); err != nil {
		return nil, err
	}

	logger.Debug("Built execution graph.", "nodes", len(nodes), "entryNodes", len(entry))
	return root, nil
}

func symbolCategory(category string) (SymbolCategory, error) {
	switch category {
	case config.CategoryPlaceholder:
		return CategoryPlaceholder, nil
	case config.CategoryConstant:
		return CategoryConstant, nil
	default:
		return 0, fmt.Errorf("unknown symbol category %q", category)
	}
}
