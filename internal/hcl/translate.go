package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/tensorgridgo/internal/config"
	"github.com/vk/tensorgridgo/internal/ctxlog"
	"github.com/vk/tensorgridgo/internal/tensor"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "network", LabelNames: []string{"name"}},
		{Type: "function", LabelNames: []string{"name"}},
	},
}

var functionSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "kernel", Required: true},
		{Name: "devices"},
		{Name: "depends_on"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "symbol", LabelNames: []string{"name"}},
		{Type: "feed", LabelNames: []string{"name"}},
	},
}

var symbolSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "category"},
		{Name: "dims"},
	},
}

var feedSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "value", Required: true},
	},
}

// translate walks the parsed HCL body and builds the config model.
func translate(ctx context.Context, body hcl.Body) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	content, diags := body.Content(rootSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid network definition: %w", diags)
	}

	model := &config.Model{}
	seen := make(map[string]bool)

	for _, block := range content.Blocks {
		switch block.Type {
		case "network":
			model.Name = block.Labels[0]
		case "function":
			fn, err := translateFunction(block)
			if err != nil {
				return nil, err
			}
			if seen[fn.Name] {
				return nil, fmt.Errorf("duplicate function %q", fn.Name)
			}
			seen[fn.Name] = true
			model.Functions = append(model.Functions, fn)
			logger.Debug("Translated function block.", "function", fn.Name, "kernel", fn.Kernel)
		}
	}

	for _, fn := range model.Functions {
		for _, dep := range fn.DependsOn {
			if !seen[dep] {
				return nil, fmt.Errorf("function %q depends on unknown function %q", fn.Name, dep)
			}
		}
	}

	return model, nil
}

// translateFunction decodes a single `function` block.
func translateFunction(block *hcl.Block) (*config.Function, error) {
	name := block.Labels[0]
	content, diags := block.Body.Content(functionSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid function %q: %w", name, diags)
	}

	fn := &config.Function{
		Name:    name,
		Devices: []int{0},
		Symbols: make(map[string]*config.SymbolDefinition),
		Feeds:   make(map[string]*tensor.Tensor),
	}

	kernel, err := decodeString(content.Attributes["kernel"].Expr)
	if err != nil {
		return nil, fmt.Errorf("function %q: kernel: %w", name, err)
	}
	fn.Kernel = kernel

	if attr, ok := content.Attributes["devices"]; ok {
		devices, err := decodeInts(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("function %q: devices: %w", name, err)
		}
		if len(devices) == 0 {
			return nil, fmt.Errorf("function %q: devices must not be empty", name)
		}
		fn.Devices = devices
	}

	if attr, ok := content.Attributes["depends_on"]; ok {
		deps, err := decodeStrings(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("function %q: depends_on: %w", name, err)
		}
		fn.DependsOn = deps
	}

	for _, inner := range content.Blocks {
		switch inner.Type {
		case "symbol":
			if err := translateSymbol(fn, inner); err != nil {
				return nil, err
			}
		case "feed":
			if err := translateFeed(fn, inner); err != nil {
				return nil, err
			}
		}
	}

	return fn, nil
}

// translateSymbol decodes a `symbol` block into the function's symbol table.
func translateSymbol(fn *config.Function, block *hcl.Block) error {
	symName := block.Labels[0]
	content, diags := block.Body.Content(symbolSchema)
	if diags.HasErrors() {
		return fmt.Errorf("function %q: symbol %q: %w", fn.Name, symName, diags)
	}

	def := &config.SymbolDefinition{Category: config.CategoryPlaceholder}

	if attr, ok := content.Attributes["category"]; ok {
		category, err := decodeString(attr.Expr)
		if err != nil {
			return fmt.Errorf("function %q: symbol %q: category: %w", fn.Name, symName, err)
		}
		if category != config.CategoryPlaceholder && category != config.CategoryConstant {
			return fmt.Errorf("function %q: symbol %q: unknown category %q", fn.Name, symName, category)
		}
		def.Category = category
	}

	if attr, ok := content.Attributes["dims"]; ok {
		dims, err := decodeInts(attr.Expr)
		if err != nil {
			return fmt.Errorf("function %q: symbol %q: dims: %w", fn.Name, symName, err)
		}
		def.Dims = dims
	}

	if _, exists := fn.Symbols[symName]; exists {
		return fmt.Errorf("function %q: duplicate symbol %q", fn.Name, symName)
	}
	fn.Symbols[symName] = def
	return nil
}

// translateFeed decodes a `feed` block into an input tensor. The fed symbol
// must be declared, and a declared shape must match the value's length.
func translateFeed(fn *config.Function, block *hcl.Block) error {
	symName := block.Labels[0]
	content, diags := block.Body.Content(feedSchema)
	if diags.HasErrors() {
		return fmt.Errorf("function %q: feed %q: %w", fn.Name, symName, diags)
	}

	def, declared := fn.Symbols[symName]
	if !declared {
		return fmt.Errorf("function %q: feed %q targets an undeclared symbol", fn.Name, symName)
	}

	values, err := decodeFloat32s(content.Attributes["value"].Expr)
	if err != nil {
		return fmt.Errorf("function %q: feed %q: value: %w", fn.Name, symName, err)
	}

	dims := def.Dims
	if len(dims) == 0 {
		dims = []int{len(values)}
	}
	typ := tensor.NewType(tensor.Float32, dims...)
	if typ.Size() != len(values) {
		return fmt.Errorf("function %q: feed %q: %d values do not fit shape %s", fn.Name, symName, len(values), typ)
	}

	fn.Feeds[symName] = tensor.NewFloat32(values, dims...)
	return nil
}

func decodeString(expr hcl.Expression) (string, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	return val.AsString(), nil
}

func decodeStrings(expr hcl.Expression) ([]string, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	val, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, err
	}
	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		out = append(out, elem.AsString())
	}
	return out, nil
}

func decodeInts(expr hcl.Expression) ([]int, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	val, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return nil, err
	}
	var out []int
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		var n int
		if err := gocty.FromCtyValue(elem, &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeFloat32s(expr hcl.Expression) ([]float32, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	val, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return nil, err
	}
	var out []float32
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		var f float32
		if err := gocty.FromCtyValue(elem, &f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
