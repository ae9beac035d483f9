// Package kernels provides the built-in kernels the local device manager can
// run. Each kernel transforms the tensors bound in its execution context in
// place; the engine propagates whatever is bound afterwards.
package kernels

import (
	"fmt"

	"github.com/vk/tensorgridgo/internal/execctx"
	"github.com/vk/tensorgridgo/internal/registry"
	"github.com/vk/tensorgridgo/internal/tensor"
)

// RegisterCore registers the built-in kernels into the given registry.
func RegisterCore(reg *registry.Registry) error {
	core := map[string]registry.Kernel{
		"identity": identity,
		"double":   elementwise(func(v float32) float32 { return v * 2 }),
		"add_one":  elementwise(func(v float32) float32 { return v + 1 }),
		"negate":   elementwise(func(v float32) float32 { return -v }),
	}
	for name, k := range core {
		if err := reg.Register(name, k); err != nil {
			return err
		}
	}
	return nil
}

// identity leaves every bound tensor untouched, so inputs flow through
// unchanged.
func identity(ctx *execctx.Context) error {
	return nil
}

// elementwise builds a kernel applying fn to every element of every bound
// Float32 tensor.
func elementwise(fn func(float32) float32) registry.Kernel {
	return func(ctx *execctx.Context) error {
		var err error
		ctx.Bindings().Each(func(p *execctx.Placeholder, t *tensor.Tensor) {
			data := t.Float32s()
			if data == nil {
				err = fmt.Errorf("kernel requires float32 tensors, %s is %s", p.Name(), t.Type())
				return
			}
			for i := range data {
				data[i] = fn(data[i])
			}
		})
		return err
	}
}
