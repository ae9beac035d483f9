package execctx

import "github.com/vk/tensorgridgo/internal/tensor"

// Placeholder is a named, typed handle into a bindings map. Placeholders
// created by the engine for intermediate symbols are never trainable.
type Placeholder struct {
	name      string
	typ       tensor.Type
	trainable bool
}

// NewPlaceholder creates a placeholder with the given name and type.
func NewPlaceholder(name string, typ tensor.Type, trainable bool) *Placeholder {
	return &Placeholder{name: name, typ: typ, trainable: trainable}
}

// Name returns the placeholder's symbol name.
func (p *Placeholder) Name() string {
	return p.name
}

// Type returns the placeholder's tensor type.
func (p *Placeholder) Type() tensor.Type {
	return p.typ
}

// Trainable reports whether the placeholder backs a trainable weight.
func (p *Placeholder) Trainable() bool {
	return p.trainable
}
