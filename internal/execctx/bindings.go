package execctx

import "github.com/vk/tensorgridgo/internal/tensor"

// slot is one entry in a bindings map: a placeholder plus the tensor bound to
// it, nil until a value arrives.
type slot struct {
	placeholder *Placeholder
	tensor      *tensor.Tensor
}

// Bindings maps placeholder names to tensor slots. Bindings itself is not
// concurrency-safe; the execution state serializes writers with its own
// mutex.
type Bindings struct {
	slots map[string]*slot
}

// NewBindings creates an empty bindings map.
func NewBindings() *Bindings {
	return &Bindings{slots: make(map[string]*slot)}
}

// Allocate creates an empty slot for the placeholder. Allocating the same
// name twice keeps the original placeholder.
func (b *Bindings) Allocate(p *Placeholder) {
	if _, exists := b.slots[p.Name()]; exists {
		return
	}
	b.slots[p.Name()] = &slot{placeholder: p}
}

// PlaceholderByName returns the placeholder registered under name, or nil if
// no slot exists for it.
func (b *Bindings) PlaceholderByName(name string) *Placeholder {
	s, ok := b.slots[name]
	if !ok {
		return nil
	}
	return s.placeholder
}

// Bind moves a tensor into the slot for name. It reports whether a slot
// existed; callers that require the slot treat false as an invariant
// violation, callers filling optional outputs ignore it.
func (b *Bindings) Bind(name string, t *tensor.Tensor) bool {
	s, ok := b.slots[name]
	if !ok {
		return false
	}
	s.tensor = t
	return true
}

// Tensor returns the tensor bound under name, or nil when the slot is absent
// or still empty.
func (b *Bindings) Tensor(name string) *tensor.Tensor {
	s, ok := b.slots[name]
	if !ok {
		return nil
	}
	return s.tensor
}

// Len returns the number of allocated slots.
func (b *Bindings) Len() int {
	return len(b.slots)
}

// Each calls fn for every slot holding a bound tensor. Empty slots are
// skipped.
func (b *Bindings) Each(fn func(p *Placeholder, t *tensor.Tensor)) {
	for _, s := range b.slots {
		if s.tensor == nil {
			continue
		}
		fn(s.placeholder, s.tensor)
	}
}

// Names returns the names of all allocated slots, bound or not.
func (b *Bindings) Names() []string {
	names := make([]string, 0, len(b.slots))
	for name := range b.slots {
		names = append(names, name)
	}
	return names
}
