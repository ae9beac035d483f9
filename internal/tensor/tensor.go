// Package tensor holds the runtime's opaque tensor blob. The execution engine
// never inspects tensor contents; it only moves and clones them between
// placeholder bindings. Kernels are the sole readers and writers of the data.
package tensor

import (
	"fmt"
	"slices"
	"strings"
)

// ElemKind identifies the element type of a tensor.
type ElemKind int

const (
	// Float32 is a 32-bit floating point element.
	Float32 ElemKind = iota
	// Int64 is a 64-bit signed integer element.
	Int64
)

// String returns the human-readable name of the element kind.
func (k ElemKind) String() string {
	switch k {
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	default:
		return fmt.Sprintf("ElemKind(%d)", int(k))
	}
}

// Type describes the shape and element kind of a tensor.
type Type struct {
	Kind ElemKind
	Dims []int
}

// NewType creates a tensor type with the given element kind and dimensions.
func NewType(kind ElemKind, dims ...int) Type {
	return Type{Kind: kind, Dims: dims}
}

// Size returns the number of elements a tensor of this type holds.
func (t Type) Size() int {
	size := 1
	for _, d := range t.Dims {
		size *= d
	}
	return size
}

// Equal reports whether two types have the same kind and dimensions.
func (t Type) Equal(other Type) bool {
	return t.Kind == other.Kind && slices.Equal(t.Dims, other.Dims)
}

// String renders the type in the form "float32<2x3>".
func (t Type) String() string {
	dims := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		dims[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%s<%s>", t.Kind, strings.Join(dims, "x"))
}

// Tensor is a typed, contiguous blob of elements. Exactly one of the backing
// slices is populated, matching the type's element kind.
type Tensor struct {
	typ     Type
	float32 []float32
	int64   []int64
}

// New allocates a zero-filled tensor of the given type.
func New(typ Type) *Tensor {
	t := &Tensor{typ: typ}
	switch typ.Kind {
	case Float32:
		t.float32 = make([]float32, typ.Size())
	case Int64:
		t.int64 = make([]int64, typ.Size())
	}
	return t
}

// NewFloat32 builds a Float32 tensor from the given data. The data length
// must match the product of the dimensions.
func NewFloat32(data []float32, dims ...int) *Tensor {
	typ := NewType(Float32, dims...)
	if len(data) != typ.Size() {
		panic(fmt.Sprintf("tensor: data length %d does not match type %s", len(data), typ))
	}
	return &Tensor{typ: typ, float32: data}
}

// NewInt64 builds an Int64 tensor from the given data. The data length must
// match the product of the dimensions.
func NewInt64(data []int64, dims ...int) *Tensor {
	typ := NewType(Int64, dims...)
	if len(data) != typ.Size() {
		panic(fmt.Sprintf("tensor: data length %d does not match type %s", len(data), typ))
	}
	return &Tensor{typ: typ, int64: data}
}

// Type returns the tensor's type.
func (t *Tensor) Type() Type {
	return t.typ
}

// Float32s returns the backing float32 slice. It is nil for non-Float32 tensors.
func (t *Tensor) Float32s() []float32 {
	return t.float32
}

// Int64s returns the backing int64 slice. It is nil for non-Int64 tensors.
func (t *Tensor) Int64s() []int64 {
	return t.int64
}

// Clone returns a deep copy of the tensor. The engine clones tensors on
// fan-out so that sibling nodes never share backing storage.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{typ: Type{Kind: t.typ.Kind, Dims: slices.Clone(t.typ.Dims)}}
	out.float32 = slices.Clone(t.float32)
	out.int64 = slices.Clone(t.int64)
	return out
}

// String renders the tensor type followed by all of its elements.
func (t *Tensor) String() string {
	switch t.typ.Kind {
	case Float32:
		return fmt.Sprintf("%s%v", t.typ, t.float32)
	case Int64:
		return fmt.Sprintf("%s%v", t.typ, t.int64)
	default:
		return t.typ.String()
	}
}
