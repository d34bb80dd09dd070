package inputs

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Field names, in the order they are generated.
const (
	FieldInputIDs      = "input_ids"
	FieldTokenTypeIDs  = "token_type_ids"
	FieldAttentionMask = "attention_mask"
)

// Tensor is a dense row-major int64 tensor tagged with the device it lives on.
type Tensor struct {
	Shape  []int
	Data   []int64
	Device Device
}

func newTensor(device Device, rows, cols int) *Tensor {
	return &Tensor{
		Shape:  []int{rows, cols},
		Data:   make([]int64, rows*cols),
		Device: device,
	}
}

// At returns the element at row i, column j of a 2-D tensor.
func (t *Tensor) At(i, j int) int64 {
	if len(t.Shape) != 2 {
		panic(fmt.Sprintf("At: expected 2-D tensor, got shape %v", t.Shape))
	}
	if i < 0 || i >= t.Shape[0] || j < 0 || j >= t.Shape[1] {
		panic(fmt.Sprintf("At: index (%d, %d) out of bounds for shape %v", i, j, t.Shape))
	}
	return t.Data[i*t.Shape[1]+j]
}

// Dense copies a 2-D tensor into a contiguous gonum matrix, independent of the device.
func (t *Tensor) Dense() *mat.Dense {
	if len(t.Shape) != 2 {
		panic(fmt.Sprintf("Dense: expected 2-D tensor, got shape %v", t.Shape))
	}
	data := make([]float64, len(t.Data))
	for i, v := range t.Data {
		data[i] = float64(v)
	}
	return mat.NewDense(t.Shape[0], t.Shape[1], data)
}

// Bundle is an ordered set of named fields. Insertion order is kept and is
// the order positional engine calls should use.
type Bundle[T any] struct {
	names  []string
	fields map[string]T
}

// TensorBundle holds the native tensors of one model input.
type TensorBundle = Bundle[*Tensor]

// ArrayBundle holds the device-independent mirror of a TensorBundle.
type ArrayBundle = Bundle[*mat.Dense]

func newBundle[T any]() *Bundle[T] {
	return &Bundle[T]{fields: make(map[string]T)}
}

func (b *Bundle[T]) set(name string, v T) {
	if _, ok := b.fields[name]; !ok {
		b.names = append(b.names, name)
	}
	b.fields[name] = v
}

// Names returns the field names in insertion order.
func (b *Bundle[T]) Names() []string {
	return append([]string(nil), b.names...)
}

// Get returns the named field.
func (b *Bundle[T]) Get(name string) (T, bool) {
	v, ok := b.fields[name]
	return v, ok
}

// Len returns the number of fields.
func (b *Bundle[T]) Len() int { return len(b.names) }

// Values returns the fields in insertion order.
func (b *Bundle[T]) Values() []T {
	out := make([]T, 0, len(b.names))
	for _, name := range b.names {
		out = append(out, b.fields[name])
	}
	return out
}
