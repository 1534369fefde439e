// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tensor provides a minimal dense tensor used as a kernel operand.
//
// Shapes and indices are innermost dimension first, matching
// window.Coordinates: a 2-D tensor of width W and height H has shape
// (W, H), and element (x, y) lives at offset y*W + x.
package tensor

import (
	"errors"
	"fmt"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
)

// ErrShape is returned for a shape that does not fit the data or the
// maximum rank.
var ErrShape = errors.New("tensor: invalid shape")

// Tensor is a dense, contiguous tensor of T.
type Tensor[T hwy.Lanes] struct {
	data    []T
	shape   kernel.Shape
	strides []int
}

// New allocates a zero-filled tensor. It panics on negative extents or on
// more than window.MaxDimensions dimensions.
func New[T hwy.Lanes](shape ...int) *Tensor[T] {
	t, err := FromSlice(make([]T, kernel.Shape(shape).NumElements()), shape...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromSlice wraps data without copying.
func FromSlice[T hwy.Lanes](data []T, shape ...int) (*Tensor[T], error) {
	if len(shape) > window.MaxDimensions {
		return nil, fmt.Errorf("%w: rank %d > %d", ErrShape, len(shape), window.MaxDimensions)
	}
	for i, e := range shape {
		if e < 0 {
			return nil, fmt.Errorf("%w: extent %d at dimension %d", ErrShape, e, i)
		}
	}
	s := kernel.Shape(shape).Clone()
	if n := s.NumElements(); n != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, got %d", ErrShape, s, n, len(data))
	}
	strides := make([]int, len(s))
	stride := 1
	for i, e := range s {
		strides[i] = stride
		stride *= e
	}
	return &Tensor[T]{data: data, shape: s, strides: strides}, nil
}

// Info implements kernel.Tensor.
func (t *Tensor[T]) Info() kernel.TensorInfo {
	return kernel.TensorInfo{Shape: t.shape, DataType: hwy.DataTypeOf[T]()}
}

// Shape returns the extents, innermost first. It must not be modified.
func (t *Tensor[T]) Shape() kernel.Shape { return t.shape }

// Data returns the backing slice.
func (t *Tensor[T]) Data() []T { return t.data }

// Strides returns the element stride of each dimension.
func (t *Tensor[T]) Strides() []int { return t.strides }

// Len returns the number of elements.
func (t *Tensor[T]) Len() int { return len(t.data) }

// Offset returns the position of c in Data. Coordinates past the tensor's
// rank are ignored.
func (t *Tensor[T]) Offset(c window.Coordinates) int {
	off := 0
	for i, s := range t.strides {
		off += c[i] * s
	}
	return off
}

func (t *Tensor[T]) index(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank %d", len(idx), len(t.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range [0, %d) in dimension %d", v, t.shape[i], i))
		}
		off += v * t.strides[i]
	}
	return off
}

// At returns the element at idx, innermost index first.
func (t *Tensor[T]) At(idx ...int) T {
	return t.data[t.index(idx)]
}

// Set stores v at idx, innermost index first.
func (t *Tensor[T]) Set(v T, idx ...int) {
	t.data[t.index(idx)] = v
}

// Window returns the unit-step window covering every element.
func (t *Tensor[T]) Window() window.Window {
	w, err := window.FromShape(t.shape...)
	if err != nil {
		// Shapes are checked at construction.
		panic(err)
	}
	return w
}

// Fill sets every element to v.
func (t *Tensor[T]) Fill(v T) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Clone returns a deep copy.
func (t *Tensor[T]) Clone() *Tensor[T] {
	c, _ := FromSlice(append([]T(nil), t.data...), t.shape...)
	return c
}

func (t *Tensor[T]) String() string {
	return fmt.Sprintf("Tensor[%v]%v", hwy.DataTypeOf[T](), t.shape)
}
