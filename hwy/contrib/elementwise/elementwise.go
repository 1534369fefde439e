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

// Package elementwise implements same-shape binary arithmetic on tensors.
//
// Every operation is registered for f32, f64 and s32 with an SVE, an AVX2,
// a NEON and a generic variant, most specialised first. The variants only
// differ in loop unrolling and produce identical results.
package elementwise

import (
	"fmt"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/operator"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/tensor"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
)

const (
	OpAdd kernel.Op = "elementwise.add"
	OpSub kernel.Op = "elementwise.sub"
	OpMul kernel.Op = "elementwise.mul"
	OpMax kernel.Op = "elementwise.max"
	OpMin kernel.Op = "elementwise.min"
)

// Elem is the set of supported element types.
type Elem interface {
	float32 | float64 | int32
}

// Row computes out[i] = a[i] op b[i] over equally long slices.
type Row[T Elem] func(a, b, out []T)

// Kernel applies a Row over the whole tensor. The iteration window is
// collapsed to one dimension, since operands are contiguous.
type Kernel[T Elem] struct {
	kernel.Base
	row       Row[T]
	a, b, out *tensor.Tensor[T]
	collapsed bool
}

// NewKernel returns an unconfigured kernel.
func NewKernel[T Elem](name string, row Row[T]) *Kernel[T] {
	return &Kernel[T]{Base: kernel.NewBase(name), row: row}
}

func (k *Kernel[T]) Validate(p kernel.Problem) error {
	if len(p.Operands) != 3 {
		return fmt.Errorf("%w: %s takes a, b and out, got %d operands", kernel.ErrInvalidArgument, p.Op, len(p.Operands))
	}
	want := hwy.DataTypeOf[T]()
	for i, o := range p.Operands {
		if o.DataType != want {
			return fmt.Errorf("%w: operand %d is %v, want %v", kernel.ErrUnsupportedDataType, i, o.DataType, want)
		}
	}
	a, b, out := p.Operands[0].Shape, p.Operands[1].Shape, p.Operands[2].Shape
	if !a.Equal(b) || !a.Equal(out) {
		return fmt.Errorf("%w: %v, %v -> %v", kernel.ErrShapeMismatch, a, b, out)
	}
	return nil
}

func (k *Kernel[T]) Configure(operands []kernel.Tensor, _ kernel.Problem) error {
	if err := k.CheckConfigure(); err != nil {
		return err
	}
	ts := make([]*tensor.Tensor[T], len(operands))
	for i, o := range operands {
		t, ok := o.(*tensor.Tensor[T])
		if !ok {
			return fmt.Errorf("%w: operand %d is %T", kernel.ErrInvalidArgument, i, o)
		}
		ts[i] = t
	}
	k.a, k.b, k.out = ts[0], ts[1], ts[2]

	win := k.out.Window()
	if c, ok := win.Collapse(window.DimX); ok {
		win, k.collapsed = c, true
	}
	return k.SetConfigured(win, kernel.Border{})
}

func (k *Kernel[T]) Run(win window.Window, _ kernel.ThreadInfo) error {
	if err := k.CheckRun(win); err != nil {
		return err
	}
	n := win.NumIterations(window.DimX)
	a, b, out := k.a.Data(), k.b.Data(), k.out.Data()
	win.ForEachRow(func(c window.Coordinates) {
		off := c[window.DimX]
		if !k.collapsed {
			off = k.out.Offset(c)
		}
		k.row(a[off:off+n], b[off:off+n], out[off:off+n])
	})
	return nil
}

// Binary runs op over a and b into out. A nil Runtime uses
// operator.Default(). It returns the name of the kernel that ran.
func Binary[T Elem](rt *operator.Runtime, op kernel.Op, a, b, out *tensor.Tensor[T]) (string, error) {
	d, err := operator.Invoke[Row[T]](rt, op, nil, []kernel.Tensor{a, b, out},
		func(d *kernel.Descriptor, row Row[T]) kernel.Kernel {
			return NewKernel(d.Name, row)
		})
	if d == nil {
		return "", err
	}
	return d.Name, err
}

// Add writes a + b to out using the default runtime.
func Add[T Elem](a, b, out *tensor.Tensor[T]) error {
	_, err := Binary(nil, OpAdd, a, b, out)
	return err
}

// Sub writes a - b to out using the default runtime.
func Sub[T Elem](a, b, out *tensor.Tensor[T]) error {
	_, err := Binary(nil, OpSub, a, b, out)
	return err
}

// Mul writes a * b to out using the default runtime.
func Mul[T Elem](a, b, out *tensor.Tensor[T]) error {
	_, err := Binary(nil, OpMul, a, b, out)
	return err
}

// Max writes the element-wise maximum of a and b to out using the default runtime.
func Max[T Elem](a, b, out *tensor.Tensor[T]) error {
	_, err := Binary(nil, OpMax, a, b, out)
	return err
}

// Min writes the element-wise minimum of a and b to out using the default runtime.
func Min[T Elem](a, b, out *tensor.Tensor[T]) error {
	_, err := Binary(nil, OpMin, a, b, out)
	return err
}
