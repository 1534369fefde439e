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

// Package reduce implements row reductions.
//
// SumRows reduces the innermost dimension: an input of shape (W, ...) gives
// an output of shape (1, ...). Every partition writes only its own rows, so
// the result does not depend on the number of threads. Reducing further is
// up to the caller once the rows are done, as SumAll does.
//
// The vector variants keep one partial sum per lane and may round
// differently from the generic variant; a given host always selects the same
// variant.
package reduce

import (
	"fmt"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/operator"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/tensor"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
)

const OpSumRows kernel.Op = "reduce.sum_rows"

// Elem is the set of supported element types.
type Elem interface {
	float32 | float64 | int32
}

// RowFunc reduces one row.
type RowFunc[T Elem] func(row []T) T

// RowsShape returns the output shape of a row reduction of src.
func RowsShape(src kernel.Shape) kernel.Shape {
	if src.Rank() == 0 {
		return kernel.Shape{1}
	}
	out := src.Clone()
	out[0] = 1
	return out
}

// Kernel sums each row of its input into dst. Partitions own whole rows.
type Kernel[T Elem] struct {
	kernel.Base
	fn       RowFunc[T]
	src, dst *tensor.Tensor[T]
}

// NewKernel returns an unconfigured row-sum kernel.
func NewKernel[T Elem](name string, fn RowFunc[T]) *Kernel[T] {
	return &Kernel[T]{Base: kernel.NewBase(name), fn: fn}
}

func (k *Kernel[T]) Validate(p kernel.Problem) error {
	if len(p.Operands) != 2 {
		return fmt.Errorf("%w: %s takes src and dst, got %d operands", kernel.ErrInvalidArgument, p.Op, len(p.Operands))
	}
	src, dst := p.Operands[0], p.Operands[1]
	want := hwy.DataTypeOf[T]()
	if src.DataType != want || dst.DataType != want {
		return fmt.Errorf("%w: %v -> %v, want %v", kernel.ErrUnsupportedDataType, src.DataType, dst.DataType, want)
	}
	if src.Shape.Rank() == 0 {
		return fmt.Errorf("%w: cannot reduce rows of a scalar", kernel.ErrShapeMismatch)
	}
	if out := RowsShape(src.Shape); !out.Equal(dst.Shape) {
		return fmt.Errorf("%w: dst is %v, want %v", kernel.ErrShapeMismatch, dst.Shape, out)
	}
	return nil
}

func (k *Kernel[T]) Configure(operands []kernel.Tensor, _ kernel.Problem) error {
	if err := k.CheckConfigure(); err != nil {
		return err
	}
	src, ok1 := operands[0].(*tensor.Tensor[T])
	dst, ok2 := operands[1].(*tensor.Tensor[T])
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: operands are %T, %T", kernel.ErrInvalidArgument, operands[0], operands[1])
	}
	k.src, k.dst = src, dst
	return k.SetConfigured(dst.Window(), kernel.Border{})
}

func (k *Kernel[T]) Run(win window.Window, _ kernel.ThreadInfo) error {
	if err := k.CheckRun(win); err != nil {
		return err
	}
	width := k.src.Shape()[0]
	in, out := k.src.Data(), k.dst.Data()
	win.ForEachRow(func(c window.Coordinates) {
		off := k.src.Offset(c)
		out[k.dst.Offset(c)] = k.fn(in[off : off+width])
	})
	return nil
}

// SumRows writes the sum of every row of src into dst, which must have
// shape RowsShape(src.Shape()). A nil Runtime uses operator.Default(). It
// returns the name of the kernel that ran.
func SumRows[T Elem](rt *operator.Runtime, src, dst *tensor.Tensor[T]) (string, error) {
	d, err := operator.Invoke[RowFunc[T]](rt, OpSumRows, nil, []kernel.Tensor{src, dst},
		func(d *kernel.Descriptor, fn RowFunc[T]) kernel.Kernel {
			return NewKernel(d.Name, fn)
		})
	if d == nil {
		return "", err
	}
	return d.Name, err
}

// SumAll returns the sum of every element of src. Rows are summed in
// parallel; the row sums are then added in order on the calling goroutine.
func SumAll[T Elem](rt *operator.Runtime, src *tensor.Tensor[T]) (T, error) {
	rows := tensor.New[T](RowsShape(src.Shape())...)
	if _, err := SumRows(rt, src, rows); err != nil {
		return 0, err
	}
	var total T
	for _, v := range rows.Data() {
		total += v
	}
	return total, nil
}
