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

// Package pool2d implements max and average pooling over NCHW tensors.
//
// Tensors use innermost-first shapes, so an NCHW tensor has shape
// (W, H, C, N). Trailing dimensions may be omitted: (W, H) and (W, H, C)
// are accepted. Each output element is computed independently, so the
// output window can be split along any dimension.
package pool2d

import (
	"fmt"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/operator"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/tensor"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
)

const (
	OpMax kernel.Op = "pool2d.max"
	OpAvg kernel.Op = "pool2d.avg"
)

// Problem attribute names.
const (
	AttrPoolW          = "pool_w"
	AttrPoolH          = "pool_h"
	AttrStrideX        = "stride_x"
	AttrStrideY        = "stride_y"
	AttrPadLeft        = "pad_left"
	AttrPadRight       = "pad_right"
	AttrPadTop         = "pad_top"
	AttrPadBottom      = "pad_bottom"
	AttrExcludePadding = "exclude_padding"
	AttrGlobal         = "global"
)

// Elem is the set of supported element types.
type Elem interface {
	float32 | float64
}

// Geometry describes the pooling region and how it moves over the input.
type Geometry struct {
	PoolW, PoolH     int
	StrideX, StrideY int

	PadLeft, PadRight, PadTop, PadBottom int

	// ExcludePadding makes average pooling divide by the number of input
	// elements in the region rather than by the padded region size.
	ExcludePadding bool

	// Global pools over the whole plane; PoolW and PoolH are ignored.
	Global bool
}

// Square returns a size x size geometry with the given stride and no padding.
func Square(size, stride int) Geometry {
	return Geometry{PoolW: size, PoolH: size, StrideX: stride, StrideY: stride}
}

// Attrs encodes g as problem attributes.
func (g Geometry) Attrs() map[string]int {
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	return map[string]int{
		AttrPoolW: g.PoolW, AttrPoolH: g.PoolH,
		AttrStrideX: g.StrideX, AttrStrideY: g.StrideY,
		AttrPadLeft: g.PadLeft, AttrPadRight: g.PadRight,
		AttrPadTop: g.PadTop, AttrPadBottom: g.PadBottom,
		AttrExcludePadding: b(g.ExcludePadding),
		AttrGlobal:         b(g.Global),
	}
}

// GeometryOf decodes the attributes of p. Missing attributes default to a
// 2x2 pool with stride 1 and no padding.
func GeometryOf(p kernel.Problem) Geometry {
	return Geometry{
		PoolW:          p.Attr(AttrPoolW, 2),
		PoolH:          p.Attr(AttrPoolH, 2),
		StrideX:        p.Attr(AttrStrideX, 1),
		StrideY:        p.Attr(AttrStrideY, 1),
		PadLeft:        p.Attr(AttrPadLeft, 0),
		PadRight:       p.Attr(AttrPadRight, 0),
		PadTop:         p.Attr(AttrPadTop, 0),
		PadBottom:      p.Attr(AttrPadBottom, 0),
		ExcludePadding: p.Attr(AttrExcludePadding, 0) != 0,
		Global:         p.Attr(AttrGlobal, 0) != 0,
	}
}

// resolve fills in the pool size of a global geometry for an input plane.
func (g Geometry) resolve(w, h int) Geometry {
	if g.Global {
		g.PoolW, g.PoolH = w, h
		g.PadLeft, g.PadRight, g.PadTop, g.PadBottom = 0, 0, 0, 0
	}
	return g
}

func (g Geometry) validate() error {
	switch {
	case g.PoolW < 1 || g.PoolH < 1:
		return fmt.Errorf("%w: pool size %dx%d", kernel.ErrInvalidArgument, g.PoolW, g.PoolH)
	case g.StrideX < 1 || g.StrideY < 1:
		return fmt.Errorf("%w: stride %dx%d", kernel.ErrInvalidArgument, g.StrideX, g.StrideY)
	case g.PadLeft < 0 || g.PadRight < 0 || g.PadTop < 0 || g.PadBottom < 0:
		return fmt.Errorf("%w: negative padding", kernel.ErrInvalidArgument)
	case g.PadLeft >= g.PoolW || g.PadRight >= g.PoolW || g.PadTop >= g.PoolH || g.PadBottom >= g.PoolH:
		return fmt.Errorf("%w: padding must be smaller than the pool", kernel.ErrInvalidArgument)
	}
	return nil
}

// OutputShape returns the shape of the pooled output for an input of the
// given shape.
func OutputShape(src kernel.Shape, g Geometry) (kernel.Shape, error) {
	if src.Rank() < 2 || src.Rank() > 4 {
		return nil, fmt.Errorf("%w: pooling input has rank %d, want 2 to 4", kernel.ErrShapeMismatch, src.Rank())
	}
	if src[0] == 0 || src[1] == 0 {
		return nil, fmt.Errorf("%w: pooling input %v has an empty plane", kernel.ErrShapeMismatch, src)
	}
	g = g.resolve(src[0], src[1])
	if err := g.validate(); err != nil {
		return nil, err
	}
	padW, padH := src[0]+g.PadLeft+g.PadRight, src[1]+g.PadTop+g.PadBottom
	if padW < g.PoolW || padH < g.PoolH {
		return nil, fmt.Errorf("%w: pool %dx%d larger than padded input %v", kernel.ErrInvalidArgument, g.PoolW, g.PoolH, src)
	}
	out := src.Clone()
	out[0] = (padW-g.PoolW)/g.StrideX + 1
	out[1] = (padH-g.PoolH)/g.StrideY + 1
	return out, nil
}

// Func pools every output point of win from src into dst.
type Func[T Elem] func(src, dst *tensor.Tensor[T], g Geometry, win window.Window)

// Kernel runs a pooling Func over the output window.
type Kernel[T Elem] struct {
	kernel.Base
	fn       Func[T]
	geom     Geometry
	src, dst *tensor.Tensor[T]
}

// NewKernel returns an unconfigured pooling kernel running fn.
func NewKernel[T Elem](name string, fn Func[T]) *Kernel[T] {
	return &Kernel[T]{Base: kernel.NewBase(name), fn: fn}
}

func (k *Kernel[T]) Validate(p kernel.Problem) error {
	if len(p.Operands) != 2 {
		return fmt.Errorf("%w: pooling takes src and dst, got %d operands", kernel.ErrInvalidArgument, len(p.Operands))
	}
	src, dst := p.Operands[0], p.Operands[1]
	want := hwy.DataTypeOf[T]()
	if src.DataType != want || dst.DataType != want {
		return fmt.Errorf("%w: %v -> %v, want %v", kernel.ErrUnsupportedDataType, src.DataType, dst.DataType, want)
	}
	out, err := OutputShape(src.Shape, GeometryOf(p))
	if err != nil {
		return err
	}
	if !out.Equal(dst.Shape) {
		return fmt.Errorf("%w: dst is %v, want %v", kernel.ErrShapeMismatch, dst.Shape, out)
	}
	return nil
}

func (k *Kernel[T]) Configure(operands []kernel.Tensor, p kernel.Problem) error {
	if err := k.CheckConfigure(); err != nil {
		return err
	}
	src, ok1 := operands[0].(*tensor.Tensor[T])
	dst, ok2 := operands[1].(*tensor.Tensor[T])
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: operands are %T, %T", kernel.ErrInvalidArgument, operands[0], operands[1])
	}
	k.src, k.dst = src, dst
	k.geom = GeometryOf(p).resolve(src.Shape()[0], src.Shape()[1])
	g := k.geom
	return k.SetConfigured(dst.Window(), kernel.Border{
		Top: g.PadTop, Right: g.PadRight, Bottom: g.PadBottom, Left: g.PadLeft,
	})
}

func (k *Kernel[T]) Run(win window.Window, _ kernel.ThreadInfo) error {
	if err := k.CheckRun(win); err != nil {
		return err
	}
	k.fn(k.src, k.dst, k.geom, win)
	return nil
}

// Pool runs op from src into dst. dst must have OutputShape(src.Shape(), g).
// A nil Runtime uses operator.Default(). It returns the name of the kernel
// that ran.
func Pool[T Elem](rt *operator.Runtime, op kernel.Op, src, dst *tensor.Tensor[T], g Geometry) (string, error) {
	d, err := operator.Invoke[Func[T]](rt, op, g.Attrs(), []kernel.Tensor{src, dst},
		func(d *kernel.Descriptor, fn Func[T]) kernel.Kernel {
			return NewKernel(d.Name, fn)
		})
	if d == nil {
		return "", err
	}
	return d.Name, err
}

// MaxPool runs max pooling on the default runtime.
func MaxPool[T Elem](src, dst *tensor.Tensor[T], g Geometry) error {
	_, err := Pool(nil, OpMax, src, dst, g)
	return err
}

// AvgPool runs average pooling on the default runtime.
func AvgPool[T Elem](src, dst *tensor.Tensor[T], g Geometry) error {
	_, err := Pool(nil, OpAvg, src, dst, g)
	return err
}
