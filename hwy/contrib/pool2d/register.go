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

package pool2d

import (
	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/tensor"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
)

func init() {
	Register(kernel.Default)
}

// Register adds the pooling kernels to reg. The 2x2 kernels come first and
// only accept 2x2 pools; the MxN kernels accept any geometry.
func Register(reg *kernel.Registry) {
	registerAll[float32](reg)
	registerAll[float64](reg)
}

func is2x2(_ hwy.Capabilities, p kernel.Problem) bool {
	g := GeometryOf(p)
	return !g.Global && g.PoolW == 2 && g.PoolH == 2
}

func registerAll[T Elem](reg *kernel.Registry) {
	dt := hwy.DataTypeOf[T]()
	for _, op := range []struct {
		op    kernel.Op
		name  string
		isMax bool
	}{
		{OpMax, "maxpool", true},
		{OpAvg, "avgpool", false},
	} {
		reg.Register(op.op, kernel.Descriptor{
			Name:       op.name + "_2x2_" + dt.String(),
			DataType:   dt,
			Selectable: is2x2,
			Entry:      pool2x2[T](op.isMax),
		})
		reg.Register(op.op, kernel.Descriptor{
			Name:     op.name + "_" + dt.String(),
			DataType: dt,
			Entry:    poolMxN[T](op.isMax),
		})
	}
}

// region is the pooling region of one output point, clipped to the input
// (x0, x1, y0, y1) and to the padded input (size).
type region struct {
	x0, x1, y0, y1 int
	size           int
}

func (g Geometry) region(x, y, w, h int) region {
	xs, ys := x*g.StrideX-g.PadLeft, y*g.StrideY-g.PadTop
	xe, ye := min(xs+g.PoolW, w+g.PadRight), min(ys+g.PoolH, h+g.PadBottom)
	r := region{
		x0: max(xs, 0), x1: min(xe, w),
		y0: max(ys, 0), y1: min(ye, h),
		size: (xe - xs) * (ye - ys),
	}
	if g.ExcludePadding {
		r.size = (r.x1 - r.x0) * (r.y1 - r.y0)
	}
	return r
}

func poolRegion[T Elem](in []T, row int, r region, isMax bool) T {
	acc := in[r.y0*row+r.x0]
	if !isMax {
		acc = 0
	}
	for y := r.y0; y < r.y1; y++ {
		for _, v := range in[y*row+r.x0 : y*row+r.x1] {
			if isMax {
				acc = max(acc, v)
			} else {
				acc += v
			}
		}
	}
	if !isMax {
		acc /= T(r.size)
	}
	return acc
}

// forEachPlane calls fn for each output point of win with the input plane
// it reads from.
func forEachPlane[T Elem](src, dst *tensor.Tensor[T], win window.Window, fn func(plane []T, c window.Coordinates, at int)) {
	w, h := src.Shape()[0], src.Shape()[1]
	in := src.Data()
	win.ForEach(func(c window.Coordinates) {
		base := src.Offset(window.Coordinates{0, 0, c[2], c[3]})
		fn(in[base:base+w*h], c, dst.Offset(c))
	})
}

func poolMxN[T Elem](isMax bool) Func[T] {
	return func(src, dst *tensor.Tensor[T], g Geometry, win window.Window) {
		w, h := src.Shape()[0], src.Shape()[1]
		out := dst.Data()
		forEachPlane(src, dst, win, func(plane []T, c window.Coordinates, at int) {
			out[at] = poolRegion(plane, w, g.region(c[0], c[1], w, h), isMax)
		})
	}
}

// pool2x2 reads the four inputs directly when the region is not clipped.
// The accumulation order matches poolRegion.
func pool2x2[T Elem](isMax bool) Func[T] {
	return func(src, dst *tensor.Tensor[T], g Geometry, win window.Window) {
		w, h := src.Shape()[0], src.Shape()[1]
		out := dst.Data()
		forEachPlane(src, dst, win, func(plane []T, c window.Coordinates, at int) {
			r := g.region(c[0], c[1], w, h)
			if r.x1-r.x0 != 2 || r.y1-r.y0 != 2 {
				out[at] = poolRegion(plane, w, r, isMax)
				return
			}
			i := r.y0*w + r.x0
			p00, p01, p10, p11 := plane[i], plane[i+1], plane[i+w], plane[i+w+1]
			if isMax {
				out[at] = max(max(max(p00, p01), p10), p11)
				return
			}
			out[at] = (0 + p00 + p01 + p10 + p11) / T(r.size)
		})
	}
}
