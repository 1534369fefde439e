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

package elementwise

import (
	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
)

// Vector register sizes in bytes used to pick the unroll factor.
const (
	sveBytes  = 32
	avx2Bytes = 32
	neonBytes = 16
)

func init() {
	Register(kernel.Default)
}

// Register adds every elementwise kernel to reg.
func Register(reg *kernel.Registry) {
	registerAll[float32](reg)
	registerAll[float64](reg)
	registerAll[int32](reg)
}

func registerAll[T Elem](reg *kernel.Registry) {
	registerOp(reg, OpAdd, "add", func(x, y T) T { return x + y })
	registerOp(reg, OpSub, "sub", func(x, y T) T { return x - y })
	registerOp(reg, OpMul, "mul", func(x, y T) T { return x * y })
	registerOp(reg, OpMax, "max", func(x, y T) T { return max(x, y) })
	registerOp(reg, OpMin, "min", func(x, y T) T { return min(x, y) })
}

func registerOp[T Elem](reg *kernel.Registry, op kernel.Op, name string, f func(x, y T) T) {
	dt := hwy.DataTypeOf[T]()
	lanes := func(bytes int) int { return bytes / dt.Size() }

	reg.Register(op, kernel.Descriptor{
		Name:       name + "_sve_" + dt.String(),
		DataType:   dt,
		Selectable: kernel.Requires(hwy.FeatureSVE),
		Entry:      unrolled(f, lanes(sveBytes)),
	})
	reg.Register(op, kernel.Descriptor{
		Name:       name + "_avx2_" + dt.String(),
		DataType:   dt,
		Selectable: kernel.Requires(hwy.FeatureAVX2),
		Entry:      unrolled(f, lanes(avx2Bytes)),
	})
	reg.Register(op, kernel.Descriptor{
		Name:       name + "_neon_" + dt.String(),
		DataType:   dt,
		Selectable: kernel.Requires(hwy.FeatureNEON),
		Entry:      unrolled(f, lanes(neonBytes)),
	})
	reg.Register(op, kernel.Descriptor{
		Name:     name + "_" + dt.String(),
		DataType: dt,
		Entry:    scalar(f),
	})
}

func unrolled[T Elem](f func(x, y T) T, lanes int) Row[T] {
	return func(a, b, out []T) {
		n := len(out)
		a, b = a[:n], b[:n]
		i := 0
		for ; i+lanes <= n; i += lanes {
			for j := i; j < i+lanes; j++ {
				out[j] = f(a[j], b[j])
			}
		}
		for ; i < n; i++ {
			out[i] = f(a[i], b[i])
		}
	}
}

func scalar[T Elem](f func(x, y T) T) Row[T] {
	return func(a, b, out []T) {
		for i := range out {
			out[i] = f(a[i], b[i])
		}
	}
}
