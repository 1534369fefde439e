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

package reduce

import (
	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
)

const maxLanes = 16

func init() {
	Register(kernel.Default)
}

// Register adds the reduction kernels to reg.
func Register(reg *kernel.Registry) {
	registerAll[float32](reg)
	registerAll[float64](reg)
	registerAll[int32](reg)
}

func registerAll[T Elem](reg *kernel.Registry) {
	dt := hwy.DataTypeOf[T]()
	reg.Register(OpSumRows, kernel.Descriptor{
		Name:       "sum_rows_sve_" + dt.String(),
		DataType:   dt,
		Selectable: kernel.Requires(hwy.FeatureSVE),
		Entry:      laneSum[T](32 / dt.Size()),
	})
	reg.Register(OpSumRows, kernel.Descriptor{
		Name:       "sum_rows_avx2_" + dt.String(),
		DataType:   dt,
		Selectable: kernel.Requires(hwy.FeatureAVX2),
		Entry:      laneSum[T](32 / dt.Size()),
	})
	reg.Register(OpSumRows, kernel.Descriptor{
		Name:       "sum_rows_neon_" + dt.String(),
		DataType:   dt,
		Selectable: kernel.Requires(hwy.FeatureNEON),
		Entry:      laneSum[T](16 / dt.Size()),
	})
	reg.Register(OpSumRows, kernel.Descriptor{
		Name:     "sum_rows_" + dt.String(),
		DataType: dt,
		Entry:    RowFunc[T](sequentialSum[T]),
	})
}

// laneSum keeps one accumulator per lane and folds them in lane order.
func laneSum[T Elem](lanes int) RowFunc[T] {
	lanes = min(lanes, maxLanes)
	return func(row []T) T {
		var acc [maxLanes]T
		i := 0
		for ; i+lanes <= len(row); i += lanes {
			for j := range lanes {
				acc[j] += row[i+j]
			}
		}
		var s T
		for _, v := range acc[:lanes] {
			s += v
		}
		for ; i < len(row); i++ {
			s += row[i]
		}
		return s
	}
}

func sequentialSum[T Elem](row []T) T {
	var s T
	for _, v := range row {
		s += v
	}
	return s
}
