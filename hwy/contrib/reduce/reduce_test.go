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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/operator"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/scheduler"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/tensor"
)

func newRuntime(t *testing.T, threads int, caps hwy.Capabilities) *operator.Runtime {
	reg := kernel.NewRegistry()
	Register(reg)
	s := scheduler.New(threads, scheduler.WithCapabilities(caps))
	t.Cleanup(s.Close)
	return &operator.Runtime{Registry: reg, Scheduler: s}
}

func TestSumRowsInt(t *testing.T) {
	src, err := tensor.FromSlice([]int32{
		1, 2, 3,
		4, 5, 6,
		-1, -1, -1,
		7, 0, 0,
	}, 3, 2, 2)
	require.NoError(t, err)
	dst := tensor.New[int32](RowsShape(src.Shape())...)

	name, err := SumRows(newRuntime(t, 4, hwy.Scalar()), src, dst)
	require.NoError(t, err)
	assert.Equal(t, "sum_rows_s32", name)
	assert.Equal(t, kernel.Shape{1, 2, 2}, dst.Shape())
	assert.Equal(t, []int32{6, 15, -3, 7}, dst.Data())
}

func TestVariantSelection(t *testing.T) {
	neon := hwy.NewCapabilities("arm64", hwy.FeatureNEON)
	src := tensor.New[float32](8, 2)
	dst := tensor.New[float32](1, 2)

	name, err := SumRows(newRuntime(t, 1, neon), src, dst)
	require.NoError(t, err)
	assert.Equal(t, "sum_rows_neon_f32", name)

	name, err = SumRows(newRuntime(t, 1, neon.With(hwy.FeatureSVE)), src, dst)
	require.NoError(t, err)
	assert.Equal(t, "sum_rows_sve_f32", name)
}

func TestLaneSumMatchesOnExactInputs(t *testing.T) {
	row := make([]float64, 37)
	for i := range row {
		row[i] = float64(i % 5)
	}
	want := sequentialSum(row)
	for _, lanes := range []int{1, 2, 4, 8, 16, 32} {
		assert.Equal(t, want, laneSum[float64](lanes)(row), "lanes %d", lanes)
	}
	assert.Equal(t, 0.0, laneSum[float64](4)(nil))
}

func TestThreadCountInvariance(t *testing.T) {
	src := tensor.New[float32](257, 31, 3)
	for i := range src.Data() {
		src.Data()[i] = float32(math.Sin(float64(i)) * 1e4)
	}
	caps := hwy.NewCapabilities("arm64", hwy.FeatureNEON|hwy.FeatureSVE)

	var want []float32
	var wantAll float32
	for _, threads := range []int{1, 2, 4, 8} {
		rt := newRuntime(t, threads, caps)
		dst := tensor.New[float32](RowsShape(src.Shape())...)
		_, err := SumRows(rt, src, dst)
		require.NoError(t, err)
		all, err := SumAll(rt, src)
		require.NoError(t, err)

		if want == nil {
			want, wantAll = dst.Data(), all
			continue
		}
		for i := range want {
			require.Equal(t, math.Float32bits(want[i]), math.Float32bits(dst.Data()[i]), "threads %d row %d", threads, i)
		}
		require.Equal(t, math.Float32bits(wantAll), math.Float32bits(all), "threads %d", threads)
	}
}

func TestSumAll(t *testing.T) {
	src := tensor.New[int32](10, 10, 10)
	src.Fill(3)
	total, err := SumAll(newRuntime(t, 4, hwy.GetCapabilities()), src)
	require.NoError(t, err)
	assert.Equal(t, int32(3000), total)

	total, err = SumAll(nil, src)
	require.NoError(t, err)
	assert.Equal(t, int32(3000), total)
}

func TestValidate(t *testing.T) {
	rt := newRuntime(t, 2, hwy.Scalar())
	_, err := SumRows(rt, tensor.New[float64](4, 3), tensor.New[float64](1, 4))
	require.ErrorIs(t, err, kernel.ErrShapeMismatch)

	_, err = SumRows(rt, tensor.New[float64](), tensor.New[float64](1))
	require.ErrorIs(t, err, kernel.ErrShapeMismatch)
}

func TestRowsShape(t *testing.T) {
	assert.Equal(t, kernel.Shape{1, 4, 2}, RowsShape(kernel.Shape{9, 4, 2}))
	assert.Equal(t, kernel.Shape{1}, RowsShape(kernel.Shape{}))
}
