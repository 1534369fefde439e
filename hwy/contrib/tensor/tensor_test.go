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

package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
)

func TestFromSliceLayout(t *testing.T) {
	// Width 3, height 2.
	x, err := FromSlice([]float32{0, 1, 2, 10, 11, 12}, 3, 2)
	require.NoError(t, err)

	assert.Equal(t, kernel.Shape{3, 2}, x.Shape())
	assert.Equal(t, []int{1, 3}, x.Strides())
	assert.Equal(t, float32(12), x.At(2, 1))
	assert.Equal(t, float32(1), x.At(1, 0))
	assert.Equal(t, 4, x.Offset(window.Coordinates{1, 1}))

	x.Set(-1, 0, 1)
	assert.Equal(t, float32(-1), x.Data()[3])
}

func TestFromSliceErrors(t *testing.T) {
	_, err := FromSlice([]int32{1, 2, 3}, 2, 2)
	require.ErrorIs(t, err, ErrShape)

	_, err = FromSlice([]int32{}, -1)
	require.ErrorIs(t, err, ErrShape)

	_, err = FromSlice(make([]int32, 1), 1, 1, 1, 1, 1, 1, 1)
	require.ErrorIs(t, err, ErrShape)
}

func TestInfo(t *testing.T) {
	assert.Equal(t, kernel.TensorInfo{Shape: kernel.Shape{4, 2}, DataType: hwy.F64}, New[float64](4, 2).Info())
	assert.Equal(t, hwy.S32, New[int32](1).Info().DataType)
	assert.Equal(t, hwy.U8, New[uint8](1).Info().DataType)
}

func TestWindow(t *testing.T) {
	x := New[float32](5, 4, 3)
	assert.Equal(t, window.MustNew(window.Dim(0, 5), window.Dim(0, 4), window.Dim(0, 3)), x.Window())
	assert.Equal(t, x.Len(), x.Window().TotalIterations())
}

func TestAtPanics(t *testing.T) {
	x := New[float32](2, 2)
	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })
}

func TestCloneIsDeep(t *testing.T) {
	x := New[int32](3)
	x.Fill(7)
	c := x.Clone()
	c.Set(1, 0)
	assert.Equal(t, int32(7), x.At(0))
	assert.Equal(t, []int32{1, 7, 7}, c.Data())
	assert.Equal(t, "Tensor[s32](3)", x.String())
}
