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

package kernel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
)

type fakeTensor TensorInfo

func (f fakeTensor) Info() TensorInfo { return TensorInfo(f) }

// addKernel is a minimal binary kernel that records how it was driven.
type addKernel struct {
	Base
	configureCalls int
	ran            []window.Window
}

func (k *addKernel) Validate(p Problem) error {
	if len(p.Operands) != 3 {
		return fmt.Errorf("%w: want 3 operands, got %d", ErrInvalidArgument, len(p.Operands))
	}
	a, b, out := p.Operands[0], p.Operands[1], p.Operands[2]
	if !a.Shape.Equal(b.Shape) || !a.Shape.Equal(out.Shape) {
		return fmt.Errorf("%w: %v + %v -> %v", ErrShapeMismatch, a.Shape, b.Shape, out.Shape)
	}
	if a.DataType != hwy.F32 {
		return fmt.Errorf("%w: %v", ErrUnsupportedDataType, a.DataType)
	}
	return nil
}

func (k *addKernel) Configure(operands []Tensor, p Problem) error {
	k.configureCalls++
	if err := k.CheckConfigure(); err != nil {
		return err
	}
	win, err := window.FromShape(operands[0].Info().Shape...)
	if err != nil {
		return err
	}
	return k.SetConfigured(win, Border{})
}

func (k *addKernel) Run(win window.Window, _ ThreadInfo) error {
	if err := k.CheckRun(win); err != nil {
		return err
	}
	k.ran = append(k.ran, win)
	return nil
}

func shapeWindow(t *testing.T, shape ...int) window.Window {
	t.Helper()
	w, err := window.FromShape(shape...)
	require.NoError(t, err)
	return w
}

func f32(shape ...int) Tensor {
	return fakeTensor{Shape: shape, DataType: hwy.F32}
}

func TestPrepareRejectsShapeMismatch(t *testing.T) {
	k := &addKernel{Base: NewBase("add_f32")}
	operands := []Tensor{f32(4, 3), f32(4, 2), f32(4, 3)}

	err := Prepare(k, operands, ProblemOf("add", nil, operands...))
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Zero(t, k.configureCalls, "Configure must not run after a failed Validate")
	assert.False(t, k.IsConfigured())
}

func TestPrepareRejectsDataType(t *testing.T) {
	k := &addKernel{Base: NewBase("add_f32")}
	s8 := fakeTensor{Shape: Shape{8}, DataType: hwy.S8}
	operands := []Tensor{s8, s8, s8}

	err := Prepare(k, operands, ProblemOf("add", nil, operands...))
	require.ErrorIs(t, err, ErrUnsupportedDataType)
}

func TestConfigureOnce(t *testing.T) {
	k := &addKernel{Base: NewBase("add_f32")}
	operands := []Tensor{f32(4, 3), f32(4, 3), f32(4, 3)}
	p := ProblemOf("add", nil, operands...)

	require.NoError(t, Prepare(k, operands, p))
	assert.True(t, k.IsConfigured())
	assert.Equal(t, shapeWindow(t, 4, 3), k.Window())
	assert.True(t, k.Border().IsEmpty())

	err := k.Configure(operands, p)
	require.ErrorIs(t, err, ErrAlreadyConfigured)
	assert.Equal(t, shapeWindow(t, 4, 3), k.Window(), "failed reconfigure must not change the window")
}

func TestRunRequiresConfigure(t *testing.T) {
	k := &addKernel{Base: NewBase("add_f32")}
	err := k.Run(shapeWindow(t, 4), ThreadInfo{Total: 1})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, k.ran)
}

func TestRunSubWindows(t *testing.T) {
	k := &addKernel{Base: NewBase("add_f32")}
	operands := []Tensor{f32(10), f32(10), f32(10)}
	require.NoError(t, Prepare(k, operands, ProblemOf("add", nil, operands...)))

	for id := range 3 {
		require.NoError(t, k.Run(k.Window().Split(window.DimX, id, 3), ThreadInfo{Index: id, Total: 3}))
	}
	require.Len(t, k.ran, 3)

	err := k.Run(shapeWindow(t, 11), ThreadInfo{Total: 1})
	require.ErrorIs(t, err, window.ErrOutOfRange)
}

func TestProblemOf(t *testing.T) {
	p := ProblemOf("pool", map[string]int{"pool_w": 2}, f32(8, 8, 3), f32(4, 4, 3))
	assert.Equal(t, hwy.F32, p.DataType)
	assert.Equal(t, Op("pool"), p.Op)
	require.Len(t, p.Operands, 2)
	assert.Equal(t, Shape{4, 4, 3}, p.Operands[1].Shape)
	assert.Equal(t, 2, p.Attr("pool_w", 1))

	assert.Equal(t, hwy.DataTypeUnknown, ProblemOf("noop", nil).DataType)
}

func TestBorder(t *testing.T) {
	assert.Equal(t, Border{1, 1, 1, 1}, Uniform(1))
	assert.False(t, Uniform(1).IsEmpty())
	assert.True(t, Border{}.IsEmpty())
}
