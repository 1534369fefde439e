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
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-highway-rt/hwy"
)

const opTest Op = "test.op"

var (
	neonCaps = hwy.NewCapabilities("arm64", hwy.FeatureNEON)
	sveCaps  = neonCaps.With(hwy.FeatureSVE)
)

func newSVENeonRegistry() *Registry {
	r := NewRegistry()
	r.Register(opTest, Descriptor{Name: "sve_f32", DataType: hwy.F32, Selectable: Requires(hwy.FeatureSVE)})
	r.Register(opTest, Descriptor{Name: "neon_f32", DataType: hwy.F32})
	return r
}

func TestSelectSpecialisationOrder(t *testing.T) {
	r := newSVENeonRegistry()
	p := Problem{Op: opTest, DataType: hwy.F32}

	d, err := Select(r, neonCaps, p)
	require.NoError(t, err)
	assert.Equal(t, "neon_f32", d.Name)

	d, err = Select(r, sveCaps, p)
	require.NoError(t, err)
	assert.Equal(t, "sve_f32", d.Name)
}

func TestSelectDeterministic(t *testing.T) {
	r := newSVENeonRegistry()
	p := Problem{Op: opTest, DataType: hwy.F32}

	first, err := Select(r, sveCaps, p)
	require.NoError(t, err)
	for range 100 {
		d, err := Select(r, sveCaps, p)
		require.NoError(t, err)
		assert.Same(t, first, d)
	}
}

func TestSelectForceKernel(t *testing.T) {
	r := newSVENeonRegistry()

	p := Problem{Op: opTest, DataType: hwy.F32, Hints: Hints{ForceKernel: "neon_f32"}}
	d, err := Select(r, sveCaps, p)
	require.NoError(t, err)
	assert.Equal(t, "neon_f32", d.Name)

	p.Hints.ForceKernel = "sme_f32"
	_, err = Select(r, sveCaps, p)
	require.ErrorIs(t, err, ErrNoSuchKernel)
	var selErr *SelectionError
	require.ErrorAs(t, err, &selErr)
	assert.Equal(t, "sme_f32", selErr.Kernel)

	// A forced kernel the host cannot run is unsupported, not silently replaced.
	p.Hints.ForceKernel = "sve_f32"
	_, err = Select(r, neonCaps, p)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestSelectUnsupported(t *testing.T) {
	r := newSVENeonRegistry()

	_, err := Select(r, neonCaps, Problem{Op: opTest, DataType: hwy.S8})
	require.ErrorIs(t, err, ErrUnsupported)

	r.Register(opTest, Descriptor{Name: "sme_s8", DataType: hwy.S8, Selectable: Requires(hwy.FeatureSME)})
	_, err = Select(r, sveCaps, Problem{Op: opTest, DataType: hwy.S8})
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), "test.op/s8")
}

func TestSelectProblemPredicate(t *testing.T) {
	r := NewRegistry()
	r.Register(opTest, Descriptor{
		Name:     "pool2x2",
		DataType: hwy.F32,
		Selectable: func(_ hwy.Capabilities, p Problem) bool {
			return p.Attr("pool", 0) == 2
		},
	})
	r.Register(opTest, Descriptor{Name: "poolMxN", DataType: hwy.F32})

	d, err := Select(r, neonCaps, Problem{Op: opTest, DataType: hwy.F32, Attrs: map[string]int{"pool": 2}})
	require.NoError(t, err)
	assert.Equal(t, "pool2x2", d.Name)

	d, err = Select(r, neonCaps, Problem{Op: opTest, DataType: hwy.F32, Attrs: map[string]int{"pool": 3}})
	require.NoError(t, err)
	assert.Equal(t, "poolMxN", d.Name)
}

func TestSelectCostOnlyWithinRank(t *testing.T) {
	constCost := func(c uint64) func(Problem) uint64 {
		return func(Problem) uint64 { return c }
	}
	r := NewRegistry()
	// An expensive descriptor registered alone outranks cheaper later ones.
	r.Register(opTest, Descriptor{Name: "first", DataType: hwy.F32, Cost: constCost(100), Selectable: Requires(hwy.FeatureSVE)})
	r.RegisterGroup(opTest,
		Descriptor{Name: "grouped_a", DataType: hwy.F32, Cost: constCost(50)},
		Descriptor{Name: "grouped_b", DataType: hwy.F32, Cost: constCost(10)},
		Descriptor{Name: "grouped_c", DataType: hwy.F32, Cost: constCost(10)},
	)
	p := Problem{Op: opTest, DataType: hwy.F32}

	d, err := Select(r, sveCaps, p)
	require.NoError(t, err)
	assert.Equal(t, "first", d.Name)

	d, err = Select(r, neonCaps, p)
	require.NoError(t, err)
	assert.Equal(t, "grouped_b", d.Name, "lowest cost wins inside a rank, earliest on equal cost")
}

func TestSelectPreferLowMemory(t *testing.T) {
	r := NewRegistry()
	r.RegisterGroup(opTest,
		Descriptor{Name: "workspace", DataType: hwy.F32},
		Descriptor{Name: "inplace", DataType: hwy.F32, LowMemory: true},
	)
	p := Problem{Op: opTest, DataType: hwy.F32}

	d, err := Select(r, neonCaps, p)
	require.NoError(t, err)
	assert.Equal(t, "workspace", d.Name)

	p.Hints.PreferLowMemory = true
	d, err = Select(r, neonCaps, p)
	require.NoError(t, err)
	assert.Equal(t, "inplace", d.Name)
}

// Stronger capabilities may only move the choice to an earlier, more
// specialised registration, never to a later one.
func TestSelectCapabilityMonotonic(t *testing.T) {
	features := hwy.AllFeatures()
	rng := rand.New(rand.NewPCG(1, 2))
	randomSet := func() hwy.Feature {
		var f hwy.Feature
		for _, bit := range features {
			if rng.IntN(4) == 0 {
				f |= bit
			}
		}
		return f
	}

	for trial := range 200 {
		r := NewRegistry()
		for i := range 6 {
			r.Register(opTest, Descriptor{
				Name:       fmt.Sprintf("k%d", i),
				DataType:   hwy.F32,
				Selectable: Requires(randomSet()),
			})
		}
		r.Register(opTest, Descriptor{Name: "fallback", DataType: hwy.F32})

		weak := hwy.NewCapabilities("arm64", randomSet())
		strong := weak.With(randomSet())
		require.True(t, strong.Subsumes(weak))

		p := Problem{Op: opTest, DataType: hwy.F32}
		dw, err := Select(r, weak, p)
		require.NoError(t, err)
		ds, err := Select(r, strong, p)
		require.NoError(t, err)

		names := r.Names(opTest, hwy.F32)
		iw := indexOf(names, dw.Name)
		is := indexOf(names, ds.Name)
		assert.LessOrEqual(t, is, iw, "trial %d: strong %v picked %s after weak %v picked %s",
			trial, strong, ds.Name, weak, dw.Name)
	}
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestSelectConcurrentWithRegister(t *testing.T) {
	r := newSVENeonRegistry()
	p := Problem{Op: opTest, DataType: hwy.F32}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 100 {
			r.Register(Op(fmt.Sprintf("other.%d", i)), Descriptor{Name: "x", DataType: hwy.F32})
		}
	}()
	go func() {
		defer wg.Done()
		for range 1000 {
			d, err := Select(r, neonCaps, p)
			if err != nil || d.Name != "neon_f32" {
				t.Errorf("Select = %v, %v during concurrent registration", d, err)
				return
			}
		}
	}()
	wg.Wait()
	assert.Len(t, r.Ops(), 101)
}

func TestSelectDefault(t *testing.T) {
	op := Op("test.default")
	Register(op, Descriptor{Name: "only", DataType: hwy.F64})
	d, err := SelectDefault(Problem{Op: op, DataType: hwy.F64})
	require.NoError(t, err)
	assert.Equal(t, "only", d.Name)
	assert.Len(t, Candidates(op, hwy.F64), 1)
}
