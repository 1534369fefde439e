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

// Package window describes multi-dimensional iteration spaces.
//
// A Window is a fixed-capacity list of MaxDimensions dimensions, each a
// half-open range [Start, End) walked with Step. Dimension 0 (DimX) is the
// innermost, fastest-moving index; higher dimensions are further out.
// Dimensions that were not specified are [0, 1) with step 1, so they
// contribute exactly one iteration.
//
// Windows are plain values: copying one copies every dimension. Sub-windows
// are derived only by narrowing the range of a single dimension (Narrow,
// Split), never by changing steps or adding dimensions.
//
// Usage:
//
//	w := window.MustNew(window.Dim(0, 128), window.Dim(0, 64))
//	left := w.Split(window.DimY, 0, 2)   // rows [0, 32)
//	right := w.Split(window.DimY, 1, 2)  // rows [32, 64)
package window

import (
	"errors"
	"fmt"
	"strings"
)

// MaxDimensions is the number of dimensions every Window carries.
const MaxDimensions = 6

// Dimension indices, innermost first.
const (
	DimX = iota
	DimY
	DimZ
	DimW
	DimV
	DimU
)

var (
	// ErrOutOfRange is returned when a narrowed range is not contained in the
	// original one.
	ErrOutOfRange = errors.New("window: range out of bounds")

	// ErrInvalidDimension is returned for a dimension with End < Start or Step < 1.
	ErrInvalidDimension = errors.New("window: invalid dimension")

	// ErrTooManyDimensions is returned when more than MaxDimensions are given.
	ErrTooManyDimensions = errors.New("window: too many dimensions")

	// ErrBadIndex is returned for a dimension index outside [0, MaxDimensions).
	ErrBadIndex = errors.New("window: dimension index out of range")
)

// Dimension is one axis of a Window: the half-open range [Start, End) walked
// with Step.
type Dimension struct {
	Start int
	End   int
	Step  int
}

// Dim returns the dimension [start, end) with step 1.
func Dim(start, end int) Dimension {
	return Dimension{Start: start, End: end, Step: 1}
}

// DimStep returns the dimension [start, end) with the given step.
func DimStep(start, end, step int) Dimension {
	return Dimension{Start: start, End: end, Step: step}
}

// unit is the value of every unspecified dimension.
var unit = Dimension{Start: 0, End: 1, Step: 1}

// NumIterations returns ceil((End-Start)/Step), 0 for an empty dimension.
func (d Dimension) NumIterations() int {
	if d.End <= d.Start || d.Step <= 0 {
		return 0
	}
	return (d.End - d.Start + d.Step - 1) / d.Step
}

func (d Dimension) validate() error {
	if d.Step < 1 {
		return fmt.Errorf("%w: step %d < 1", ErrInvalidDimension, d.Step)
	}
	if d.End < d.Start {
		return fmt.Errorf("%w: end %d < start %d", ErrInvalidDimension, d.End, d.Start)
	}
	return nil
}

func (d Dimension) String() string {
	return fmt.Sprintf("%d:%d:%d", d.Start, d.End, d.Step)
}

// Coordinates addresses one point of a Window, innermost dimension first.
type Coordinates [MaxDimensions]int

// Window is a multi-dimensional rectangular iteration space.
//
// The zero Window is not valid; build one with New, MustNew or FromShape.
// Windows are comparable with ==.
type Window struct {
	dims [MaxDimensions]Dimension
	n    int // number of explicitly specified dimensions
}

// New builds a Window from explicit dimensions, innermost first.
func New(dims ...Dimension) (Window, error) {
	var w Window
	if len(dims) > MaxDimensions {
		return w, fmt.Errorf("%w: %d > %d", ErrTooManyDimensions, len(dims), MaxDimensions)
	}
	for i := range w.dims {
		w.dims[i] = unit
	}
	for i, d := range dims {
		if err := d.validate(); err != nil {
			return Window{}, fmt.Errorf("dimension %d: %w", i, err)
		}
		w.dims[i] = d
	}
	w.n = len(dims)
	return w, nil
}

// MustNew is like New but panics on invalid input.
func MustNew(dims ...Dimension) Window {
	w, err := New(dims...)
	if err != nil {
		panic(err)
	}
	return w
}

// FromShape builds the Window covering a tensor of the given shape,
// innermost extent first, with unit steps.
func FromShape(shape ...int) (Window, error) {
	dims := make([]Dimension, len(shape))
	for i, s := range shape {
		dims[i] = Dim(0, s)
	}
	return New(dims...)
}

// NumDimensions returns the number of explicitly specified dimensions.
func (w Window) NumDimensions() int {
	return w.n
}

// Dim returns dimension d. It panics if d is outside [0, MaxDimensions).
func (w Window) Dim(d int) Dimension {
	return w.dims[d]
}

// NumIterations returns the number of iterations along dimension d.
func (w Window) NumIterations(d int) int {
	return w.dims[d].NumIterations()
}

// TotalIterations returns the number of points in the window, 0 when any
// dimension is empty.
func (w Window) TotalIterations() int {
	total := 1
	for _, d := range w.dims {
		total *= d.NumIterations()
	}
	return total
}

// IsEmpty reports whether the window yields no work.
func (w Window) IsEmpty() bool {
	return w.TotalIterations() == 0
}

// Shape returns the iteration count of each specified dimension.
func (w Window) Shape() []int {
	shape := make([]int, w.n)
	for i := range shape {
		shape[i] = w.dims[i].NumIterations()
	}
	return shape
}

// Validate checks every dimension's invariants.
func (w Window) Validate() error {
	for i, d := range w.dims {
		if err := d.validate(); err != nil {
			return fmt.Errorf("dimension %d: %w", i, err)
		}
	}
	return nil
}

// Narrow returns a copy of w with dimension d restricted to [start, end).
// It requires Start <= start <= end <= End.
func (w Window) Narrow(d, start, end int) (Window, error) {
	if d < 0 || d >= MaxDimensions {
		return w, fmt.Errorf("%w: %d", ErrBadIndex, d)
	}
	cur := w.dims[d]
	if start < cur.Start || start > end || end > cur.End {
		return w, fmt.Errorf("%w: [%d,%d) not within [%d,%d) of dimension %d",
			ErrOutOfRange, start, end, cur.Start, cur.End, d)
	}
	w.dims[d] = Dimension{Start: start, End: end, Step: cur.Step}
	if d >= w.n {
		w.n = d + 1
	}
	return w, nil
}

// Split returns partition id of total along dimension d.
//
// The iterations of d are divided into total contiguous ranges whose sizes
// differ by at most one; the first (iterations % total) partitions get the
// extra iteration. Partitions past the number of iterations are empty.
// Split panics if d is out of range, total < 1 or id is not in [0, total).
func (w Window) Split(d, id, total int) Window {
	if d < 0 || d >= MaxDimensions {
		panic("window: split dimension out of range")
	}
	if total < 1 || id < 0 || id >= total {
		panic("window: split id out of range")
	}
	cur := w.dims[d]
	numIt := cur.NumIterations()
	work := numIt / total
	rem := numIt % total
	itStart := work * id
	if id < rem {
		work++
		itStart += id
	} else {
		itStart += rem
	}
	start := min(cur.Start+itStart*cur.Step, cur.End)
	end := min(cur.End, start+work*cur.Step)
	w.dims[d] = Dimension{Start: start, End: end, Step: cur.Step}
	return w
}

// Collapse merges dimensions from..MaxDimensions-1 into dimension from, so
// that a dense multi-dimensional loop can be walked as a single range.
//
// Merging is legal when dimension from starts at 0 and its extent is a
// multiple of its step, and every outer dimension is dense: starts at 0 with
// step 1. The merged dimension keeps from's step and has End equal to the
// product of the merged extents; the outer dimensions become [0, 1). When the
// window is not collapsible, or there is nothing above from to merge, Collapse
// returns w unchanged and false.
//
// Collapse never changes TotalIterations.
func (w Window) Collapse(from int) (Window, bool) {
	if from < 0 || from >= MaxDimensions-1 {
		return w, false
	}
	first := w.dims[from]
	if first.Start != 0 || first.End%first.Step != 0 {
		return w, false
	}
	end := first.End
	merged := false
	for d := from + 1; d < MaxDimensions; d++ {
		dim := w.dims[d]
		if dim.Start != 0 || dim.Step != 1 {
			return w, false
		}
		if dim.End != 1 {
			merged = true
		}
		end *= dim.End
	}
	if !merged {
		return w, false
	}
	out := w
	out.dims[from].End = end
	for d := from + 1; d < MaxDimensions; d++ {
		out.dims[d] = unit
	}
	out.n = from + 1
	return out, true
}

// Contains reports whether every dimension of o lies within the matching
// dimension of w with the same step.
func (w Window) Contains(o Window) bool {
	for i, d := range w.dims {
		od := o.dims[i]
		if od.Step != d.Step || od.Start < d.Start || od.End > d.End {
			return false
		}
	}
	return true
}

// ForEach calls fn for every point of the window, innermost dimension
// fastest.
func (w Window) ForEach(fn func(c Coordinates)) {
	if w.IsEmpty() {
		return
	}
	var c Coordinates
	for i, d := range w.dims {
		c[i] = d.Start
	}
	for {
		fn(c)
		// Odometer increment.
		d := 0
		for ; d < MaxDimensions; d++ {
			c[d] += w.dims[d].Step
			if c[d] < w.dims[d].End {
				break
			}
			c[d] = w.dims[d].Start
		}
		if d == MaxDimensions {
			return
		}
	}
}

// ForEachRow calls fn once per point of the outer dimensions, with c[DimX]
// set to the start of the X range. Kernels use it to process contiguous
// X spans in their inner loop.
func (w Window) ForEachRow(fn func(c Coordinates)) {
	if w.IsEmpty() {
		return
	}
	outer := w
	outer.dims[DimX] = Dimension{Start: w.dims[DimX].Start, End: w.dims[DimX].Start + 1, Step: 1}
	outer.ForEach(fn)
}

func (w Window) String() string {
	n := max(w.n, 1)
	parts := make([]string, n)
	for i := range n {
		parts[i] = w.dims[i].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
