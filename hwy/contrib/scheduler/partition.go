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

package scheduler

import "github.com/ajroetker/go-highway-rt/hwy/contrib/window"

// Partition returns the sub-windows a call with the given thread count and
// hints would run, and the dimension they were split along (-1 when the
// window is not split). An empty window yields no partitions.
//
// The partitions are contiguous along the split dimension, cover the window
// exactly, and differ in size by at most one iteration.
func Partition(win window.Window, numThreads int, hints Hints) (int, []window.Window) {
	if win.IsEmpty() {
		return -1, nil
	}
	n := max(numThreads, 1)
	if hints.Strategy == Dynamic && hints.Threshold > 0 {
		n = hints.Threshold
	}
	if n == 1 || win.TotalIterations() == 1 {
		return -1, []window.Window{win}
	}

	dim := hints.Split.Dim()
	if hints.Split.IsAuto() {
		dim = splitDimension(win, n)
	}
	if dim < 0 {
		return -1, []window.Window{win}
	}

	count := min(n, win.NumIterations(dim))
	if count <= 1 {
		return -1, []window.Window{win}
	}
	parts := make([]window.Window, count)
	for i := range parts {
		parts[i] = win.Split(dim, i, count)
	}
	return dim, parts
}

// splitDimension picks the outermost dimension with at least n iterations,
// else the outermost one with more than one, else -1.
func splitDimension(win window.Window, n int) int {
	fallback := -1
	for d := window.MaxDimensions - 1; d >= 0; d-- {
		it := win.NumIterations(d)
		if it >= n {
			return d
		}
		if it > 1 && fallback < 0 {
			fallback = d
		}
	}
	return fallback
}
