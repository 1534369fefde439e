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

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
)

func ranges(parts []window.Window, d int) [][2]int {
	out := make([][2]int, len(parts))
	for i, p := range parts {
		out[i] = [2]int{p.Dim(d).Start, p.Dim(d).End}
	}
	return out
}

func TestPartitionExamples(t *testing.T) {
	tests := []struct {
		end  int
		want [][2]int
	}{
		{100, [][2]int{{0, 25}, {25, 50}, {50, 75}, {75, 100}}},
		{101, [][2]int{{0, 26}, {26, 51}, {51, 76}, {76, 101}}},
		{3, [][2]int{{0, 1}, {1, 2}, {2, 3}}},
	}
	for _, tt := range tests {
		win := window.MustNew(window.Dim(0, tt.end))
		dim, parts := Partition(win, 4, Hints{})
		if dim != window.DimX {
			t.Errorf("[0,%d): split dim = %d, want %d", tt.end, dim, window.DimX)
		}
		if diff := cmp.Diff(tt.want, ranges(parts, window.DimX)); diff != "" {
			t.Errorf("[0,%d) with 4 threads (-want +got):\n%s", tt.end, diff)
		}
	}
}

func TestPartitionDimensionChoice(t *testing.T) {
	tests := []struct {
		name    string
		win     window.Window
		threads int
		hints   Hints
		wantDim int
		wantN   int
	}{
		{"outermost large enough", window.MustNew(window.Dim(0, 64), window.Dim(0, 8)), 4, Hints{}, window.DimY, 4},
		{"outer too small", window.MustNew(window.Dim(0, 64), window.Dim(0, 3)), 4, Hints{}, window.DimX, 4},
		{"only small dims", window.MustNew(window.Dim(0, 2), window.Dim(0, 3)), 4, Hints{}, window.DimY, 3},
		{"single point", window.MustNew(window.Dim(0, 1), window.Dim(0, 1)), 4, Hints{}, -1, 1},
		{"one thread", window.MustNew(window.Dim(0, 64)), 1, Hints{}, -1, 1},
		{"forced", window.MustNew(window.Dim(0, 64), window.Dim(0, 8)), 4, Hints{Split: SplitAlong(window.DimX)}, window.DimX, 4},
		{"forced unit dim", window.MustNew(window.Dim(0, 64)), 4, Hints{Split: SplitAlong(window.DimZ)}, -1, 1},
		{"strided", window.MustNew(window.DimStep(0, 10, 4)), 8, Hints{}, window.DimX, 3},
		{"dynamic threshold", window.MustNew(window.Dim(0, 64)), 2, Hints{Strategy: Dynamic, Threshold: 16}, window.DimX, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dim, parts := Partition(tt.win, tt.threads, tt.hints)
			if dim != tt.wantDim || len(parts) != tt.wantN {
				t.Errorf("Partition = dim %d, %d parts; want dim %d, %d parts", dim, len(parts), tt.wantDim, tt.wantN)
			}
		})
	}
}

func TestPartitionEmpty(t *testing.T) {
	win := window.MustNew(window.Dim(0, 10), window.Dim(5, 5))
	if dim, parts := Partition(win, 4, Hints{}); dim != -1 || parts != nil {
		t.Errorf("Partition(empty) = %d, %v; want -1, nil", dim, parts)
	}
}

func TestPartitionFairnessAndCoverage(t *testing.T) {
	shapes := [][]window.Dimension{
		{window.Dim(0, 1)},
		{window.Dim(0, 7)},
		{window.Dim(3, 100)},
		{window.DimStep(1, 50, 3)},
		{window.Dim(0, 5), window.Dim(0, 13)},
		{window.Dim(0, 4), window.Dim(2, 9), window.Dim(0, 3)},
		{window.DimStep(0, 16, 4), window.Dim(0, 2), window.Dim(0, 2), window.Dim(1, 4)},
	}
	for _, dims := range shapes {
		win := window.MustNew(dims...)
		for _, threads := range []int{1, 2, 3, 4, 8, 33} {
			for _, st := range []Strategy{Static, Dynamic} {
				name := fmt.Sprintf("%v/%d/%v", win, threads, st)
				dim, parts := Partition(win, threads, Hints{Strategy: st, Threshold: 2 * threads})

				minSize, maxSize := win.TotalIterations(), 0
				seen := make(map[window.Coordinates]int)
				for _, p := range parts {
					if !win.Contains(p) {
						t.Fatalf("%s: partition %v not inside window", name, p)
					}
					if dim >= 0 {
						minSize = min(minSize, p.NumIterations(dim))
						maxSize = max(maxSize, p.NumIterations(dim))
					}
					p.ForEach(func(c window.Coordinates) { seen[c]++ })
				}
				if dim >= 0 && maxSize-minSize > 1 {
					t.Errorf("%s: partition sizes range over [%d, %d]", name, minSize, maxSize)
				}
				if len(seen) != win.TotalIterations() {
					t.Errorf("%s: covered %d points, want %d", name, len(seen), win.TotalIterations())
				}
				for c, n := range seen {
					if n != 1 {
						t.Errorf("%s: point %v visited %d times", name, c, n)
					}
				}
			}
		}
	}
}

func TestSplitAlongPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("SplitAlong(MaxDimensions) did not panic")
		}
	}()
	SplitAlong(window.MaxDimensions)
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"static": Static, "Dynamic": Dynamic, "": StrategyDefault} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseStrategy("guided"); err == nil {
		t.Error("ParseStrategy(guided) succeeded")
	}
}
