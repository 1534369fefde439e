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

package commands

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-highway-rt/hwy/contrib/elementwise"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/operator"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/pool2d"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/reduce"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/tensor"
)

var errMismatch = errors.New("results differ between thread counts")

// check runs one operator and returns the kernel used and its output.
type check struct {
	name string
	run  func(rt *operator.Runtime) (string, []float32, error)
}

func sine(shape ...int) *tensor.Tensor[float32] {
	x := tensor.New[float32](shape...)
	for i := range x.Data() {
		x.Data()[i] = float32(math.Sin(float64(i)*0.61) * 100)
	}
	return x
}

func verifyChecks() []check {
	a, b := sine(257, 33), sine(257, 33)
	img := sine(61, 47, 3, 2)

	binary := func(op kernel.Op) func(*operator.Runtime) (string, []float32, error) {
		return func(rt *operator.Runtime) (string, []float32, error) {
			out := tensor.New[float32](257, 33)
			name, err := elementwise.Binary(rt, op, a, b, out)
			return name, out.Data(), err
		}
	}
	pool := func(op kernel.Op, g pool2d.Geometry) func(*operator.Runtime) (string, []float32, error) {
		return func(rt *operator.Runtime) (string, []float32, error) {
			shape, err := pool2d.OutputShape(img.Shape(), g)
			if err != nil {
				return "", nil, err
			}
			out := tensor.New[float32](shape...)
			name, err := pool2d.Pool(rt, op, img, out, g)
			return name, out.Data(), err
		}
	}

	return []check{
		{"add", binary(elementwise.OpAdd)},
		{"mul", binary(elementwise.OpMul)},
		{"max pool 3x3/2", pool(pool2d.OpMax, pool2d.Geometry{
			PoolW: 3, PoolH: 3, StrideX: 2, StrideY: 2,
			PadLeft: 1, PadRight: 1, PadTop: 1, PadBottom: 1,
		})},
		{"avg pool 2x2/2", pool(pool2d.OpAvg, pool2d.Square(2, 2))},
		{"sum rows", func(rt *operator.Runtime) (string, []float32, error) {
			out := tensor.New[float32](reduce.RowsShape(img.Shape())...)
			name, err := reduce.SumRows(rt, img, out)
			return name, out.Data(), err
		}},
	}
}

func newVerifyCommand(opts *options) *cobra.Command {
	var threadList string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that operators give identical results for every thread count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := parseInts(threadList)
			if err != nil {
				return err
			}
			if len(counts) == 0 || slices.ContainsFunc(counts, func(n int) bool { return n < 1 }) {
				return fmt.Errorf("--thread-counts needs positive values, got %q", threadList)
			}
			return runVerify(cmd, opts, counts)
		},
	}
	cmd.Flags().StringVar(&threadList, "thread-counts", "1,2,4,8", "thread counts to compare")
	return cmd
}

type verifyResult struct {
	kernel string
	out    []float32
}

func runVerify(cmd *cobra.Command, opts *options, counts []int) error {
	checks := verifyChecks()
	results := make([][]verifyResult, len(checks))
	for i := range results {
		results[i] = make([]verifyResult, len(counts))
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU())
	for i, c := range checks {
		for j, threads := range counts {
			g.Go(func() error {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s, err := opts.newScheduler(threads)
				if err != nil {
					return err
				}
				defer s.Close()
				name, out, err := c.run(&operator.Runtime{Registry: kernel.Default, Scheduler: s})
				if err != nil {
					return fmt.Errorf("%s with %d threads: %w", c.name, threads, err)
				}
				results[i][j] = verifyResult{kernel: name, out: out}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	caps, _ := opts.capabilities()
	renderTitle(w, "thread-count invariance on "+caps.String())
	failed := 0
	rows := make([][]string, len(checks))
	for i, c := range checks {
		status := okStyle.Render("ok")
		if bad := mismatches(results[i], counts); len(bad) > 0 {
			status = errorStyle.Render("differs at " + strings.Join(bad, ","))
			failed++
		}
		rows[i] = []string{c.name, results[i][0].kernel, fmt.Sprint(len(results[i][0].out)), status}
	}
	renderTable(w, []string{"check", "kernel", "elements", "result"}, rows)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d checks", errMismatch, failed, len(checks))
	}
	return nil
}

// mismatches lists the thread counts whose output differs bitwise from the
// first one.
func mismatches(rs []verifyResult, counts []int) []string {
	var bad []string
	for j := 1; j < len(rs); j++ {
		if !slices.EqualFunc(rs[0].out, rs[j].out, func(x, y float32) bool {
			return math.Float32bits(x) == math.Float32bits(y)
		}) {
			bad = append(bad, fmt.Sprint(counts[j]))
		}
	}
	return bad
}
