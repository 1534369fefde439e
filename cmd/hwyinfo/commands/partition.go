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
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-highway-rt/hwy/contrib/scheduler"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
)

func newPartitionCommand(opts *options) *cobra.Command {
	var (
		shape     string
		strategy  string
		threshold int
		split     int
	)
	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Show how a window is split across threads",
		Example: `  hwyinfo partition --shape 100 --threads 4
  hwyinfo partition --shape 64,32,3 --threads 8 --strategy dynamic --threshold 16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			extents, err := parseInts(shape)
			if err != nil {
				return err
			}
			win, err := window.FromShape(extents...)
			if err != nil {
				return err
			}
			st, err := scheduler.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			if st == scheduler.StrategyDefault {
				st = opts.strategy
			}
			hints := scheduler.Hints{Strategy: st, Threshold: threshold}
			if split >= 0 {
				if split >= window.MaxDimensions {
					return fmt.Errorf("--split must be below %d", window.MaxDimensions)
				}
				hints.Split = scheduler.SplitAlong(split)
			}

			threads := opts.threads
			if threads == 0 {
				threads = runtime.NumCPU()
			}

			dim, parts := scheduler.Partition(win, threads, hints)
			w := cmd.OutOrStdout()
			renderTitle(w, fmt.Sprintf("%v over %d threads, %v", win, threads, hints.Strategy))
			if dim < 0 {
				fmt.Fprintln(w, dimStyle.Render("not split"))
			} else {
				fmt.Fprintf(w, "split along dimension %d\n", dim)
			}
			rows := make([][]string, len(parts))
			for i, p := range parts {
				rows[i] = []string{fmt.Sprint(i), p.String(), fmt.Sprint(p.TotalIterations())}
			}
			renderTable(w, []string{"partition", "window", "iterations"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&shape, "shape", "", "window extents, innermost first, e.g. 64,32,3")
	cmd.Flags().StringVar(&strategy, "strategy", "", "static or dynamic (default from HWY_STRATEGY)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "partitions created by the dynamic strategy")
	cmd.Flags().IntVar(&split, "split", -1, "dimension to split along (-1 = automatic)")
	_ = cmd.MarkFlagRequired("shape")
	return cmd
}
