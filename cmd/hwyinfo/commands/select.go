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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
)

func newSelectCommand(opts *options) *cobra.Command {
	var (
		force     string
		lowMemory bool
		attrs     []string
	)
	cmd := &cobra.Command{
		Use:   "select <op> <data type>",
		Short: "Show which kernel a problem selects",
		Example: `  hwyinfo select elementwise.add f32
  hwyinfo select pool2d.max f32 --attr pool_w=3,pool_h=3
  hwyinfo select elementwise.add f32 --without sve`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, err := opts.capabilities()
			if err != nil {
				return err
			}
			dt, ok := hwy.ParseDataType(args[1])
			if !ok {
				return fmt.Errorf("unknown data type %q", args[1])
			}
			p := kernel.Problem{
				Op:       kernel.Op(args[0]),
				DataType: dt,
				Attrs:    map[string]int{},
				Hints:    kernel.Hints{ForceKernel: force, PreferLowMemory: lowMemory},
			}
			for _, a := range attrs {
				k, v, ok := strings.Cut(a, "=")
				n, err := strconv.Atoi(v)
				if !ok || err != nil {
					return fmt.Errorf("bad attribute %q, want name=int", a)
				}
				p.Attrs[k] = n
			}

			d, err := kernel.Select(kernel.Default, caps, p)
			w := cmd.OutOrStdout()
			if err != nil {
				fmt.Fprintln(w, errorStyle.Render(err.Error()))
				return err
			}
			fmt.Fprintf(w, "%s/%v on %v: %s\n", p.Op, dt, caps.Level, okStyle.Render(d.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&force, "force", "", "restrict selection to the named kernel")
	cmd.Flags().BoolVar(&lowMemory, "low-memory", false, "prefer kernels without workspace")
	cmd.Flags().StringSliceVar(&attrs, "attr", nil, "problem attributes, e.g. pool_w=2,pool_h=2")
	return cmd
}
