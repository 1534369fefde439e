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

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
)

func newKernelsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "kernels [op]",
		Short: "List registered kernels in selection order",
		Long: `List registered kernels per operation and data type, in the order the
selector tries them. A kernel marked selectable can run on this host when
its problem-shape conditions hold; the first selectable one is the default
choice.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, err := opts.capabilities()
			if err != nil {
				return err
			}
			ops := kernel.Default.Ops()
			if len(args) == 1 {
				ops = []kernel.Op{kernel.Op(args[0])}
			}
			w := cmd.OutOrStdout()
			renderTitle(w, "kernels on "+caps.String())

			var rows [][]string
			for _, op := range ops {
				for _, dt := range kernel.Default.DataTypes(op) {
					rows = append(rows, kernelRows(caps, op, dt)...)
				}
			}
			if len(rows) == 0 {
				return fmt.Errorf("no kernels registered for %v", ops)
			}
			renderTable(w, []string{"op", "data type", "#", "kernel", "selectable"}, rows)
			return nil
		},
	}
}

func kernelRows(caps hwy.Capabilities, op kernel.Op, dt hwy.DataType) [][]string {
	// Selectability is shown for a problem with no attributes; shape-specific
	// kernels may report no here and still be chosen for matching shapes.
	p := kernel.Problem{Op: op, DataType: dt}
	var rows [][]string
	for i, d := range kernel.Default.Candidates(op, dt) {
		rows = append(rows, []string{string(op), dt.String(), fmt.Sprint(i), d.Name, yesNo(d.IsSelectable(caps, p))})
	}
	return rows
}
