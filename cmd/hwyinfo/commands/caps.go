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
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sys/cpu"

	"github.com/ajroetker/go-highway-rt/hwy"
)

func newCapsCommand(opts *options) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "caps",
		Short: "Show detected CPU capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, err := opts.capabilities()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printCapabilities(w, caps)
			if raw {
				printRawFeatures(w)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "also print the golang.org/x/sys/cpu flags")
	return cmd
}

func printCapabilities(w io.Writer, caps hwy.Capabilities) {
	renderTitle(w, "capabilities")
	renderTable(w, []string{"property", "value"}, [][]string{
		{"GOOS/GOARCH", runtime.GOOS + "/" + runtime.GOARCH},
		{"arch", caps.Arch},
		{"dispatch level", caps.Level.String()},
		{"vector width", fmt.Sprintf("%d bytes", caps.Width)},
		{"CPUs", fmt.Sprint(caps.NumCPU)},
	})

	rows := make([][]string, 0, len(hwy.AllFeatures()))
	for _, f := range hwy.AllFeatures() {
		rows = append(rows, []string{f.String(), yesNo(caps.Has(f))})
	}
	renderTable(w, []string{"feature", "present"}, rows)
}

func printRawFeatures(w io.Writer) {
	var rows [][]string
	switch runtime.GOARCH {
	case "arm64":
		renderTitle(w, "golang.org/x/sys/cpu.ARM64")
		rows = [][]string{
			{"HasASIMD", yesNo(cpu.ARM64.HasASIMD), "NEON baseline"},
			{"HasFPHP", yesNo(cpu.ARM64.HasFPHP), "FP16 scalar, ARMv8.2-A"},
			{"HasASIMDHP", yesNo(cpu.ARM64.HasASIMDHP), "FP16 NEON, ARMv8.2-A"},
			{"HasASIMDDP", yesNo(cpu.ARM64.HasASIMDDP), "int8 dot product"},
			{"HasSVE", yesNo(cpu.ARM64.HasSVE), "Scalable Vector Extension"},
			{"HasSVE2", yesNo(cpu.ARM64.HasSVE2), "SVE2"},
			{"HasATOMICS", yesNo(cpu.ARM64.HasATOMICS), "Large System Extensions"},
		}
	case "amd64":
		renderTitle(w, "golang.org/x/sys/cpu.X86")
		rows = [][]string{
			{"HasSSE2", yesNo(cpu.X86.HasSSE2), ""},
			{"HasAVX2", yesNo(cpu.X86.HasAVX2), ""},
			{"HasFMA", yesNo(cpu.X86.HasFMA), ""},
			{"HasAVX512F", yesNo(cpu.X86.HasAVX512F), ""},
			{"HasAVX512BF16", yesNo(cpu.X86.HasAVX512BF16), ""},
			{"HasAVX512VNNI", yesNo(cpu.X86.HasAVX512VNNI), ""},
		}
	default:
		fmt.Fprintf(w, "no raw feature flags for %s\n", runtime.GOARCH)
		return
	}
	renderTable(w, []string{"flag", "value", "note"}, rows)
}
