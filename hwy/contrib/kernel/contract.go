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

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
)

// ThreadInfo identifies the worker running a partition. It is passed by value
// and is read-only for the kernel.
type ThreadInfo struct {
	Index int // ordinal of the worker, in [0, Total)
	Total int // number of workers taking part in the invocation
	Caps  *hwy.Capabilities
}

// Border is the halo a kernel reads beyond its output window, in elements.
// Callers consult it before scheduling to make sure the input is padded.
type Border struct {
	Top, Right, Bottom, Left int
}

// Uniform returns a border of n elements on every side.
func Uniform(n int) Border {
	return Border{Top: n, Right: n, Bottom: n, Left: n}
}

// IsEmpty reports whether the kernel reads nothing beyond its window.
func (b Border) IsEmpty() bool {
	return b == Border{}
}

// Kernel is the contract of a selected, invocable kernel.
//
//   - Validate checks operand shapes, types and attributes. It has no side
//     effects and can run before any allocation.
//   - Configure binds the operand buffers and computes the kernel's window.
//     It may be called at most once, after a successful Validate.
//   - Run computes the part of the output inside win, a sub-window of
//     Window(). It writes only the memory implied by win and reads at most
//     Border() beyond it. Run is called concurrently on disjoint windows and
//     must not assume a particular thread count.
type Kernel interface {
	Name() string
	Validate(p Problem) error
	Configure(operands []Tensor, p Problem) error
	IsConfigured() bool
	Window() window.Window
	Border() Border
	Run(win window.Window, info ThreadInfo) error
}

// Parallelisable is implemented by kernels that can opt out of splitting.
// Kernels that do not implement it are parallelisable.
type Parallelisable interface {
	IsParallelisable() bool
}

// Base carries the bookkeeping shared by Kernel implementations: name,
// window, border and the configure-once state. Embed it and call
// SetConfigured at the end of Configure.
type Base struct {
	name       string
	win        window.Window
	border     Border
	configured bool
}

// NewBase returns a Base for a kernel with the given name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the kernel name.
func (b *Base) Name() string {
	return b.name
}

// Window returns the window computed by Configure.
func (b *Base) Window() window.Window {
	return b.win
}

// Border returns the halo declared by Configure.
func (b *Base) Border() Border {
	return b.border
}

// IsConfigured reports whether SetConfigured has run.
func (b *Base) IsConfigured() bool {
	return b.configured
}

// CheckConfigure returns ErrAlreadyConfigured after the first configuration.
// Call it before binding any operands.
func (b *Base) CheckConfigure() error {
	if b.configured {
		return fmt.Errorf("%w: %s", ErrAlreadyConfigured, b.name)
	}
	return nil
}

// SetConfigured records the kernel's window and border and marks it configured.
func (b *Base) SetConfigured(win window.Window, border Border) error {
	if err := b.CheckConfigure(); err != nil {
		return err
	}
	if err := win.Validate(); err != nil {
		return err
	}
	b.win = win
	b.border = border
	b.configured = true
	return nil
}

// CheckRun validates that the kernel is configured and win lies inside its
// window.
func (b *Base) CheckRun(win window.Window) error {
	if !b.configured {
		return fmt.Errorf("%w: %s", ErrNotConfigured, b.name)
	}
	if !b.win.Contains(win) {
		return fmt.Errorf("%w: %v outside %v", window.ErrOutOfRange, win, b.win)
	}
	return nil
}

// Prepare runs the Validate and Configure steps of the invocation protocol.
// Configure is never reached when Validate fails.
func Prepare(k Kernel, operands []Tensor, p Problem) error {
	if err := k.Validate(p); err != nil {
		return err
	}
	return k.Configure(operands, p)
}

// ProblemOf builds the Problem describing operands for op, taking the
// dispatch data type from the first operand.
func ProblemOf(op Op, attrs map[string]int, operands ...Tensor) Problem {
	p := Problem{Op: op, Attrs: attrs}
	p.Operands = make([]TensorInfo, len(operands))
	for i, t := range operands {
		p.Operands[i] = t.Info()
	}
	if len(p.Operands) > 0 {
		p.DataType = p.Operands[0].DataType
	}
	return p
}
