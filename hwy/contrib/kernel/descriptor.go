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

// Package kernel selects micro-kernels at runtime and defines the contract
// every selected kernel honours.
//
// Micro-kernel packages describe each implementation with a Descriptor and
// register it from init() under an operation kind:
//
//	func init() {
//	    kernel.Register(OpAdd, kernel.Descriptor{
//	        Name:     "sve_fp32_add",
//	        DataType: hwy.F32,
//	        Selectable: func(c hwy.Capabilities, p kernel.Problem) bool {
//	            return c.Has(hwy.FeatureSVE)
//	        },
//	        Entry: addSVE,
//	    })
//	    kernel.Register(OpAdd, kernel.Descriptor{Name: "neon_fp32_add", DataType: hwy.F32, Entry: addNEON})
//	}
//
// Select walks the candidates of an (operation, data type) pair in
// registration order and returns the first selectable one. By convention
// more specialised descriptors (narrower capability requirements) are
// registered first, so "first match wins" prefers specialisation. The
// convention is not enforced.
//
// Operator front-ends follow a four-step protocol: Select, then the kernel's
// Validate, then Configure, then hand the kernel to a scheduler.
package kernel

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ajroetker/go-highway-rt/hwy"
)

// Op names an operation kind, e.g. "elementwise.add".
type Op string

// Shape lists the extents of a tensor, innermost dimension first, matching
// the dimension order of window.Window.
type Shape []int

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// NumElements returns the product of the extents, 1 for a rank-0 shape.
func (s Shape) NumElements() int {
	n := 1
	for _, e := range s {
		n *= e
	}
	return n
}

// Equal reports whether both shapes have the same rank and extents.
func (s Shape) Equal(o Shape) bool {
	return slices.Equal(s, o)
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, e := range s {
		parts[i] = fmt.Sprint(e)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// TensorInfo is the metadata of one operand.
type TensorInfo struct {
	Shape    Shape
	DataType hwy.DataType
}

// Tensor is an operand bound to a kernel by Configure.
type Tensor interface {
	Info() TensorInfo
}

// Hints are caller policy requests that steer selection.
type Hints struct {
	// PreferLowMemory favours descriptors flagged LowMemory among the
	// equally ranked candidates that are selectable.
	PreferLowMemory bool

	// ForceKernel restricts selection to the descriptor with this name.
	ForceKernel string
}

// Problem describes one invocation: what is computed, on which element type
// and operand shapes, plus op-specific scalar attributes.
type Problem struct {
	Op       Op
	DataType hwy.DataType
	Operands []TensorInfo
	Attrs    map[string]int
	Hints    Hints
}

// Attr returns the named attribute, or def when it is absent.
func (p Problem) Attr(name string, def int) int {
	if v, ok := p.Attrs[name]; ok {
		return v
	}
	return def
}

// Descriptor describes one micro-kernel implementation.
//
// Descriptors are created at registration and never mutated afterwards.
type Descriptor struct {
	// Name identifies the implementation in diagnostics and ForceKernel hints.
	Name string

	// DataType is the element type the implementation handles.
	DataType hwy.DataType

	// Selectable reports whether the implementation can run on a host with
	// the given capabilities for the given problem. Nil means always.
	Selectable func(hwy.Capabilities, Problem) bool

	// Entry is the implementation itself, typically a function value. The
	// registry never calls it; operator front-ends type-assert it.
	Entry any

	// Cost optionally estimates the work of the implementation. It only breaks
	// ties between equally ranked selectable descriptors (see RegisterGroup);
	// lower is better. Nil counts as zero.
	Cost func(Problem) uint64

	// LowMemory marks implementations that avoid workspace allocations.
	LowMemory bool
}

// IsSelectable evaluates the descriptor's predicate.
func (d *Descriptor) IsSelectable(c hwy.Capabilities, p Problem) bool {
	return d.Selectable == nil || d.Selectable(c, p)
}

func (d *Descriptor) cost(p Problem) uint64 {
	if d.Cost == nil {
		return 0
	}
	return d.Cost(p)
}

// EntryAs returns the descriptor's entry point as type F.
func EntryAs[F any](d *Descriptor) (F, error) {
	f, ok := d.Entry.(F)
	if !ok {
		var zero F
		return zero, fmt.Errorf("%w: kernel %q entry is %T, want %T", ErrInvalidArgument, d.Name, d.Entry, zero)
	}
	return f, nil
}

// Requires returns a predicate that accepts hosts having every feature in f.
func Requires(f hwy.Feature) func(hwy.Capabilities, Problem) bool {
	return func(c hwy.Capabilities, _ Problem) bool {
		return c.Has(f)
	}
}

// All combines predicates; nil predicates are skipped.
func All(preds ...func(hwy.Capabilities, Problem) bool) func(hwy.Capabilities, Problem) bool {
	return func(c hwy.Capabilities, p Problem) bool {
		for _, pred := range preds {
			if pred != nil && !pred(c, p) {
				return false
			}
		}
		return true
	}
}

var (
	// ErrUnsupported means no registered kernel is selectable for the
	// capabilities, shape and data type.
	ErrUnsupported = errors.New("kernel: unsupported")

	// ErrNoSuchKernel means a ForceKernel hint names an unregistered kernel.
	ErrNoSuchKernel = errors.New("kernel: no such kernel")

	// ErrShapeMismatch is returned by Validate for inconsistent operand shapes.
	ErrShapeMismatch = errors.New("kernel: shape mismatch")

	// ErrUnsupportedDataType is returned by Validate for operand types the
	// kernel cannot handle.
	ErrUnsupportedDataType = errors.New("kernel: unsupported data type")

	// ErrInvalidArgument is returned by Validate for bad attributes.
	ErrInvalidArgument = errors.New("kernel: invalid argument")

	// ErrNotConfigured is returned when a kernel runs before Configure.
	ErrNotConfigured = errors.New("kernel: not configured")

	// ErrAlreadyConfigured is returned by a second Configure call.
	ErrAlreadyConfigured = errors.New("kernel: already configured")
)
