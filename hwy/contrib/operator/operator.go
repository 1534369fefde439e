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

// Package operator drives a kernel through the select, validate, configure
// and schedule steps shared by every operator front-end.
package operator

import (
	"fmt"

	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/scheduler"
)

// Runtime bundles the registry kernels are selected from and the scheduler
// they run on. Selection uses the scheduler's capabilities.
type Runtime struct {
	Registry  *kernel.Registry
	Scheduler *scheduler.Scheduler
	Hints     kernel.Hints
	Schedule  scheduler.Hints
}

// Default returns a Runtime over kernel.Default and scheduler.Default().
func Default() *Runtime {
	return &Runtime{Registry: kernel.Default, Scheduler: scheduler.Default()}
}

// WithHints returns a copy of r using the given selection hints.
func (r *Runtime) WithHints(h kernel.Hints) *Runtime {
	c := *r
	c.Hints = h
	return &c
}

// Builder constructs an unconfigured kernel from the selected descriptor and
// its typed entry point.
type Builder[F any] func(d *kernel.Descriptor, entry F) kernel.Kernel

// Invoke selects a kernel for the problem described by op, attrs and
// operands, then validates, configures and schedules it. It returns the
// selected descriptor. Nothing runs unless selection, validation and
// configuration all succeed.
func Invoke[F any](r *Runtime, op kernel.Op, attrs map[string]int, operands []kernel.Tensor, build Builder[F]) (*kernel.Descriptor, error) {
	if r == nil {
		r = Default()
	}
	p := kernel.ProblemOf(op, attrs, operands...)
	p.Hints = r.Hints

	d, err := kernel.Select(r.Registry, r.Scheduler.Capabilities(), p)
	if err != nil {
		return nil, err
	}
	entry, err := kernel.EntryAs[F](d)
	if err != nil {
		return d, err
	}
	k := build(d, entry)
	if err := kernel.Prepare(k, operands, p); err != nil {
		return d, fmt.Errorf("%s: %w", d.Name, err)
	}
	return d, r.Scheduler.Schedule(k, r.Schedule)
}
