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
	"slices"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/internal/logging"
)

// SelectionError reports why no descriptor could be chosen. It unwraps to
// ErrUnsupported or ErrNoSuchKernel.
type SelectionError struct {
	Op       Op
	DataType hwy.DataType
	Kernel   string // the ForceKernel hint, if any
	Level    hwy.DispatchLevel
	Err      error
}

func (e *SelectionError) Error() string {
	if e.Kernel != "" {
		return fmt.Sprintf("%v: %q for %s/%v on %v", e.Err, e.Kernel, e.Op, e.DataType, e.Level)
	}
	return fmt.Sprintf("%v: %s/%v on %v", e.Err, e.Op, e.DataType, e.Level)
}

func (e *SelectionError) Unwrap() error {
	return e.Err
}

// Select picks the descriptor that runs problem p on a host with
// capabilities caps.
//
// Candidates of (p.Op, p.DataType) are walked in registration order and the
// first rank with a selectable descriptor wins; inside a rank shared by
// RegisterGroup the LowMemory hint, then Cost, then registration order decide.
// A ForceKernel hint first restricts the candidates to that name.
//
// Select is a pure function of the registry contents, caps and p. The returned
// descriptor belongs to the registry and must not be modified.
func Select(reg *Registry, caps hwy.Capabilities, p Problem) (*Descriptor, error) {
	list := reg.list(p.Op, p.DataType)
	descs, ranks := list.descs, list.ranks

	if name := p.Hints.ForceKernel; name != "" {
		i := slices.IndexFunc(descs, func(d *Descriptor) bool { return d.Name == name })
		if i < 0 {
			return nil, &SelectionError{Op: p.Op, DataType: p.DataType, Kernel: name, Level: caps.Level, Err: ErrNoSuchKernel}
		}
		descs, ranks = descs[i:i+1], ranks[i:i+1]
	}

	for start := 0; start < len(descs); {
		end := start + 1
		for end < len(descs) && ranks[end] == ranks[start] {
			end++
		}
		group := lo.Filter(descs[start:end], func(d *Descriptor, _ int) bool {
			return d.IsSelectable(caps, p)
		})
		if len(group) > 0 {
			d := pickInRank(group, p)
			logSelection(d, caps, p)
			return d, nil
		}
		start = end
	}

	return nil, &SelectionError{Op: p.Op, DataType: p.DataType, Kernel: p.Hints.ForceKernel, Level: caps.Level, Err: ErrUnsupported}
}

// pickInRank applies the secondary filters to equally ranked selectable
// descriptors. group is in registration order and non-empty.
func pickInRank(group []*Descriptor, p Problem) *Descriptor {
	if p.Hints.PreferLowMemory {
		if low := lo.Filter(group, func(d *Descriptor, _ int) bool { return d.LowMemory }); len(low) > 0 {
			group = low
		}
	}
	best := group[0]
	bestCost := best.cost(p)
	for _, d := range group[1:] {
		// Strict comparison keeps the earliest registration on equal cost.
		if c := d.cost(p); c < bestCost {
			best, bestCost = d, c
		}
	}
	return best
}

func logSelection(d *Descriptor, caps hwy.Capabilities, p Problem) {
	log := logging.Get()
	if !log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	log.WithFields(logrus.Fields{
		"component": "kernel",
		"op":        p.Op,
		"dtype":     p.DataType,
		"level":     caps.Level,
	}).Debugf("selected %s", d.Name)
}

// SelectDefault selects from the Default registry for the host capabilities.
func SelectDefault(p Problem) (*Descriptor, error) {
	return Select(Default, hwy.GetCapabilities(), p)
}
