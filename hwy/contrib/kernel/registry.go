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
	"slices"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/internal/logging"
)

type registryKey struct {
	op Op
	dt hwy.DataType
}

// candidateList holds the descriptors of one (op, data type) pair in
// registration order. ranks[i] is the rank of descs[i]; descriptors
// registered together by RegisterGroup share a rank.
type candidateList struct {
	descs []*Descriptor
	ranks []int
}

type snapshot struct {
	lists    map[registryKey]candidateList
	nextRank int
}

// Registry groups kernel descriptors per operation kind and element type.
//
// Registration is append-only and expected to happen from init() functions.
// Readers never lock: every registration publishes a new immutable snapshot,
// so lookups on the dispatch path are a single atomic load.
type Registry struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[snapshot]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.snap.Store(&snapshot{lists: map[registryKey]candidateList{}})
	return r
}

// Default is the process-wide registry that kernel packages register into.
var Default = NewRegistry()

// Register appends d to the candidates of (op, d.DataType). It panics on an
// empty name, an unknown data type or a name already registered for the same
// operation and data type.
func (r *Registry) Register(op Op, d Descriptor) {
	r.RegisterGroup(op, d)
}

// RegisterGroup appends descriptors that share one rank. Selection takes the
// first rank holding a selectable descriptor and, within it, breaks ties by
// the LowMemory hint, then by Cost, then by registration order.
func (r *Registry) RegisterGroup(op Op, ds ...Descriptor) {
	if len(ds) == 0 {
		return
	}
	if op == "" {
		panic("kernel: register with empty op")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.snap.Load()
	next := &snapshot{
		lists:    make(map[registryKey]candidateList, len(old.lists)+1),
		nextRank: old.nextRank + 1,
	}
	for k, v := range old.lists {
		next.lists[k] = v
	}

	rank := old.nextRank
	for _, d := range ds {
		if d.Name == "" {
			panic("kernel: register " + string(op) + " descriptor with empty name")
		}
		if d.DataType == hwy.DataTypeUnknown {
			panic("kernel: register " + d.Name + " with unknown data type")
		}
		key := registryKey{op, d.DataType}
		list := next.lists[key]
		if slices.ContainsFunc(list.descs, func(e *Descriptor) bool { return e.Name == d.Name }) {
			panic("kernel: duplicate registration of " + d.Name + " for " + string(op))
		}
		desc := d
		// Clip so that appends in later snapshots never write into arrays
		// shared with earlier ones.
		list.descs = append(slices.Clip(list.descs), &desc)
		list.ranks = append(slices.Clip(list.ranks), rank)
		next.lists[key] = list

		logging.WithComponent("kernel").WithField("op", op).WithField("dtype", d.DataType).
			Debugf("registered %s at rank %d", d.Name, rank)
	}
	r.snap.Store(next)
}

func (r *Registry) list(op Op, dt hwy.DataType) candidateList {
	return r.snap.Load().lists[registryKey{op, dt}]
}

// Candidates returns the descriptors of (op, dt) in registration order.
// The returned slice and descriptors must not be modified.
func (r *Registry) Candidates(op Op, dt hwy.DataType) []*Descriptor {
	return r.list(op, dt).descs
}

// Names returns the descriptor names of (op, dt) in registration order.
func (r *Registry) Names(op Op, dt hwy.DataType) []string {
	return lo.Map(r.Candidates(op, dt), func(d *Descriptor, _ int) string {
		return d.Name
	})
}

// Ops returns every operation with at least one descriptor, sorted.
func (r *Registry) Ops() []Op {
	keys := lo.Keys(r.snap.Load().lists)
	ops := lo.Uniq(lo.Map(keys, func(k registryKey, _ int) Op { return k.op }))
	slices.Sort(ops)
	return ops
}

// DataTypes returns the data types registered for op, sorted.
func (r *Registry) DataTypes(op Op) []hwy.DataType {
	keys := lo.Filter(lo.Keys(r.snap.Load().lists), func(k registryKey, _ int) bool {
		return k.op == op
	})
	dts := lo.Map(keys, func(k registryKey, _ int) hwy.DataType { return k.dt })
	slices.Sort(dts)
	return dts
}

// Register adds d to the Default registry.
func Register(op Op, d Descriptor) {
	Default.Register(op, d)
}

// RegisterGroup adds equally ranked descriptors to the Default registry.
func RegisterGroup(op Op, ds ...Descriptor) {
	Default.RegisterGroup(op, ds...)
}

// Candidates returns the Default registry's descriptors of (op, dt).
func Candidates(op Op, dt hwy.DataType) []*Descriptor {
	return Default.Candidates(op, dt)
}
