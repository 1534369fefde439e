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

// Package scheduler splits a window into disjoint sub-windows and runs a
// kernel over them on a fixed worker pool.
//
// The pool is created once and reused by every call. Run blocks until all
// partitions have finished; there is no cancellation. If partitions fail,
// the error of the lowest-indexed failing partition is returned after the
// join.
//
// Kernels must not depend on the number of partitions in their numerics:
// running with one thread and with many threads must produce the same
// output. Any reduction across partitions is done by the caller after Run
// returns.
package scheduler

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/kernel"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/window"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/workerpool"
	"github.com/ajroetker/go-highway-rt/internal/config"
	"github.com/ajroetker/go-highway-rt/internal/logging"
)

// Func is the entry point invoked once per partition.
type Func func(win window.Window, info kernel.ThreadInfo) error

// Strategy controls how partitions are assigned to workers.
type Strategy int

const (
	// StrategyDefault uses the scheduler's configured strategy.
	StrategyDefault Strategy = iota

	// Static creates one partition per thread.
	Static

	// Dynamic creates Hints.Threshold partitions which workers pull from a
	// shared counter until none are left.
	Dynamic
)

func (s Strategy) String() string {
	switch s {
	case StrategyDefault:
		return "default"
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy parses "static" or "dynamic", ignoring case.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "static":
		return Static, nil
	case "dynamic":
		return Dynamic, nil
	case "", "default":
		return StrategyDefault, nil
	}
	return StrategyDefault, fmt.Errorf("scheduler: unknown strategy %q", s)
}

// SplitDimension selects the dimension a window is split along. The zero
// value picks one automatically.
type SplitDimension struct {
	dim int
	set bool
}

// SplitAlong forces splitting along dimension d.
func SplitAlong(d int) SplitDimension {
	if d < 0 || d >= window.MaxDimensions {
		panic(fmt.Sprintf("scheduler: split dimension %d out of range", d))
	}
	return SplitDimension{dim: d, set: true}
}

// IsAuto reports whether the dimension is chosen automatically.
func (s SplitDimension) IsAuto() bool {
	return !s.set
}

// Dim returns the forced dimension, or -1 when automatic.
func (s SplitDimension) Dim() int {
	if !s.set {
		return -1
	}
	return s.dim
}

// Hints tune a single invocation.
type Hints struct {
	Split    SplitDimension
	Strategy Strategy

	// Threshold is the number of partitions created by the Dynamic strategy.
	// Zero means one per thread.
	Threshold int
}

// ErrPartitionFailed is matched by every error returned from a failing
// partition.
var ErrPartitionFailed = errors.New("scheduler: partition failed")

// PartitionError reports the first failing partition, in partition order.
type PartitionError struct {
	Index  int           // partition index
	Window window.Window // the partition's sub-window
	Failed int           // number of partitions that failed
	Err    error
}

func (e *PartitionError) Error() string {
	msg := fmt.Sprintf("scheduler: partition %d %v failed: %v", e.Index, e.Window, e.Err)
	if e.Failed > 1 {
		msg += fmt.Sprintf(" (and %d more)", e.Failed-1)
	}
	return msg
}

// Unwrap makes both ErrPartitionFailed and the kernel's error reachable
// through errors.Is and errors.As.
func (e *PartitionError) Unwrap() []error {
	return []error{ErrPartitionFailed, e.Err}
}

// Scheduler runs partitioned work on a fixed pool of goroutines. The calling
// goroutine always executes one of the partitions, so a scheduler with
// numThreads threads owns numThreads-1 pool workers.
type Scheduler struct {
	pool       *workerpool.Pool
	numThreads int
	strategy   Strategy
	caps       hwy.Capabilities
	capsSet    bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCapabilities sets the capabilities handed to kernels through
// ThreadInfo. The default is hwy.GetCapabilities().
func WithCapabilities(c hwy.Capabilities) Option {
	return func(s *Scheduler) {
		s.caps = c
		s.capsSet = true
	}
}

// WithStrategy sets the strategy used when Hints.Strategy is StrategyDefault.
func WithStrategy(st Strategy) Option {
	return func(s *Scheduler) {
		s.strategy = st
	}
}

// New creates a scheduler using numThreads threads, including the caller.
// numThreads <= 0 means one per CPU.
func New(numThreads int, opts ...Option) *Scheduler {
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	s := &Scheduler{
		numThreads: numThreads,
		strategy:   Static,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.capsSet {
		s.caps = hwy.GetCapabilities()
	}
	if s.strategy == StrategyDefault {
		s.strategy = Static
	}
	s.pool = workerpool.New(numThreads - 1)
	logging.WithComponent("scheduler").WithFields(logrus.Fields{
		"threads":  numThreads,
		"strategy": s.strategy,
	}).Debug("scheduler created")
	return s
}

var defaultScheduler = sync.OnceValue(func() *Scheduler {
	cfg, err := config.Load("")
	if err != nil {
		logging.Warnf("scheduler: %v; using defaults", err)
		cfg = config.DefaultConfig()
	}
	st, err := ParseStrategy(cfg.Strategy)
	if err != nil {
		st = Static
	}
	return New(cfg.NumThreads, WithStrategy(st))
})

// Default returns the process-wide scheduler, created on first use from
// HWY_NUM_THREADS and HWY_STRATEGY.
func Default() *Scheduler {
	return defaultScheduler()
}

// NumThreads returns the number of threads used when a call passes
// numThreads <= 0.
func (s *Scheduler) NumThreads() int {
	return s.numThreads
}

// Strategy returns the default strategy.
func (s *Scheduler) Strategy() Strategy {
	return s.strategy
}

// Capabilities returns the capabilities passed to kernels.
func (s *Scheduler) Capabilities() hwy.Capabilities {
	return s.caps
}

// Close stops the pool workers. Later calls run sequentially on the caller.
func (s *Scheduler) Close() {
	s.pool.Close()
}

// Run splits win and calls fn once per partition using up to numThreads
// threads. numThreads <= 0 uses the scheduler's thread count.
//
// fn must not call back into the same scheduler: the pool is fixed and a
// nested Run can wait forever for a worker that is busy running fn.
func (s *Scheduler) Run(win window.Window, fn Func, numThreads int) error {
	return s.RunWithHints(win, fn, numThreads, Hints{})
}

// RunWithHints is like Run with explicit hints.
func (s *Scheduler) RunWithHints(win window.Window, fn Func, numThreads int, hints Hints) error {
	if numThreads <= 0 {
		numThreads = s.numThreads
	}
	if hints.Strategy == StrategyDefault {
		hints.Strategy = s.strategy
	}

	dim, parts := Partition(win, numThreads, hints)
	if len(parts) == 0 {
		return nil
	}

	log := logging.Get()
	if log.IsLevelEnabled(logrus.DebugLevel) {
		log.WithFields(logrus.Fields{
			"component":  "scheduler",
			"window":     win,
			"dim":        dim,
			"partitions": len(parts),
			"threads":    numThreads,
			"strategy":   hints.Strategy,
		}).Debug("run")
	}

	errs := make([]error, len(parts))
	if len(parts) == 1 {
		errs[0] = fn(parts[0], kernel.ThreadInfo{Index: 0, Total: 1, Caps: &s.caps})
		return firstError(parts, errs)
	}

	switch hints.Strategy {
	case Dynamic:
		workers := min(numThreads, len(parts))
		s.pool.RunAtomic(workers, len(parts), func(worker, i int) {
			errs[i] = fn(parts[i], kernel.ThreadInfo{Index: worker, Total: workers, Caps: &s.caps})
		})
	default:
		s.pool.Run(len(parts), func(i int) {
			errs[i] = fn(parts[i], kernel.ThreadInfo{Index: i, Total: len(parts), Caps: &s.caps})
		})
	}
	return firstError(parts, errs)
}

func firstError(parts []window.Window, errs []error) error {
	var first *PartitionError
	for i, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = &PartitionError{Index: i, Window: parts[i], Err: err}
		}
		first.Failed++
	}
	if first == nil {
		return nil
	}
	return first
}

// Schedule runs a configured kernel over its own window. Kernels reporting
// IsParallelisable() == false run as a single partition on the caller.
func (s *Scheduler) Schedule(k kernel.Kernel, hints Hints) error {
	if !k.IsConfigured() {
		return fmt.Errorf("%w: %s", kernel.ErrNotConfigured, k.Name())
	}
	threads := s.numThreads
	if p, ok := k.(kernel.Parallelisable); ok && !p.IsParallelisable() {
		threads = 1
	}
	return s.RunWithHints(k.Window(), k.Run, threads, hints)
}
