// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent, reusable worker pool for parallel
// computation. Unlike per-call goroutine spawning, a Pool is created once and
// reused across many operations, eliminating allocation and spawn overhead.
//
// The calling goroutine always takes part in the work: Run executes task 0
// itself and hands the rest to the pool, so a pool of n workers keeps n+1
// goroutines busy.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0) - 1)
//	defer pool.Close()
//
//	// Reuse pool across many operations
//	for _, layer := range layers {
//	    pool.Run(numParts, func(i int) {
//	        processPart(i)
//	    })
//	}
//
// Tasks must not submit work to the pool that runs them: a task blocked on
// its own pool can starve it.
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool that can be reused across many parallel
// operations. Workers are spawned once at creation and reused.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool

	// submit is held for reading while a Run queues tasks and for writing
	// while Close closes workC.
	submit sync.RWMutex
}

// workItem represents a single task of a parallel operation.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// Workers are spawned immediately and persist until Close is called.
// If numWorkers < 0, uses GOMAXPROCS. A pool of 0 workers runs everything
// on the calling goroutine.
func New(numWorkers int) *Pool {
	if numWorkers < 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		// Buffer enough for all workers to have pending work
		workC: make(chan workItem, max(numWorkers*2, 1)),
	}

	// Spawn persistent workers
	for range numWorkers {
		go p.worker()
	}

	return p
}

// worker is the main loop for each persistent worker goroutine.
func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the worker pool. All pending work will complete.
// Calling Close multiple times, or concurrently with Run, is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.submit.Lock()
		defer p.submit.Unlock()
		p.closed.Store(true)
		close(p.workC)
	})
}

// sequential reports whether work must run on the calling goroutine.
func (p *Pool) sequential() bool {
	return p.numWorkers == 0 || p.closed.Load()
}

// Run executes fn(i) for every i in [0, n), each as its own task, and blocks
// until all of them have returned. Task 0 runs on the calling goroutine.
// Tasks may run in any order and interleaving.
func (p *Pool) Run(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	if n == 1 || p.sequential() {
		runAll(n, fn)
		return
	}

	p.submit.RLock()
	if p.closed.Load() {
		p.submit.RUnlock()
		runAll(n, fn)
		return
	}
	var wg sync.WaitGroup
	wg.Add(n - 1)
	for i := 1; i < n; i++ {
		p.workC <- workItem{
			fn: func() {
				fn(i)
			},
			barrier: &wg,
		}
	}
	p.submit.RUnlock()
	fn(0)
	wg.Wait()
}

func runAll(n int, fn func(i int)) {
	for i := range n {
		fn(i)
	}
}

// RunAtomic executes fn for each index in [0, n) using atomic work
// distribution. workers tasks (the caller being worker 0) repeatedly claim
// the next unclaimed index, which balances load when work per index varies.
// Blocks until all work completes.
//
// fn receives the ordinal of the worker running it and the index to process.
func (p *Pool) RunAtomic(workers, n int, fn func(worker, i int)) {
	if n <= 0 {
		return
	}

	workers = min(max(workers, 1), n)
	if workers == 1 || p.sequential() {
		for i := range n {
			fn(0, i)
		}
		return
	}

	var nextIdx atomic.Int64
	p.Run(workers, func(worker int) {
		for {
			idx := int(nextIdx.Add(1)) - 1
			if idx >= n {
				return
			}
			fn(worker, idx)
		}
	})
}
