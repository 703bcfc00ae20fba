// Package parallel provides the work-distribution primitives used by
// the signature builder, function caller, and distance matrix
// (spec.md section 4.9, "Parallel orchestration"): a bounded task
// group across cores, and a bounded output queue serviced by a single
// writer so output is race-free and written in push order, without
// imposing any ordering on the workers themselves (with several
// producers, push order is their completion order).
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Run executes fn once per item in items, distributed across at most
// n workers (n<=0 means runtime.NumCPU()). It is a thin wrapper over
// golang.org/x/sync/errgroup: the first error returned by any fn call
// cancels the group and is returned once every worker has stopped.
//
// This is the Go counterpart of the teacher's per-file/per-sequence
// task model (spec.md: "extraction parallelized across input fasta
// files (one task per file)"; "scanning and best-call resolution are
// parallel across sequences").
func Run(n int, items int, fn func(i int) error) error {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if items == 0 {
		return nil
	}
	if n > items {
		n = items
	}

	g, ctx := errgroup.WithContext(context.Background())
	work := make(chan int)

	g.Go(func() error {
		defer close(work)
		for i := 0; i < items; i++ {
			select {
			case work <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < n; w++ {
		g.Go(func() error {
			for i := range work {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// OutputQueue is a bounded MPMC queue with a single consumer, matching
// spec.md section 5: "bounded MPMC queue with back-pressure; one
// consumer thread serializes writes." Producers call Push from any
// number of goroutines; the caller drives one consumer goroutine via
// Drain.
type OutputQueue struct {
	ch chan interface{}
}

// NewOutputQueue returns a queue with the given capacity. A capacity
// of 0 makes every Push block until a Drain call is actively
// receiving, which is a legitimate (if slow) way to serialize output.
func NewOutputQueue(capacity int) *OutputQueue {
	return &OutputQueue{ch: make(chan interface{}, capacity)}
}

// Push enqueues an item, blocking if the queue is full.
func (q *OutputQueue) Push(item interface{}) {
	q.ch <- item
}

// Close signals that no more items will be pushed. Callers must call
// Close exactly once, after all producers have finished.
func (q *OutputQueue) Close() {
	close(q.ch)
}

// Drain calls fn once per queued item, in the order items were pushed,
// until Close has been called and the queue is empty. It is intended
// to run on a single dedicated consumer goroutine.
func (q *OutputQueue) Drain(fn func(item interface{})) {
	for item := range q.ch {
		fn(item)
	}
}
