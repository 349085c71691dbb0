// Package sched implements the cooperative FIFO scheduler and the blocking
// disk driver built on top of it. Both live in one package because
// BlockingDisk.WaitUntilReady must call back into Scheduler.Yield — the
// two form a single cooperative unit, not two independently reusable
// libraries.
package sched

// Thread is the opaque handle the scheduler and blocking disk pass
// around. The saved register window a real context switch needs is
// managed entirely by the dispatch primitive; this package only ever
// needs a stable identifier to enqueue, dequeue, and match against for
// termination.
type Thread interface {
	ID() uint32
}
