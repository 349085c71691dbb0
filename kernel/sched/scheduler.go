package sched

import "memcore/kernel/console"

// Scheduler is a cooperative, non-preemptive FIFO scheduler: a single
// ready queue plus, once one is registered, a BlockingDisk whose own
// waiter queue takes priority on every Yield.
type Scheduler struct {
	dispatcher Dispatcher
	ready      Queue
	disk       *BlockingDisk
}

// NewScheduler builds a scheduler that dispatches through dispatcher.
func NewScheduler(dispatcher Dispatcher) *Scheduler {
	return &Scheduler{dispatcher: dispatcher}
}

// RegisterBlockingDisk gives d's waiter queue priority over the ready
// queue on every subsequent Yield.
func (s *Scheduler) RegisterBlockingDisk(d *BlockingDisk) {
	s.disk = d
}

// Yield dispatches the next runnable thread. If a BlockingDisk is
// registered, its controller reports ready, and it has a waiter, that
// waiter runs — I/O-completed threads take priority over the general run
// queue. Otherwise the ready queue's head runs. If both are empty,
// SCHEDULER_EMPTY is logged and Yield returns to the caller, who is
// expected to spin-yield.
func (s *Scheduler) Yield() {
	if s.disk != nil && s.disk.controller.IsReady() {
		if t, ok := s.disk.waiters.Dequeue(); ok {
			s.dispatcher.DispatchTo(t)
			return
		}
	}

	if t, ok := s.ready.Dequeue(); ok {
		s.dispatcher.DispatchTo(t)
		return
	}

	console.Logf("sched", "SCHEDULER_EMPTY: no runnable thread")
}

// Add and Resume both enqueue t onto the ready queue. They are kept as
// distinct names because their call sites — new-thread admission versus an
// explicit wake — are conceptually distinct even though the effect is
// identical.
func (s *Scheduler) Add(t Thread)    { s.ready.Enqueue(t) }
func (s *Scheduler) Resume(t Thread) { s.ready.Enqueue(t) }

// Terminate removes every ready-queue entry whose ID matches t's ID,
// preserving the FIFO order of everything else. It does not unwind t's
// stack or release its frames; that is the caller's responsibility.
func (s *Scheduler) Terminate(t Thread) {
	s.ready.RemoveID(t.ID())
}
