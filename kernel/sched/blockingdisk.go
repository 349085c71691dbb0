package sched

// BlockingDisk parks threads whose I/O has not yet completed onto its own
// FIFO waiter queue, and inherits readiness from the underlying
// Controller.
type BlockingDisk struct {
	controller Controller
	scheduler  *Scheduler
	waiters    Queue
}

// NewBlockingDisk builds a disk driven by controller and registers it with
// scheduler, giving its waiter queue priority on every Yield.
func NewBlockingDisk(controller Controller, scheduler *Scheduler) *BlockingDisk {
	d := &BlockingDisk{controller: controller, scheduler: scheduler}
	scheduler.RegisterBlockingDisk(d)
	return d
}

// WaitUntilReady polls the controller once. If it is already ready,
// WaitUntilReady returns immediately. Otherwise the calling thread is
// enqueued onto the disk's waiter queue and the scheduler yields; when
// this thread is next dispatched — because Scheduler.Yield found the
// controller ready and this thread at the head of the waiter queue —
// WaitUntilReady returns here, and the caller (Read/Write) rechecks
// readiness in its own loop.
func (d *BlockingDisk) WaitUntilReady() {
	if d.controller.IsReady() {
		return
	}
	d.waiters.Enqueue(d.scheduler.dispatcher.Current())
	d.scheduler.Yield()
}

// Read issues a read of blockNo and blocks until the controller is ready,
// then transfers len(buf) words via PIO. Only the wait is blocking; the
// transfer itself is synchronous.
func (d *BlockingDisk) Read(blockNo uint32, buf []uint16) {
	d.controller.IssueOperation(OpRead, blockNo)
	for !d.controller.IsReady() {
		d.WaitUntilReady()
	}
	for i := range buf {
		buf[i] = d.controller.ReadWord()
	}
}

// Write issues a write of blockNo and blocks until the controller is
// ready, then transfers buf via PIO.
func (d *BlockingDisk) Write(blockNo uint32, buf []uint16) {
	d.controller.IssueOperation(OpWrite, blockNo)
	for !d.controller.IsReady() {
		d.WaitUntilReady()
	}
	for _, w := range buf {
		d.controller.WriteWord(w)
	}
}
