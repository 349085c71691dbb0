package sched

import "testing"

type fakeThread struct{ id uint32 }

func (f fakeThread) ID() uint32 { return f.id }

type fakeDispatcher struct {
	dispatched []Thread
	current    Thread
}

func (f *fakeDispatcher) DispatchTo(t Thread) {
	f.dispatched = append(f.dispatched, t)
	f.current = t
}

func (f *fakeDispatcher) Current() Thread { return f.current }

// Property 8: with no disk waiters, the k-th yield dispatches the k-th
// add/resume call.
func TestSchedulerFIFO(t *testing.T) {
	disp := &fakeDispatcher{}
	s := NewScheduler(disp)

	t1, t2, t3 := fakeThread{1}, fakeThread{2}, fakeThread{3}
	s.Add(t1)
	s.Resume(t2)
	s.Add(t3)

	for i := 0; i < 3; i++ {
		s.Yield()
	}

	want := []uint32{1, 2, 3}
	if len(disp.dispatched) != len(want) {
		t.Fatalf("expected %d dispatches; got %d", len(want), len(disp.dispatched))
	}
	for i, id := range want {
		if disp.dispatched[i].ID() != id {
			t.Fatalf("dispatch %d: expected thread %d; got %d", i, id, disp.dispatched[i].ID())
		}
	}
}

// S5 / Property 9: a ready disk with waiters is dispatched ahead of the
// ready queue.
func TestSchedulerDiskPriority(t *testing.T) {
	disp := &fakeDispatcher{}
	s := NewScheduler(disp)
	ctrl := &fakeController{ready: true}
	disk := NewBlockingDisk(ctrl, s)

	t1, t2, t3 := fakeThread{1}, fakeThread{2}, fakeThread{3}
	s.Add(t1)
	s.Add(t2)
	disk.waiters.Enqueue(t3)

	s.Yield()
	if got := len(disp.dispatched); got != 1 || disp.dispatched[0].ID() != 3 {
		t.Fatalf("expected the first yield to dispatch the disk waiter T3; got %+v", disp.dispatched)
	}

	s.Yield()
	if got := len(disp.dispatched); got != 2 || disp.dispatched[1].ID() != 1 {
		t.Fatalf("expected the second yield to dispatch the ready-queue head T1; got %+v", disp.dispatched)
	}
}

func TestSchedulerYieldWithNothingRunnable(t *testing.T) {
	disp := &fakeDispatcher{}
	s := NewScheduler(disp)

	s.Yield()
	if len(disp.dispatched) != 0 {
		t.Fatal("expected no dispatch when nothing is runnable")
	}
}

// S6: terminate rotates the ready queue once, dropping every entry with a
// matching ID and preserving the order of the rest.
func TestSchedulerTerminate(t *testing.T) {
	disp := &fakeDispatcher{}
	s := NewScheduler(disp)

	t1, t2, t3 := fakeThread{1}, fakeThread{2}, fakeThread{3}
	s.Add(t1)
	s.Add(t2)
	s.Add(t1)
	s.Add(t3)

	s.Terminate(t1)

	if got := s.ready.Len(); got != 2 {
		t.Fatalf("expected 2 threads left in the ready queue; got %d", got)
	}

	var order []uint32
	for {
		th, ok := s.ready.Dequeue()
		if !ok {
			break
		}
		order = append(order, th.ID())
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 3 {
		t.Fatalf("expected [2 3] after terminating T1; got %v", order)
	}
}
