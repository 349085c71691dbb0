package sched

// Queue is a FIFO queue of threads supporting enqueue, dequeue, and a
// linear scan for termination.
type Queue struct {
	items []Thread
}

// Enqueue appends t to the tail of the queue.
func (q *Queue) Enqueue(t Thread) {
	q.items = append(q.items, t)
}

// Dequeue removes and returns the head of the queue. ok is false if the
// queue is empty.
func (q *Queue) Dequeue() (t Thread, ok bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	t, q.items = q.items[0], q.items[1:]
	return t, true
}

// Len reports the number of threads currently queued.
func (q *Queue) Len() int {
	return len(q.items)
}

// RemoveID rotates the entire queue once, dropping every entry whose
// thread ID matches id and preserving the relative order of the rest.
func (q *Queue) RemoveID(id uint32) {
	kept := q.items[:0]
	for _, t := range q.items {
		if t.ID() != id {
			kept = append(kept, t)
		}
	}
	q.items = kept
}
