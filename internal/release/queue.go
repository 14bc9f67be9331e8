// Package release defers destruction of GPU objects until the frames that
// may still reference them have finished.
package release

import "sync"

type item struct {
	frame uint64
	fn    func()
}

// Queue is an order-preserving FIFO of release callbacks tagged with the
// frame they were queued in.
//
// Queue is safe for concurrent use.
type Queue struct {
	mu    sync.Mutex
	items []item
}

// Push queues fn for release after frame.
func (q *Queue) Push(frame uint64, fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, item{frame: frame, fn: fn})
	q.mu.Unlock()
}

// Drain runs, in queue order, every callback queued in a frame <= upTo
// and returns how many ran. Callbacks run outside the lock and may Push.
// Draining stops at the first callback from a later frame.
func (q *Queue) Drain(upTo uint64) int {
	q.mu.Lock()
	n := 0
	for n < len(q.items) && q.items[n].frame <= upTo {
		n++
	}
	ready := make([]item, n)
	copy(ready, q.items[:n])
	q.items = append(q.items[:0], q.items[n:]...)
	q.mu.Unlock()

	for _, it := range ready {
		it.fn()
	}
	return n
}

// DrainAll runs every queued callback, including those pushed while
// draining.
func (q *Queue) DrainAll() int {
	total := 0
	for {
		q.mu.Lock()
		ready := q.items
		q.items = nil
		q.mu.Unlock()
		if len(ready) == 0 {
			return total
		}
		for _, it := range ready {
			it.fn()
		}
		total += len(ready)
	}
}

// Len returns the number of pending callbacks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
