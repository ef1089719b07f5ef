package knuffimap

import "sync"

// queue is an unbounded FIFO. push never blocks, pop blocks until an item
// arrives or the queue is closed and empty.
type queue[E any] struct {
	lock   sync.Mutex
	cond   sync.Cond
	items  []E
	closed bool
}

func newQueue[E any]() *queue[E] {
	q := &queue[E]{}
	q.cond.L = &q.lock
	return q
}

// push reports false once the queue is closed.
func (q *queue[E]) push(e E) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, e)
	q.cond.Signal()
	return true
}

func (q *queue[E]) pop() (e E, ok bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return e, false
	}
	var zero E
	e = q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return e, true
}

// close stops accepting items. Pending items are still handed out by pop
// unless discard is set.
func (q *queue[E]) close(discard bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.closed = true
	if discard {
		q.items = nil
	}
	q.cond.Broadcast()
}

func (q *queue[E]) len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}
