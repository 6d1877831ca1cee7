package engine

// readyQueue is a FIFO of items whose prerequisites are all emitted but which
// have not been emitted themselves.
//
// The queue is unbounded; a single emission can release any number of
// dependents. It is owned by one Resolver and is not safe for concurrent use.
type readyQueue struct {
	items []string
}

// newReadyQueue creates an empty ready queue.
func newReadyQueue() *readyQueue {
	return &readyQueue{
		items: make([]string, 0, 16),
	}
}

// push appends item to the back of the queue.
func (q *readyQueue) push(item string) {
	q.items = append(q.items, item)
}

// pop removes and returns the oldest item.
// Returns ("", false) if the queue is empty.
func (q *readyQueue) pop() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}

	item := q.items[0]
	if len(q.items) == 1 {
		// Reuse the backing array once drained.
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return item, true
}

// Len returns the current queue length.
func (q *readyQueue) Len() int {
	return len(q.items)
}
