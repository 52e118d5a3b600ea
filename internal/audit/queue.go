package audit

import "sync"

// queue is a bounded, thread-safe FIFO for pending events. When full, the
// oldest events are dropped so observability can never block the operation it
// observes. A failed flush pushes its batch back to the front to keep
// at-least-once delivery.
type queue struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	dropped  int64
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = 10000
	}
	return &queue{capacity: capacity}
}

// Enqueue appends an event, dropping the oldest if the queue is full.
func (q *queue) Enqueue(event Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.capacity {
		q.events = q.events[1:]
		q.dropped++
	}
	q.events = append(q.events, event)
}

// DequeueAll removes and returns every pending event.
func (q *queue) DequeueAll() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	batch := q.events
	q.events = nil
	return batch
}

// Requeue returns an unflushed batch to the head of the queue, ahead of
// anything enqueued while the flush was in flight.
func (q *queue) Requeue(batch []Event) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(batch, q.events...)
	for len(q.events) > q.capacity {
		q.events = q.events[:len(q.events)-1]
		q.dropped++
	}
}

// Len returns the number of pending events.
func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns the total number of dropped events.
func (q *queue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
