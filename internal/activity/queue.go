package activity

import "container/heap"

// Queue is a min-heap of *ActivityEvent ordered by Priority (ascending
// timestamp). It is single-producer, single-consumer per poller target per
// §5 and therefore carries no internal locking — callers serialise access.
type Queue struct {
	items pqSlice
}

// NewQueue returns an empty priority queue ready for use.
func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.items)
	return q
}

// Push enqueues an event.
func (q *Queue) Push(e *ActivityEvent) {
	heap.Push(&q.items, e)
}

// Pop removes and returns the lowest-priority (earliest timestamp) event.
// The second return value is false if the queue is empty.
func (q *Queue) Pop() (*ActivityEvent, bool) {
	if q.items.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(*ActivityEvent), true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return q.items.Len()
}

type pqSlice []*ActivityEvent

func (s pqSlice) Len() int { return len(s) }

func (s pqSlice) Less(i, j int) bool {
	return s[i].Priority() < s[j].Priority()
}

func (s pqSlice) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s *pqSlice) Push(x any) {
	*s = append(*s, x.(*ActivityEvent))
}

func (s *pqSlice) Pop() any {
	old := *s
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*s = old[:n-1]
	return item
}
