package dispatch

import (
	"container/heap"

	"hvacctl/internal/models"
)

// waitItem is one room parked in the waiting queue W.
type waitItem struct {
	roomID string
	prio   int
	wait   models.WaitRemaining
	index  int // maintained by container/heap
}

// waitQueue is a priority queue over waitItem ordered so that Pop
// returns the best promotion candidate: highest priority first, ties
// broken by smallest WaitRemaining (finite beats indefinite; among
// finite, smaller means closer to slice expiry, i.e. waited longest).
// Grounded on the Less-function shape of a container/heap-backed
// waiting queue keyed the same way (priority desc, then a wait metric
// asc) seen in the pack's other hotel-dispatch example.
type waitQueue struct {
	items []*waitItem
	index map[string]*waitItem
}

func newWaitQueue() *waitQueue {
	return &waitQueue{index: make(map[string]*waitItem)}
}

func (q *waitQueue) Len() int { return len(q.items) }

func (q *waitQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.prio != b.prio {
		return a.prio > b.prio
	}
	return a.wait.Less(b.wait)
}

func (q *waitQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *waitQueue) Push(x any) {
	item := x.(*waitItem)
	item.index = len(q.items)
	q.items = append(q.items, item)
}

func (q *waitQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	q.items = old[:n-1]
	return item
}

// push inserts or replaces a room's entry and fixes heap order.
func (q *waitQueue) push(roomID string, prio int, wait models.WaitRemaining) {
	if existing, ok := q.index[roomID]; ok {
		existing.prio = prio
		existing.wait = wait
		heap.Fix(q, existing.index)
		return
	}
	item := &waitItem{roomID: roomID, prio: prio, wait: wait}
	heap.Push(q, item)
	q.index[roomID] = item
}

// remove drops a room from the queue if present.
func (q *waitQueue) remove(roomID string) (waitItem, bool) {
	item, ok := q.index[roomID]
	if !ok {
		return waitItem{}, false
	}
	heap.Remove(q, item.index)
	delete(q.index, roomID)
	return *item, true
}

// best returns the top promotion candidate without removing it.
func (q *waitQueue) best() (*waitItem, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// popBest removes and returns the top promotion candidate.
func (q *waitQueue) popBest() (waitItem, bool) {
	best, ok := q.best()
	if !ok {
		return waitItem{}, false
	}
	return q.remove(best.roomID)
}

// all returns every waiting room id, for iteration during Tick.
func (q *waitQueue) all() []string {
	ids := make([]string, 0, len(q.items))
	for _, it := range q.items {
		ids = append(ids, it.roomID)
	}
	return ids
}

// updateWait rewrites a room's remaining wait without reordering other
// ties except this item's own position.
func (q *waitQueue) updateWait(roomID string, wait models.WaitRemaining) {
	item, ok := q.index[roomID]
	if !ok {
		return
	}
	item.wait = wait
	heap.Fix(q, item.index)
}

func (q *waitQueue) get(roomID string) (waitItem, bool) {
	item, ok := q.index[roomID]
	if !ok {
		return waitItem{}, false
	}
	return *item, true
}
