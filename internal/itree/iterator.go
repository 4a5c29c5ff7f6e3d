package itree

import (
	"container/heap"

	"github.com/cockroachdb/errors"

	"github.com/your-org/leveldbplus/internal/base"
)

// TopKIterator lazily walks the tree in descending-timestamp order over
// the intervals intersecting [low, high], without eagerly materializing
// every match the way TopK does.
//
// An ITree holds at most one live iterator; starting a new one while one
// is outstanding fails, and mutating the tree cancels the outstanding
// one. A cancelled iterator's Next returns base.ErrCancelled.
type TopKIterator struct {
	tree         *ITree
	searchLow    string
	searchHigh   string
	pq           nodeHeap
	explored     map[int32]bool
	valid        bool
}

type pqEntry struct {
	node     int32
	priority uint64
}

// nodeHeap is a max-heap on priority, giving the highest timestamp first —
// the Go equivalent of the original's push_heap/pop_heap pair using
// heapCompare.
type nodeHeap []pqEntry

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].priority > h[j].priority }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(pqEntry)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// NewIterator starts a top-K walk over intervals intersecting [low, high].
// It fails if the tree is empty or another iterator is already live.
func (t *ITree) NewIterator(low, high string) (*TopKIterator, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isNil(t.root) || t.iterator != nil {
		return nil, errors.Mark(
			errors.New("itree: tree is empty or already has a live iterator"),
			base.ErrInvalidArgument)
	}

	it := &TopKIterator{
		tree:       t,
		searchLow:  low,
		searchHigh: high,
		explored:   make(map[int32]bool),
		valid:      true,
	}
	heap.Push(&it.pq, pqEntry{node: t.root, priority: t.at(t.root).maxTimestamp})

	t.iterator = it
	return it, nil
}

// Next advances the iterator and returns the next interval in descending
// timestamp order, or ok=false once the search space is exhausted.
func (it *TopKIterator) Next() (Interval, bool, error) {
	it.tree.mu.Lock()
	defer it.tree.mu.Unlock()

	if !it.valid {
		return Interval{}, false, errors.Mark(
			errors.New("itree: iterator cancelled by a concurrent mutation"),
			base.ErrCancelled)
	}

	t := it.tree
	search := Interval{Low: it.searchLow, High: it.searchHigh}

	for it.pq.Len() > 0 {
		e := heap.Pop(&it.pq).(pqEntry)
		x := e.node
		n := t.at(x)

		if !it.explored[x] {
			if !t.isNil(n.left) && t.at(n.left).maxHigh >= search.Low {
				heap.Push(&it.pq, pqEntry{node: n.left, priority: t.at(n.left).maxTimestamp})
			}
			if !t.isNil(n.right) && t.at(n.right).maxHigh >= search.Low {
				heap.Push(&it.pq, pqEntry{node: n.right, priority: t.at(n.right).maxTimestamp})
			}
		}

		if n.interval.overlaps(search) {
			ts := n.interval.Timestamp
			if ts < e.priority {
				// The node was enqueued with its subtree's max timestamp,
				// which is above its own: a descendant may still be newer.
				// Re-enqueue it with its own timestamp and mark it
				// explored so we don't re-branch into its children a
				// second time.
				heap.Push(&it.pq, pqEntry{node: x, priority: ts})
				it.explored[x] = true
				continue
			}
			return n.interval, true, nil
		}
	}
	return Interval{}, false, nil
}

// Restart re-seeds the iterator over a new [low, high] range, in place.
func (it *TopKIterator) Restart(low, high string) {
	it.tree.mu.Lock()
	defer it.tree.mu.Unlock()

	it.pq = it.pq[:0]
	it.explored = make(map[int32]bool)
	it.searchLow, it.searchHigh = low, high
	if !it.tree.isNil(it.tree.root) {
		heap.Push(&it.pq, pqEntry{node: it.tree.root, priority: it.tree.at(it.tree.root).maxTimestamp})
	}
}

// Close releases the iterator, allowing a new one to be started.
func (it *TopKIterator) Close() {
	it.tree.mu.Lock()
	defer it.tree.mu.Unlock()
	it.stopLocked()
	if it.tree.iterator == it {
		it.tree.iterator = nil
	}
}

// stopLocked marks the iterator dead. Callers must hold tree.mu.
func (it *TopKIterator) stopLocked() {
	it.valid = false
	it.pq = nil
	it.explored = nil
}
