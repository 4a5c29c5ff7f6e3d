// Package query implements the top-K assembly shared by SGet and
// SRangeGet: a bounded min-heap over candidate records plus the
// de-duplication bookkeeping the saver callback needs while scanning
// write-buffer SMTs, SSTable blocks, or the ITree's lazy iterator.
package query

import (
	"container/heap"

	"github.com/your-org/leveldbplus/internal/base"
)

// SecondaryHit is one candidate admitted into a query's result heap: a
// live record whose secondary value matched, carrying enough to recover
// both its payload and its precedence.
type SecondaryHit struct {
	PrimaryKey string
	Payload    []byte
	Trailer    base.InternalKeyTrailer
}

// SeqNum returns the hit's sequence number, used to order results and to
// compare against the heap's minimum.
func (h SecondaryHit) SeqNum() base.SeqNum { return h.Trailer.SeqNum() }

// Heap is a bounded min-heap of SecondaryHit ordered by ascending sequence
// number (so the minimum — the next eviction candidate — sits at index 0),
// capped at K entries. Push reports the primary key it evicts, so callers
// can keep a shared `seen` set in step with the heap's contents.
type Heap struct {
	k     int
	items minHeap
}

// NewHeap creates a heap retaining at most k entries.
func NewHeap(k int) *Heap {
	return &Heap{k: k, items: make(minHeap, 0, k)}
}

// Len reports the number of entries currently held.
func (h *Heap) Len() int { return h.items.Len() }

// Full reports whether the heap has reached its capacity K.
func (h *Heap) Full() bool { return h.k > 0 && h.items.Len() >= h.k }

// MinSeqNum returns the sequence number of the heap's current minimum.
// Only meaningful when Full(); callers use it to decide whether a source
// can still contribute a higher-precedence candidate.
func (h *Heap) MinSeqNum() base.SeqNum {
	if h.items.Len() == 0 {
		return 0
	}
	return h.items[0].SeqNum()
}

// Push admits hit into the heap if capacity allows. When already full, it
// evicts the current minimum only if hit's sequence number is higher, and
// otherwise drops hit. The `seen`-set part of the admission rule is the
// caller's (see Admit); Push reports which primary key (if any) was
// evicted so the caller can clear it from seen.
func (h *Heap) Push(hit SecondaryHit) (evicted string, didEvict bool) {
	if h.k <= 0 {
		heap.Push(&h.items, hit)
		return "", false
	}
	if h.items.Len() < h.k {
		heap.Push(&h.items, hit)
		return "", false
	}
	if hit.SeqNum() <= h.MinSeqNum() {
		return "", false
	}
	min := heap.Pop(&h.items).(SecondaryHit)
	heap.Push(&h.items, hit)
	return min.PrimaryKey, true
}

// Admit applies the evaluator's admission rule from a shared `seen` set:
// the candidate is rejected if its primary key is already seen, or if the
// heap is full and the candidate does not beat the current minimum.
// Otherwise it is pushed, seen is updated, and any evicted key is removed
// from seen.
func (h *Heap) Admit(hit SecondaryHit, seen map[string]bool) bool {
	if seen[hit.PrimaryKey] {
		return false
	}
	if h.Full() && hit.SeqNum() <= h.MinSeqNum() {
		return false
	}
	evicted, didEvict := h.Push(hit)
	seen[hit.PrimaryKey] = true
	if didEvict {
		delete(seen, evicted)
	}
	return true
}

// Drain empties the heap and returns its contents sorted by descending
// sequence number, the order SGet/SRangeGet results are returned in.
func (h *Heap) Drain() []SecondaryHit {
	out := make([]SecondaryHit, h.items.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h.items).(SecondaryHit)
	}
	return out
}

type minHeap []SecondaryHit

func (m minHeap) Len() int { return len(m) }
func (m minHeap) Less(i, j int) bool {
	if m[i].SeqNum() != m[j].SeqNum() {
		return m[i].SeqNum() < m[j].SeqNum()
	}
	return m[i].PrimaryKey < m[j].PrimaryKey
}
func (m minHeap) Swap(i, j int)       { m[i], m[j] = m[j], m[i] }
func (m *minHeap) Push(x interface{}) { *m = append(*m, x.(SecondaryHit)) }
func (m *minHeap) Pop() interface{} {
	old := *m
	n := len(old)
	v := old[n-1]
	*m = old[:n-1]
	return v
}
