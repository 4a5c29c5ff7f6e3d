package secondary

import (
	"sort"
	"sync"

	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/query"
)

// RecordSource re-reads a primary key's current payload at a snapshot
// sequence number, matching the way MemTable::Get is re-invoked from
// MemTable::Get(skey, ...) in the original implementation: the SMT never
// caches payloads itself, only primary-key lists, and always re-reads
// through the same write buffer backing it.
type RecordSource interface {
	// Get returns the most recent payload for primaryKey visible at
	// snapshot, its kind, and its sequence number. ok is false if the
	// primary key has no entry visible at snapshot at all.
	Get(primaryKey string, snapshot base.SeqNum) (payload []byte, kind base.InternalKeyKind, seqNum base.SeqNum, ok bool)
}

// SMT is the secondary memtable: an inverted list from secondary value to
// the primary keys that produced it, scoped to one live write buffer.
// Insertion order is preserved (newest appended last); duplicate primary
// keys are permitted in a single bucket, since liveness is resolved at
// query time by re-reading through RecordSource.
type SMT struct {
	mu        sync.RWMutex
	secondary string
	buckets   map[string][]string
}

// New creates an SMT extracting the named secondary attribute from each
// inserted record.
func New(secondaryKey string) *SMT {
	return &SMT{secondary: secondaryKey, buckets: make(map[string][]string)}
}

// Insert records primaryKey under its extracted secondary value. A
// Deletion record, or one whose payload does not yield the configured
// attribute, is a silent no-op — matching "if extraction fails, no-op" in
// the spec for the SMT's insert operation.
func (s *SMT) Insert(primaryKey string, payload []byte, kind base.InternalKeyKind) {
	if kind == base.InternalKeyKindDelete {
		return
	}
	value, err := Extract(payload, s.secondary)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[value] = append(s.buckets[value], primaryKey)
}

// PointLookup walks the bucket for skey newest-first, re-reading and
// re-extracting each candidate through src, and admits live matches into
// heap subject to de-duplication against seen.
func (s *SMT) PointLookup(skey string, snapshot base.SeqNum, src RecordSource, heap *query.Heap, seen map[string]bool) {
	s.mu.RLock()
	bucket := append([]string(nil), s.buckets[skey]...)
	s.mu.RUnlock()

	for i := len(bucket) - 1; i >= 0; i-- {
		s.admit(bucket[i], skey, snapshot, src, heap, seen)
	}
}

// RangeLookup walks every bucket whose key lies in [low, high] in bucket
// order, applying the same per-bucket logic as PointLookup, with seen
// shared across buckets to prevent duplicate primary keys in the result.
func (s *SMT) RangeLookup(low, high string, snapshot base.SeqNum, src RecordSource, heap *query.Heap, seen map[string]bool) {
	s.mu.RLock()
	type bucket struct {
		key     string
		entries []string
	}
	var matching []bucket
	for k, v := range s.buckets {
		if k >= low && k <= high {
			matching = append(matching, bucket{k, append([]string(nil), v...)})
		}
	}
	s.mu.RUnlock()
	sort.Slice(matching, func(i, j int) bool { return matching[i].key < matching[j].key })

	for _, b := range matching {
		for i := len(b.entries) - 1; i >= 0; i-- {
			s.admit(b.entries[i], b.key, snapshot, src, heap, seen)
		}
	}
}

// admit re-reads primaryKey at snapshot, checks it is still live and that
// its current secondary value still equals expected (discarding the stale
// list entries a later overwrite leaves behind), and pushes it onto heap
// if it passes the evaluator's admission rule.
func (s *SMT) admit(primaryKey, expected string, snapshot base.SeqNum, src RecordSource, heap *query.Heap, seen map[string]bool) {
	if seen[primaryKey] {
		return
	}
	payload, kind, seqNum, ok := src.Get(primaryKey, snapshot)
	if !ok || kind != base.InternalKeyKindSet {
		return
	}
	value, err := Extract(payload, s.secondary)
	if err != nil || value != expected {
		return
	}

	heap.Admit(query.SecondaryHit{
		PrimaryKey: primaryKey,
		Payload:    payload,
		Trailer:    base.MakeTrailer(seqNum, kind),
	}, seen)
}
