// Package memtable implements the write buffer that sits in front of the
// on-disk sstables: a skiplist ordered by internal key, paired with the
// secondary memtable's inverted list over the same records.
package memtable

import (
	"math/rand"
	"time"

	"github.com/your-org/leveldbplus/internal/base"
)

const (
	defaultMaxLevel = 16
	defaultP        = 0.5
)

// element is one node of the skiplist: a fully-encoded internal key
// (user key + trailer), its value, and its per-level forward pointers.
type element struct {
	key   base.InternalKey
	value []byte
	next  []*element
}

// skiplist orders entries by cmp over (user key, descending sequence
// number): distinct puts of the same user key never collide, since each
// carries a unique, strictly increasing sequence number, so every Add
// always inserts a new node rather than overwriting one in place — unlike
// the single-version skiplist this type is grounded on.
type skiplist struct {
	cmp      base.Compare
	maxLevel int
	p        float64
	rnd      *rand.Rand
	level    int
	head     *element
	size     int
}

func newSkiplist(cmp base.Compare) *skiplist {
	return &skiplist{
		cmp:      cmp,
		maxLevel: defaultMaxLevel,
		p:        defaultP,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		level:    1,
		head:     &element{next: make([]*element, defaultMaxLevel)},
	}
}

func (s *skiplist) randomLevel() int {
	level := 1
	for s.rnd.Float64() < s.p && level < s.maxLevel {
		level++
	}
	return level
}

// less orders two internal keys the way the memtable needs entries
// ordered: by user key ascending, then by sequence number descending (the
// newest version of a user key comes first), via base.InternalCompare.
func (s *skiplist) less(a, b base.InternalKey) bool {
	return base.InternalCompare(s.cmp, a, b) < 0
}

// add inserts key/value into the skiplist in internal-key order.
func (s *skiplist) add(key base.InternalKey, value []byte) {
	curr := s.head
	update := make([]*element, s.maxLevel)
	for i := s.maxLevel - 1; i >= 0; i-- {
		for curr.next[i] != nil && s.less(curr.next[i].key, key) {
			curr = curr.next[i]
		}
		update[i] = curr
	}

	level := s.randomLevel()
	if level > s.level {
		for i := s.level; i < level; i++ {
			update[i] = s.head
		}
		s.level = level
	}

	e := &element{key: key, value: value, next: make([]*element, level)}
	for i := 0; i < level; i++ {
		e.next[i] = update[i].next[i]
		update[i].next[i] = e
	}
	s.size += len(key.UserKey) + len(value) + base.InternalTrailerLen
}

// seekGE returns the first element at or after key in internal-key order.
func (s *skiplist) seekGE(key base.InternalKey) *element {
	curr := s.head
	for i := s.maxLevel - 1; i >= 0; i-- {
		for curr.next[i] != nil && s.less(curr.next[i].key, key) {
			curr = curr.next[i]
		}
	}
	return curr.next[0]
}

// get returns the most recent value for userKey visible at or before
// snapshot: the skiplist groups every version of a user key together
// with the newest sequence number first, so the first entry at or below
// snapshot is the answer.
func (s *skiplist) get(userKey []byte, snapshot base.SeqNum) (value []byte, kind base.InternalKeyKind, seqNum base.SeqNum, ok bool) {
	// maxKind exceeds every real InternalKeyKind, so the target trailer
	// sorts before (i.e. is >=) any real entry at the same sequence
	// number, making seekGE land on the first entry with seqNum <=
	// snapshot regardless of that entry's kind.
	const maxKind = base.InternalKeyKind(0xff)
	e := s.seekGE(base.MakeInternalKey(userKey, snapshot, maxKind))
	for e != nil && s.cmp(e.key.UserKey, userKey) == 0 {
		if e.key.SeqNum() <= snapshot {
			return e.value, e.key.Kind(), e.key.SeqNum(), true
		}
		e = e.next[0]
	}
	return nil, 0, 0, false
}

// entry is one (key, value) pair visited by a forward scan.
type entry struct {
	key   base.InternalKey
	value []byte
}

// scan returns every entry in internal-key order, optionally restricted
// to user keys in [low, high] (nil bounds mean unbounded). Used both to
// flush the whole memtable into an sstable and to re-scan a user-key
// range for the secondary memtable's RecordSource fallback.
func (s *skiplist) scan(low, high []byte) []entry {
	var out []entry
	e := s.head.next[0]
	if low != nil {
		e = s.seekGE(base.MakeInternalKey(low, base.SeqNumMax, base.InternalKeyKind(0xff)))
	}
	for e != nil {
		if high != nil && s.cmp(e.key.UserKey, high) > 0 {
			break
		}
		out = append(out, entry{key: e.key, value: e.value})
		e = e.next[0]
	}
	return out
}

func (s *skiplist) sizeBytes() int { return s.size }
