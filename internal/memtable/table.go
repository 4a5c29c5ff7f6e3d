package memtable

import (
	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/secondary"
)

var _ secondary.RecordSource = (*MemTable)(nil)

// MemTable is the live write buffer: a skiplist of every recent (primary
// key, payload) write, paired with the secondary memtable's inverted
// list over the same records (§4.1, §4.6's "memtable path").
type MemTable struct {
	skl *skiplist
	smt *secondary.SMT
}

// New returns an empty MemTable extracting secondaryKey from each Set's
// payload.
func New(cmp base.Compare, secondaryKey string) *MemTable {
	return &MemTable{
		skl: newSkiplist(cmp),
		smt: secondary.New(secondaryKey),
	}
}

// Add records one write. key.SeqNum() must be strictly greater than any
// sequence number already assigned to this table (the caller, not the
// memtable, owns sequence number allocation).
func (m *MemTable) Add(key base.InternalKey, payload []byte) {
	m.skl.add(key, payload)
	m.smt.Insert(string(key.UserKey), payload, key.Kind())
}

// Get returns the most recent payload for primaryKey visible at
// snapshot. MemTable implements secondary.RecordSource directly: the SMT
// re-reads through the same table it was populated from.
func (m *MemTable) Get(primaryKey string, snapshot base.SeqNum) (payload []byte, kind base.InternalKeyKind, seqNum base.SeqNum, ok bool) {
	return m.skl.get([]byte(primaryKey), snapshot)
}

// SMT returns the secondary memtable backing this table's secondary
// lookups, for wiring into the query evaluator (§4.6).
func (m *MemTable) SMT() *secondary.SMT { return m.smt }

// Scan returns every entry (all versions, deletion tombstones included) in
// internal-key order, restricted to user keys in
// [low, high] when non-nil, used both to flush this table into an
// sstable and to serve a full-scan fallback.
func (m *MemTable) Scan(low, high []byte) []Entry {
	raw := m.skl.scan(low, high)
	out := make([]Entry, len(raw))
	for i, e := range raw {
		out[i] = Entry{Key: e.key, Value: e.value}
	}
	return out
}

// Entry is one exported (key, value) pair from a Scan.
type Entry struct {
	Key   base.InternalKey
	Value []byte
}

// Size reports the table's approximate memory footprint, used by the
// caller to decide when to flush (§6, "ambient: flush threshold").
func (m *MemTable) Size() int { return m.skl.sizeBytes() }
