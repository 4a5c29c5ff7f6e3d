package memtable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/query"
)

func set(userKey string, seq base.SeqNum, value string) base.InternalKey {
	return base.MakeInternalKey([]byte(userKey), seq, base.InternalKeyKindSet)
}

func TestMemTableGetReturnsNewestVisibleVersion(t *testing.T) {
	m := New(base.DefaultCompare, "age")
	m.Add(set("user/1", 1, `{"age":"3"}`), []byte(`{"age":"3"}`))
	m.Add(set("user/1", 2, `{"age":"5"}`), []byte(`{"age":"5"}`))

	payload, kind, seqNum, ok := m.Get("user/1", base.SeqNumMax)
	require.True(t, ok)
	require.Equal(t, base.InternalKeyKindSet, kind)
	require.Equal(t, base.SeqNum(2), seqNum)
	require.Equal(t, `{"age":"5"}`, string(payload))

	// At a snapshot before the second write, only the first is visible.
	payload, _, seqNum, ok = m.Get("user/1", 1)
	require.True(t, ok)
	require.Equal(t, base.SeqNum(1), seqNum)
	require.Equal(t, `{"age":"3"}`, string(payload))
}

func TestMemTableGetMissing(t *testing.T) {
	m := New(base.DefaultCompare, "age")
	_, _, _, ok := m.Get("nope", base.SeqNumMax)
	require.False(t, ok)
}

func TestMemTableDeleteHidesOlderVersion(t *testing.T) {
	m := New(base.DefaultCompare, "age")
	m.Add(set("user/1", 1, ""), []byte(`{"age":"3"}`))
	del := base.MakeInternalKey([]byte("user/1"), 2, base.InternalKeyKindDelete)
	m.Add(del, nil)

	_, kind, seqNum, ok := m.Get("user/1", base.SeqNumMax)
	require.True(t, ok)
	require.Equal(t, base.InternalKeyKindDelete, kind)
	require.Equal(t, base.SeqNum(2), seqNum)
}

func TestMemTableScanOrdersByUserKeyThenNewestFirst(t *testing.T) {
	m := New(base.DefaultCompare, "age")
	m.Add(set("b", 1, ""), []byte("1"))
	m.Add(set("a", 1, ""), []byte("1"))
	m.Add(set("a", 2, ""), []byte("2"))

	entries := m.Scan(nil, nil)
	require.Len(t, entries, 3)
	require.Equal(t, "a", string(entries[0].Key.UserKey))
	require.Equal(t, base.SeqNum(2), entries[0].Key.SeqNum())
	require.Equal(t, "a", string(entries[1].Key.UserKey))
	require.Equal(t, base.SeqNum(1), entries[1].Key.SeqNum())
	require.Equal(t, "b", string(entries[2].Key.UserKey))
}

func TestMemTableScanRespectsBounds(t *testing.T) {
	m := New(base.DefaultCompare, "age")
	for _, k := range []string{"a", "b", "c", "d"} {
		m.Add(set(k, 1, ""), []byte("v"))
	}
	entries := m.Scan([]byte("b"), []byte("c"))
	require.Len(t, entries, 2)
	require.Equal(t, "b", string(entries[0].Key.UserKey))
	require.Equal(t, "c", string(entries[1].Key.UserKey))
}

func TestMemTableSecondaryPointLookupViaSMT(t *testing.T) {
	m := New(base.DefaultCompare, "age")
	m.Add(set("user/1", 1, ""), []byte(`{"age":"3"}`))
	m.Add(set("user/2", 2, ""), []byte(`{"age":"5"}`))
	m.Add(set("user/3", 3, ""), []byte(`{"age":"3"}`))

	heap := query.NewHeap(10)
	seen := map[string]bool{}
	m.SMT().PointLookup("3", base.SeqNumMax, m, heap, seen)

	hits := heap.Drain()
	require.Len(t, hits, 2)
	var keys []string
	for _, h := range hits {
		keys = append(keys, h.PrimaryKey)
	}
	require.ElementsMatch(t, []string{"user/1", "user/3"}, keys)
}

func TestMemTableSizeGrowsWithWrites(t *testing.T) {
	m := New(base.DefaultCompare, "age")
	require.Equal(t, 0, m.Size())
	m.Add(set("a", 1, ""), []byte("hello"))
	require.Greater(t, m.Size(), 0)
}
