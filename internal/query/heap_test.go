package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/leveldbplus/internal/base"
)

func hit(pk string, seq base.SeqNum) SecondaryHit {
	return SecondaryHit{PrimaryKey: pk, Trailer: base.MakeTrailer(seq, base.InternalKeyKindSet)}
}

func TestHeapCapsAtK(t *testing.T) {
	h := NewHeap(3)
	seen := map[string]bool{}
	for i, pk := range []string{"a", "b", "c", "d", "e"} {
		h.Admit(hit(pk, base.SeqNum(i+1)), seen)
	}
	require.Equal(t, 3, h.Len())

	got := h.Drain()
	require.Len(t, got, 3)
	require.Equal(t, "e", got[0].PrimaryKey)
	require.Equal(t, "d", got[1].PrimaryKey)
	require.Equal(t, "c", got[2].PrimaryKey)
}

func TestHeapRejectsDuplicatePrimaryKey(t *testing.T) {
	h := NewHeap(5)
	seen := map[string]bool{}
	require.True(t, h.Admit(hit("a", 1), seen))
	require.False(t, h.Admit(hit("a", 2), seen), "seen set should block a second admission of the same key")
	require.Equal(t, 1, h.Len())
}

func TestHeapEvictionClearsSeen(t *testing.T) {
	h := NewHeap(1)
	seen := map[string]bool{}
	h.Admit(hit("a", 1), seen)
	h.Admit(hit("b", 2), seen)

	require.False(t, seen["a"], "evicted key must be cleared from seen")
	require.True(t, seen["b"])
}

func TestHeapRejectsLowerSeqOnceFull(t *testing.T) {
	h := NewHeap(1)
	seen := map[string]bool{}
	h.Admit(hit("a", 5), seen)
	require.False(t, h.Admit(hit("b", 1), seen), "lower sequence should not evict when full")
	require.Equal(t, "a", h.Drain()[0].PrimaryKey)
}
