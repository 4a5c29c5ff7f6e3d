package secondary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/query"
)

// fakeSource is an in-memory RecordSource backing the SMT point/range
// lookup tests, standing in for the primary write buffer the real SMT
// re-reads through.
type fakeSource struct {
	records map[string]struct {
		payload []byte
		kind    base.InternalKeyKind
		seqNum  base.SeqNum
	}
}

func newFakeSource() *fakeSource {
	return &fakeSource{records: map[string]struct {
		payload []byte
		kind    base.InternalKeyKind
		seqNum  base.SeqNum
	}{}}
}

func (f *fakeSource) set(primaryKey string, payload []byte, kind base.InternalKeyKind, seqNum base.SeqNum) {
	f.records[primaryKey] = struct {
		payload []byte
		kind    base.InternalKeyKind
		seqNum  base.SeqNum
	}{payload, kind, seqNum}
}

func (f *fakeSource) Get(primaryKey string, snapshot base.SeqNum) ([]byte, base.InternalKeyKind, base.SeqNum, bool) {
	r, ok := f.records[primaryKey]
	if !ok || r.seqNum > snapshot {
		return nil, 0, 0, false
	}
	return r.payload, r.kind, r.seqNum, true
}

func TestSMTPointLookup(t *testing.T) {
	smt := New("age")
	src := newFakeSource()

	for i := 0; i < 50; i++ {
		pk := string(rune('a' + i))
		payload := []byte(`{"age":` + ageString(i%10) + `}`)
		src.set(pk, payload, base.InternalKeyKindSet, base.SeqNum(i+1))
		smt.Insert(pk, payload, base.InternalKeyKindSet)
	}

	h := query.NewHeap(100)
	seen := map[string]bool{}
	smt.PointLookup(ageString(5), base.SeqNumMax, src, h, seen)

	require.Equal(t, 5, h.Len())
}

func TestSMTSkipsDeletions(t *testing.T) {
	smt := New("age")
	smt.Insert("a", []byte(`{"age":5}`), base.InternalKeyKindDelete)

	h := query.NewHeap(10)
	seen := map[string]bool{}
	smt.PointLookup("5", base.SeqNumMax, newFakeSource(), h, seen)
	require.Equal(t, 0, h.Len())
}

func TestSMTDiscardsStaleBucketEntries(t *testing.T) {
	smt := New("age")
	src := newFakeSource()

	payloadRed := []byte(`{"age":"red"}`)
	payloadBlue := []byte(`{"age":"blue"}`)

	smt.Insert("k", payloadRed, base.InternalKeyKindSet)
	src.set("k", payloadRed, base.InternalKeyKindSet, 10)

	smt.Insert("k", payloadBlue, base.InternalKeyKindSet)
	src.set("k", payloadBlue, base.InternalKeyKindSet, 20)

	h := query.NewHeap(5)
	seen := map[string]bool{}
	smt.PointLookup("red", base.SeqNumMax, src, h, seen)
	require.Equal(t, 0, h.Len(), "the bucket entry for red is stale once k is overwritten to blue")

	h2 := query.NewHeap(5)
	seen2 := map[string]bool{}
	smt.PointLookup("blue", base.SeqNumMax, src, h2, seen2)
	require.Equal(t, 1, h2.Len())
	require.Equal(t, base.SeqNum(20), h2.Drain()[0].SeqNum())
}

func TestSMTRangeLookup(t *testing.T) {
	smt := New("age")
	src := newFakeSource()

	for i := 0; i < 50; i++ {
		pk := string(rune('a' + i))
		payload := []byte(`{"age":"` + ageString(i%10) + `"}`)
		src.set(pk, payload, base.InternalKeyKindSet, base.SeqNum(i+1))
		smt.Insert(pk, payload, base.InternalKeyKindSet)
	}

	h := query.NewHeap(100)
	seen := map[string]bool{}
	smt.RangeLookup(ageString(3), ageString(5), base.SeqNumMax, src, h, seen)
	require.Equal(t, 15, h.Len())
}

func ageString(age int) string {
	const digits = "0123456789"
	return string(digits[age])
}
