package sstable

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/leveldbplus/bloom"
	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/itree"
)

type record struct {
	userKey   string
	seqNum    base.SeqNum
	kind      base.InternalKeyKind
	value     string
	secondary string
	hasSec    bool
}

func buildTable(t *testing.T, opts WriterOptions, records []record) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	b := NewTableBuilder(&buf, base.DefaultCompare, opts)
	for _, r := range records {
		key := base.MakeInternalKey([]byte(r.userKey), r.seqNum, r.kind)
		require.NoError(t, b.Add(key, []byte(r.value), r.secondary, r.hasSec))
	}
	require.NoError(t, b.Finish())
	return &buf
}

func sampleRecords() []record {
	return []record{
		{userKey: "user/001", seqNum: 1, kind: base.InternalKeyKindSet, value: `{"age":3}`, secondary: "3", hasSec: true},
		{userKey: "user/002", seqNum: 2, kind: base.InternalKeyKindSet, value: `{"age":5}`, secondary: "5", hasSec: true},
		{userKey: "user/003", seqNum: 3, kind: base.InternalKeyKindSet, value: `{"age":7}`, secondary: "7", hasSec: true},
		{userKey: "user/004", seqNum: 4, kind: base.InternalKeyKindSet, value: `{}`, hasSec: false},
	}
}

func TestTableRoundTripIntervalBlockMode(t *testing.T) {
	opts := WriterOptions{FileNum: 1, BlockSize: 1 << 20, FilterPolicy: bloom.NewFilterPolicy(10)}
	buf := buildTable(t, opts, sampleRecords())

	r, err := OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), 1, true, opts.FilterPolicy, nil)
	require.NoError(t, err)
	require.True(t, r.footer.HasIntervalBlock)

	smallest, largest, ok := r.SecondaryBounds()
	require.True(t, ok)
	require.Equal(t, "3", smallest)
	require.Equal(t, "7", largest)

	n, err := r.NumEntries()
	require.NoError(t, err)
	require.Equal(t, 4, n)

	var got []string
	require.NoError(t, r.Get("5", func(key base.InternalKey, value []byte) (bool, error) {
		got = append(got, string(key.UserKey))
		return false, nil
	}))
	require.Contains(t, got, "user/002")
}

func TestTableRangeGetIntervalBlockMode(t *testing.T) {
	opts := WriterOptions{FileNum: 1, BlockSize: 1 << 20, FilterPolicy: bloom.NewFilterPolicy(10)}
	buf := buildTable(t, opts, sampleRecords())

	r, err := OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), 1, true, opts.FilterPolicy, nil)
	require.NoError(t, err)

	var got []string
	require.NoError(t, r.RangeGet("3", "5", func(key base.InternalKey, value []byte) (bool, error) {
		got = append(got, string(key.UserKey))
		return false, nil
	}))
	// All four records share one block whose interval [3, 7] intersects
	// [3, 5]; the reader hands every entry of that block to the saver and
	// leaves per-entry filtering to it.
	require.ElementsMatch(t, []string{"user/001", "user/002", "user/003", "user/004"}, got)
}

func TestTableOutOfRangeSkipsEntirely(t *testing.T) {
	opts := WriterOptions{FileNum: 1, BlockSize: 1 << 20}
	buf := buildTable(t, opts, sampleRecords())

	r, err := OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), 1, true, nil, nil)
	require.NoError(t, err)

	var got []string
	require.NoError(t, r.Get("100", func(key base.InternalKey, value []byte) (bool, error) {
		got = append(got, string(key.UserKey))
		return false, nil
	}))
	require.Empty(t, got)
}

func TestTableITreeMode(t *testing.T) {
	tree := itree.New(nil)
	opts := WriterOptions{FileNum: 7, BlockSize: 1 << 20, Tree: tree, IDDelimiter: '+'}
	buf := buildTable(t, opts, sampleRecords())

	r, err := OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), 7, false, nil, nil)
	require.NoError(t, err)
	require.False(t, r.footer.HasIntervalBlock)

	results := tree.TopK("3", "7")
	require.Len(t, results, 1)
	require.Equal(t, "3", results[0].Low)
	require.Equal(t, "7", results[0].High)

	var got []string
	require.NoError(t, r.ScanBlockByLastKey([]byte("user/004"), func(key base.InternalKey, value []byte) (bool, error) {
		got = append(got, string(key.UserKey))
		return false, nil
	}))
	require.Equal(t, []string{"user/001", "user/002", "user/003", "user/004"}, got)
}

func TestTableSmallBlocksProduceMultipleBlocks(t *testing.T) {
	opts := WriterOptions{FileNum: 1, BlockSize: 1, FilterPolicy: bloom.NewFilterPolicy(10)}
	buf := buildTable(t, opts, sampleRecords())

	r, err := OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), 1, true, opts.FilterPolicy, nil)
	require.NoError(t, err)
	index, err := r.readIndex()
	require.NoError(t, err)
	require.Greater(t, len(index), 1)

	var got []string
	require.NoError(t, r.RangeGet("0", "9", func(key base.InternalKey, value []byte) (bool, error) {
		got = append(got, string(key.UserKey))
		return false, nil
	}))
	require.ElementsMatch(t, []string{"user/001", "user/002", "user/003"}, got)
}
