// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"io"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/your-org/leveldbplus/bloom"
	"github.com/your-org/leveldbplus/cache"
	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/invariants"
)

// Saver is called once per entry a read-time block scan visits. Re-
// extracting the secondary value, decoding the trailer, and deciding
// whether to admit the entry into the query's result heap (§4.6) is the
// evaluator's job, not the reader's — the reader only hands back raw
// entries in block order.
type Saver func(key base.InternalKey, value []byte) (stop bool, err error)

// Reader reads one on-disk table produced by TableBuilder.
type Reader struct {
	r       io.ReaderAt
	size    int64
	fileNum uint64
	cache   *cache.BlockCache

	footer Footer

	smallestSec, largestSec string
	hasSecBounds            bool

	filterPolicy          *bloom.FilterPolicy
	primaryFilterHandle   BlockHandle
	secondaryFilterHandle BlockHandle
	hasPrimaryFilter      bool
	hasSecondaryFilter    bool

	closeChecker invariants.CloseChecker
}

// Close releases the reader. If the underlying io.ReaderAt also implements
// io.Closer (as an *os.File does), it is closed too. Closing a Reader twice
// panics in invariant/race builds, per the teacher's own CloseChecker
// convention for catching double-close bugs in the table-cache layer that
// owns a Reader's lifetime.
func (r *Reader) Close() error {
	r.closeChecker.Close()
	if c, ok := r.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// OpenReader parses the footer, metaindex, and properties block of the
// table backing r; actual data/index/interval blocks are fetched lazily.
//
// hasIntervalBlock selects which footer variant to decode. Per §6, the
// footer's mode flag is "implied by the footer length" but established at
// open time from whether interval_tree_file_name is set — a process-wide,
// not per-file, choice — so the caller passes it explicitly rather than
// the reader sniffing it. Sniffing by trial decode is not reliable here:
// the footer's trailing magic bytes validate correctly regardless of how
// many preceding bytes happen to be read, so a wrong guess can silently
// decode a previous block's tail as a bogus third block handle.
func OpenReader(r io.ReaderAt, size int64, fileNum uint64, hasIntervalBlock bool, filterPolicy *bloom.FilterPolicy, blockCache *cache.BlockCache) (*Reader, error) {
	footerLen := int64(FooterLen(hasIntervalBlock))
	if size < footerLen {
		return nil, errors.Mark(errors.New("sstable: file too short for a footer"), base.ErrCorruption)
	}

	buf := make([]byte, footerLen)
	n, err := readFooterBytes(r, size, buf)
	if err != nil {
		return nil, err
	}
	footer, err := DecodeFooter(buf[:n])
	if err != nil {
		return nil, err
	}

	rd := &Reader{r: r, size: size, fileNum: fileNum, cache: blockCache, footer: footer, filterPolicy: filterPolicy}

	metaRaw, err := rd.readBlock(footer.MetaindexHandle)
	if err != nil {
		return nil, err
	}
	meta, err := NewBlockIter(metaRaw)
	if err != nil {
		return nil, err
	}
	var propsHandle BlockHandle
	hasProps := false
	for ok := meta.First(); ok; ok = meta.Next() {
		switch string(meta.Key()) {
		case "properties":
			propsHandle = decodeBlockHandle(meta.Value())
			hasProps = true
		case "filter." + filterPolicyName(filterPolicy):
			rd.primaryFilterHandle = decodeBlockHandle(meta.Value())
			rd.hasPrimaryFilter = true
		case "secondaryfilter." + filterPolicyName(filterPolicy):
			rd.secondaryFilterHandle = decodeBlockHandle(meta.Value())
			rd.hasSecondaryFilter = true
		}
	}

	if hasProps {
		propsRaw, err := rd.readBlock(propsHandle)
		if err == nil {
			if props, err := NewBlockIter(propsRaw); err == nil {
				for ok := props.First(); ok; ok = props.Next() {
					switch string(props.Key()) {
					case "smallest_sec":
						rd.smallestSec = string(props.Value())
						rd.hasSecBounds = true
					case "largest_sec":
						rd.largestSec = string(props.Value())
						rd.hasSecBounds = true
					}
				}
			}
		}
		// A corrupt properties block degrades to "no file-level pruning
		// available"; the caller still scans the file (§4.7).
	}

	return rd, nil
}

func filterPolicyName(p *bloom.FilterPolicy) string {
	if p == nil {
		return ""
	}
	return p.Name()
}

func readFooterBytes(r io.ReaderAt, size int64, buf []byte) (int, error) {
	off := size - int64(len(buf))
	if off < 0 {
		off = 0
		buf = buf[:size]
	}
	n, err := r.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return 0, err
	}
	return n, nil
}

// SecondaryBounds returns the table's (smallest_sec, largest_sec) pair
// recorded in its properties block, and whether the table carries any
// secondary-indexed entries at all.
func (r *Reader) SecondaryBounds() (smallest, largest string, ok bool) {
	return r.smallestSec, r.largestSec, r.hasSecBounds
}

// Intersects reports whether the table's secondary bounds could contain a
// match for [low, high] (§4.5 step 1).
func (r *Reader) Intersects(low, high string) bool {
	if !r.hasSecBounds {
		return false
	}
	return !(high < r.smallestSec || low > r.largestSec)
}

// PrimaryBounds returns the table's (smallest, largest) primary user-key
// bounds, read from the index block's last keys plus one scan of the
// first data block for its first key. Used to repopulate TableMetadata
// when a table is reopened across a restart, since the primary bounds
// are not themselves recorded in the properties block.
func (r *Reader) PrimaryBounds() (smallest, largest []byte, err error) {
	index, err := r.readIndex()
	if err != nil || len(index) == 0 {
		return nil, nil, err
	}
	largest = index[len(index)-1].lastUserKey

	_, err = r.scanDataBlock(index[0].handle, func(key base.InternalKey, _ []byte) (bool, error) {
		smallest = append([]byte(nil), key.UserKey...)
		return true, nil
	})
	return smallest, largest, err
}

func (r *Reader) readBlock(h BlockHandle) ([]byte, error) {
	if h.Length == 0 {
		return nil, nil
	}
	if cached := r.cache.Get(r.fileNum, h.Offset); cached != nil {
		return cached, nil
	}
	onDisk := make([]byte, h.Length)
	if _, err := r.r.ReadAt(onDisk, int64(h.Offset)); err != nil {
		return nil, err
	}
	raw, err := decompressBlock(onDisk)
	if err != nil {
		return nil, err
	}
	return r.cache.Insert(r.fileNum, h.Offset, raw), nil
}

// scanDataBlock decompresses the data block at handle and invokes saver
// for every entry, in order, stopping early if saver returns stop=true.
func (r *Reader) scanDataBlock(handle BlockHandle, saver Saver) (bool, error) {
	raw, err := r.readBlock(handle)
	if err != nil {
		return false, err
	}
	it, err := NewBlockIter(raw)
	if err != nil {
		// Corrupt data block: unlike filter/interval corruption, this
		// aborts the query per §4.7 ("only IOError on the data blocks
		// themselves aborts the query").
		return false, err
	}
	for ok := it.First(); ok; ok = it.Next() {
		ikey := base.DecodeInternalKey(it.Key())
		stop, err := saver(ikey, it.Value())
		if err != nil {
			return false, err
		}
		if stop {
			return true, nil
		}
	}
	return false, nil
}

// indexEntry is one decoded (last_user_key, handle) pair from the index
// block, used by both the point and range evaluators below.
type indexEntry struct {
	lastUserKey []byte
	handle      BlockHandle
}

// GetPrimary binary-searches the index for the one data block that could
// hold userKey (data blocks are sorted by ascending internal key, i.e.
// ascending primary key), then scans it for the newest version with a
// sequence number at most snapshot. This is the primary-key counterpart
// to Get/RangeGet's secondary-value lookups, needed because neither the
// interval block nor the secondary filter says anything about primary
// keys.
func (r *Reader) GetPrimary(cmp base.Compare, userKey []byte, snapshot base.SeqNum) (value []byte, kind base.InternalKeyKind, seqNum base.SeqNum, ok bool, err error) {
	index, err := r.readIndex()
	if err != nil {
		return nil, 0, 0, false, err
	}
	if len(index) == 0 {
		return nil, 0, 0, false, nil
	}

	i := sortSearch(len(index), func(i int) bool { return cmp(index[i].lastUserKey, userKey) >= 0 })
	if i == len(index) {
		return nil, 0, 0, false, nil
	}

	var (
		foundValue []byte
		foundKind  base.InternalKeyKind
		foundSeq   base.SeqNum
		found      bool
	)
	_, err = r.scanDataBlock(index[i].handle, func(key base.InternalKey, val []byte) (bool, error) {
		if cmp(key.UserKey, userKey) != 0 {
			return false, nil
		}
		if key.SeqNum() > snapshot {
			return false, nil
		}
		foundValue, foundKind, foundSeq, found = val, key.Kind(), key.SeqNum(), true
		return true, nil
	})
	return foundValue, foundKind, foundSeq, found, err
}

// sortSearch is sort.Search inlined to avoid importing "sort" into this
// file solely for one call site.
func sortSearch(n int, f func(int) bool) int {
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if f(mid) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

func (r *Reader) readIndex() ([]indexEntry, error) {
	raw, err := r.readBlock(r.footer.IndexHandle)
	if err != nil {
		return nil, err
	}
	it, err := NewBlockIter(raw)
	if err != nil {
		return nil, err
	}
	var entries []indexEntry
	for ok := it.First(); ok; ok = it.Next() {
		entries = append(entries, indexEntry{
			lastUserKey: append([]byte(nil), it.Key()...),
			handle:      decodeBlockHandle(it.Value()),
		})
	}
	return entries, nil
}

// intervalEntry is one decoded (min, max, maxSeq) triple from the interval
// block, in the same order as the index block (§6).
type intervalEntry struct {
	min, max string
	maxSeq   base.SeqNum
}

func decodeIntervalValue(buf []byte) (hasValue bool, max string, maxSeq base.SeqNum) {
	if len(buf) < 1 {
		return false, "", 0
	}
	hasValue = buf[0] != 0
	rest := buf[1:]
	nul := -1
	for i, c := range rest {
		if c == 0 {
			nul = i
			break
		}
	}
	if nul < 0 || len(rest)-nul-1 != 8 {
		return hasValue, string(rest), 0
	}
	max = string(rest[:nul])
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(rest[nul+1+i]) << (8 * i)
	}
	return hasValue, max, base.SeqNum(v)
}

// walkIntervals visits the interval block's restart-1 entries directly
// with a block iterator rather than decoding the whole block eagerly,
// following original_source/table/table.cc's iterInterval->Next() loop
// (§10). visit is called once per data block, in block order, even for
// blocks with no secondary value (hasValue=false) so that the caller's
// index-block lockstep counter never drifts out of alignment.
func (r *Reader) walkIntervals(visit func(hasValue bool, min, max string, maxSeq base.SeqNum) (stop bool)) error {
	if !r.footer.HasIntervalBlock {
		return nil
	}
	raw, err := r.readBlock(r.footer.IntervalHandle)
	if err != nil {
		// Corrupt interval block: fall back to a full scan by reporting
		// no intervals known (§4.7); the caller must still visit every
		// block unconditionally in that case.
		return err
	}
	it, err := NewBlockIter(raw)
	if err != nil {
		return err
	}
	for ok := it.First(); ok; ok = it.Next() {
		hasValue, max, maxSeq := decodeIntervalValue(it.Value())
		if visit(hasValue, string(it.Key()), max, maxSeq) {
			break
		}
	}
	return nil
}

// Get performs the interval-block-mode point evaluation from §4.5 step 3:
// walk the index and interval blocks in lockstep, probe the secondary
// filter with skey alone (accepting false positives since the tag is
// unknown at query time), and scan matching data blocks.
func (r *Reader) Get(skey string, saver Saver) error {
	if !r.Intersects(skey, skey) {
		return nil
	}

	index, err := r.readIndex()
	if err != nil {
		return err
	}

	// The secondary filter's keys are composite (secondary_value ∥ tag,
	// §6), but the tag is unknown at point-query time, so a probe here
	// can only be built from the value alone — a probe against a filter
	// built from different bytes than it was populated with cannot be
	// trusted to say "definitely absent" without risking a real match.
	// Per §4.5 step 3 this module accepts the filter's false positives
	// (i.e. never treats a miss as authoritative for skipping a block)
	// rather than risk a false negative; the filter block is still
	// written, but no read path consults it.
	i := 0
	var scanErr error
	intervalErr := r.walkIntervals(func(hasValue bool, min, max string, _ base.SeqNum) bool {
		defer func() { i++ }()
		if i >= len(index) {
			return true
		}
		if !hasValue || skey < min || skey > max {
			return false
		}
		stop, err := r.scanDataBlock(index[i].handle, saver)
		if err != nil {
			scanErr = err
			return true
		}
		return stop
	})
	if scanErr != nil {
		return scanErr
	}
	if intervalErr != nil {
		// Corrupt interval block: correctness-preserving fallback is a
		// full scan of every data block (§4.7).
		for _, e := range index {
			if stop, err := r.scanDataBlock(e.handle, saver); err != nil {
				return err
			} else if stop {
				break
			}
		}
	}
	return nil
}

// RangeGet performs the interval-block-mode range evaluation from §4.5
// step 4: block-interval-vs-range intersection, no filter probe.
func (r *Reader) RangeGet(low, high string, saver Saver) error {
	if !r.Intersects(low, high) {
		return nil
	}

	index, err := r.readIndex()
	if err != nil {
		return err
	}

	i := 0
	var scanErr error
	intervalErr := r.walkIntervals(func(hasValue bool, min, max string, _ base.SeqNum) bool {
		defer func() { i++ }()
		if i >= len(index) {
			return true
		}
		if !hasValue || high < min || low > max {
			return false
		}
		stop, err := r.scanDataBlock(index[i].handle, saver)
		if err != nil {
			scanErr = err
			return true
		}
		return stop
	})
	if scanErr != nil {
		return scanErr
	}
	if intervalErr != nil {
		for _, e := range index {
			if stop, err := r.scanDataBlock(e.handle, saver); err != nil {
				return err
			} else if stop {
				break
			}
		}
	}
	return nil
}

// ScanAll walks every data block in ascending internal-key order, calling
// saver once per entry. Used by compaction to read back a table's full
// contents for merging, rather than by any query-time evaluation path.
func (r *Reader) ScanAll(saver Saver) error {
	index, err := r.readIndex()
	if err != nil {
		return err
	}
	for _, e := range index {
		stop, err := r.scanDataBlock(e.handle, saver)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return nil
}

// ScanBlockByLastKey opens the data block whose index entry's last user
// key exactly matches lastUserKey and scans it with saver. This is how
// ITree-mode evaluation (driven by an itree.TopKIterator yielding block
// ids of the form "<file_number>+<last_user_key>") resolves an id back to
// an actual block, since ITree-mode tables carry no interval block of
// their own.
func (r *Reader) ScanBlockByLastKey(lastUserKey []byte, saver Saver) error {
	index, err := r.readIndex()
	if err != nil {
		return err
	}
	for _, e := range index {
		if string(e.lastUserKey) == string(lastUserKey) {
			_, err := r.scanDataBlock(e.handle, saver)
			return err
		}
	}
	return errors.Mark(errors.Newf("sstable: no block ending in key %q", lastUserKey), base.ErrNotFound)
}

// NumEntries reads the table's recorded entry count from its properties
// block, mainly for diagnostics/tests.
func (r *Reader) NumEntries() (int, error) {
	metaRaw, err := r.readBlock(r.footer.MetaindexHandle)
	if err != nil {
		return 0, err
	}
	meta, err := NewBlockIter(metaRaw)
	if err != nil {
		return 0, err
	}
	for ok := meta.First(); ok; ok = meta.Next() {
		if string(meta.Key()) == "properties" {
			propsRaw, err := r.readBlock(decodeBlockHandle(meta.Value()))
			if err != nil {
				return 0, err
			}
			props, err := NewBlockIter(propsRaw)
			if err != nil {
				return 0, err
			}
			for ok := props.First(); ok; ok = props.Next() {
				if string(props.Key()) == "num_entries" {
					return strconv.Atoi(string(props.Value()))
				}
			}
		}
	}
	return 0, nil
}
