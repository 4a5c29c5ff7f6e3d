// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package leveldbplus

import (
	"github.com/cockroachdb/errors"

	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/query"
	"github.com/your-org/leveldbplus/internal/secondary"
	"github.com/your-org/leveldbplus/sstable"
)

// SGet performs a point secondary lookup, returning up to topK payloads
// whose extracted secondary value equals skey, newest first.
//
// Sources are consulted newest-first (§4.6): the active write buffer's
// SMT, then every SSTable (via the ITree's top-K iterator in ITree mode,
// or per-table interval-block evaluation otherwise).
func (d *DB) SGet(skey string, topK int) ([]query.SecondaryHit, error) {
	if topK <= 0 {
		topK = d.opts.TopKDefault
	}
	snap := d.snapshot()

	d.mu.Lock()
	mem := d.mem
	d.mu.Unlock()

	heap := query.NewHeap(topK)
	seen := make(map[string]bool)

	mem.SMT().PointLookup(skey, snap, mem, heap, seen)
	// A key the write buffer holds at snap has its newest version there
	// (a value or a deletion), which shadows every on-disk version of it.
	for _, e := range mem.Scan(nil, nil) {
		if e.Key.SeqNum() <= snap {
			seen[string(e.Key.UserKey)] = true
		}
	}

	if d.tree != nil {
		if err := d.evalPointViaTree(skey, heap, seen); err != nil {
			return nil, err
		}
	} else {
		if err := d.evalPointViaIntervalBlocks(skey, heap, seen); err != nil {
			return nil, err
		}
	}

	return heap.Drain(), nil
}

// evalPointViaIntervalBlocks walks every live table newest-first, letting
// each Reader.Get prune blocks by the table's own interval block (§4.5
// step 3).
func (d *DB) evalPointViaIntervalBlocks(skey string, heap *query.Heap, seen map[string]bool) error {
	saver := d.pointSaver(skey, heap, seen)
	for _, t := range d.liveTablesNewestFirst() {
		if !t.Intersects(skey, skey) {
			continue
		}
		r, err := d.openTable(t)
		if err != nil {
			return err
		}
		if err := r.Get(skey, saver); err != nil {
			return err
		}
	}
	return nil
}

// evalPointViaTree drives the evaluation from the ITree's single top-K
// iterator instead of per-table scans, yielding candidate blocks globally
// in descending max_seq order and stopping as soon as the heap is full
// and no remaining block could outrank its minimum (§4.6's stop
// condition).
func (d *DB) evalPointViaTree(skey string, heap *query.Heap, seen map[string]bool) error {
	it, err := d.tree.NewIterator(skey, skey)
	if err != nil {
		// An empty tree, or one already iterating concurrently (this
		// module serializes queries against it via a single iterator at
		// a time, per §5), degrades to "no on-disk matches" rather than
		// a hard failure.
		return nil
	}
	defer it.Close()

	saver := d.pointSaver(skey, heap, seen)
	readers := make(map[base.FileNum]*sstable.Reader)

	for {
		iv, ok, err := it.Next()
		if err != nil {
			if errors.Is(err, base.ErrCancelled) {
				return base.ErrQueryInterrupted
			}
			return err
		}
		if !ok {
			return nil
		}
		if heap.Full() && base.SeqNum(iv.Timestamp) <= heap.MinSeqNum() {
			return nil
		}

		fileNum, lastUserKey, ok := splitIntervalID(iv.ID)
		if !ok {
			continue
		}
		r, ok := readers[fileNum]
		if !ok {
			r, err = d.openTableByFileNum(fileNum)
			if err != nil {
				return err
			}
			readers[fileNum] = r
		}
		if err := r.ScanBlockByLastKey([]byte(lastUserKey), saver); err != nil {
			continue
		}
	}
}

// pointSaver re-extracts the secondary value from each candidate entry
// and applies the evaluator's admission rule (§4.6's "Saver callback"):
// a Deletion tombstones seen and returns; a Value admits on an exact
// match, and a Value that does not match also marks its primary key seen
// so that older versions of that key are not admitted.
func (d *DB) pointSaver(skey string, heap *query.Heap, seen map[string]bool) sstable.Saver {
	return func(key base.InternalKey, value []byte) (bool, error) {
		pk := string(key.UserKey)
		if seen[pk] {
			return false, nil
		}
		if key.Kind() != base.InternalKeyKindSet {
			seen[pk] = true
			return false, nil
		}
		v, err := secondary.Extract(value, d.opts.SecondaryKey)
		if err != nil || v != skey {
			seen[pk] = true
			return false, nil
		}
		heap.Admit(query.SecondaryHit{PrimaryKey: pk, Payload: value, Trailer: key.Trailer}, seen)
		return false, nil
	}
}

// openTableByFileNum opens (or returns the cached Reader for) the table
// identified by fileNum, looked up against the live VersionSet.
func (d *DB) openTableByFileNum(fileNum base.FileNum) (*sstable.Reader, error) {
	v := d.versions.Current()
	for _, t := range v.Tables {
		if t.FileNum == fileNum {
			return d.openTable(t)
		}
	}
	return nil, base.ErrNotFound
}

// splitIntervalID recovers (file_number, last_user_key) from an ITree
// interval id of the form "<file_number><delim><last_user_key>".
func splitIntervalID(id string) (fileNum base.FileNum, lastUserKey string, ok bool) {
	i := -1
	for j := 0; j < len(id); j++ {
		if id[j] < '0' || id[j] > '9' {
			i = j
			break
		}
	}
	if i <= 0 || i >= len(id) {
		return 0, "", false
	}
	var n uint64
	for _, c := range id[:i] {
		n = n*10 + uint64(c-'0')
	}
	return base.FileNum(n), id[i+1:], true
}
