// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package leveldbplus is a minimal reference LSM key/value store hosting
// a secondary attribute index: a per-SSTable secondary Bloom filter,
// per-block secondary min/max interval metadata, an in-memory inverted
// list (the SMT), and a global augmented interval tree (the ITree)
// answering top-K queries over a secondary JSON attribute.
package leveldbplus

import (
	"io"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/itree"
	"github.com/your-org/leveldbplus/internal/memtable"
	"github.com/your-org/leveldbplus/internal/secondary"
	"github.com/your-org/leveldbplus/internal/version"
	"github.com/your-org/leveldbplus/sstable"
	"github.com/your-org/leveldbplus/vfs"
)

// memTableFlushThreshold bounds the active write buffer's size before Put
// forces a synchronous flush to a new SSTable. This module has no
// background flush thread (§1's Non-goals exclude WAL/group-commit
// machinery that would make one worth building), so the flush happens
// inline on whichever Put crosses the threshold.
const memTableFlushThreshold = 4 << 20

// DB is an open secondary-indexed key/value store.
type DB struct {
	opts    *Options
	fs      vfs.FS
	dirname string
	cmp     base.Compare

	fileLock io.Closer

	// mu serializes every write (Put/Delete/flush/compaction), the
	// teacher's "commit mutex" shape (commit.go) simplified to a single
	// lock since this module has no WAL group-commit pipeline to batch.
	mu     sync.Mutex
	mem    *memtable.MemTable
	seqNum atomic.Uint64

	versions *version.VersionSet

	// tree is non-nil in ITree mode (Options.IntervalTreeFileName set);
	// nil selects per-table interval-block mode.
	tree *itree.ITree

	tableMu sync.Mutex
	readers map[base.FileNum]*sstable.Reader

	closed bool
}

// nextSeqNum allocates the next write's sequence number.
func (d *DB) nextSeqNum() base.SeqNum {
	return base.SeqNum(d.seqNum.Add(1))
}

// snapshot returns the sequence number of the most recently committed
// write, used as the implicit read snapshot for Get/SGet/SRangeGet (§6's
// query API takes no explicit snapshot argument).
func (d *DB) snapshot() base.SeqNum {
	return base.SeqNum(d.seqNum.Load())
}

// Put derives payload's primary key via Options.PrimaryKey and writes it
// as the newest version of that key.
func (d *DB) Put(payload []byte) error {
	pk, err := secondary.Extract(payload, d.opts.PrimaryKey)
	if err != nil {
		return err
	}
	return d.commit(base.InternalKeyKindSet, pk, payload)
}

// Delete removes primaryKey by writing a deletion tombstone, shadowing
// every earlier version at read time until compaction drops them.
func (d *DB) Delete(primaryKey string) error {
	return d.commit(base.InternalKeyKindDelete, primaryKey, nil)
}

func (d *DB) commit(kind base.InternalKeyKind, primaryKey string, payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("leveldbplus: db is closed")
	}

	seq := d.nextSeqNum()
	key := base.MakeInternalKey([]byte(primaryKey), seq, kind)
	d.mem.Add(key, payload)

	if d.mem.Size() >= memTableFlushThreshold {
		if err := d.flushLocked(); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the current payload for primaryKey.
func (d *DB) Get(primaryKey string) ([]byte, error) {
	snap := d.snapshot()

	d.mu.Lock()
	mem := d.mem
	d.mu.Unlock()

	if payload, kind, _, ok := mem.Get(primaryKey, snap); ok {
		if kind == base.InternalKeyKindDelete {
			return nil, base.ErrNotFound
		}
		return payload, nil
	}

	key := []byte(primaryKey)
	for _, t := range d.liveTablesNewestFirst() {
		if d.cmp(key, t.Smallest) < 0 || d.cmp(key, t.Largest) > 0 {
			continue
		}
		r, err := d.openTable(t)
		if err != nil {
			return nil, err
		}
		payload, kind, _, found, err := r.GetPrimary(d.cmp, key, snap)
		if err != nil {
			if d.opts.ParanoidChecks {
				return nil, errors.Mark(err, base.ErrCorruption)
			}
			continue
		}
		if !found {
			continue
		}
		if kind == base.InternalKeyKindDelete {
			return nil, base.ErrNotFound
		}
		return payload, nil
	}
	return nil, base.ErrNotFound
}

// liveTablesNewestFirst returns the current table set ordered by
// descending file number, the recency proxy used to prefer a newer
// table's version of an overlapping key.
func (d *DB) liveTablesNewestFirst() []*version.TableMetadata {
	v := d.versions.Current()
	tables := append([]*version.TableMetadata(nil), v.Tables...)
	sort.Slice(tables, func(i, j int) bool { return tables[i].FileNum > tables[j].FileNum })
	return tables
}

// openTable returns a cached Reader for t, opening it if necessary.
func (d *DB) openTable(t *version.TableMetadata) (*sstable.Reader, error) {
	d.tableMu.Lock()
	defer d.tableMu.Unlock()

	if r, ok := d.readers[t.FileNum]; ok {
		return r, nil
	}

	name := d.fs.PathJoin(d.dirname, base.MakeFilename(base.FileTypeTable, t.FileNum))
	f, err := d.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	r, err := sstable.OpenReader(f, info.Size(), uint64(t.FileNum), t.HasIntervalBlock, d.opts.FilterPolicy, d.opts.BlockCache)
	if err != nil {
		return nil, err
	}
	d.readers[t.FileNum] = r
	return r, nil
}

// Close flushes nothing further (the caller is responsible for any
// pending writes) and releases every open table and the directory lock.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var firstErr error
	d.tableMu.Lock()
	for num, r := range d.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(d.readers, num)
	}
	d.tableMu.Unlock()

	if d.tree != nil {
		if err := d.tree.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.fileLock != nil {
		if err := d.fileLock.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// fileNumString renders a FileNum the way interval ids embed it (decimal,
// unpadded), matching TableBuilder's "%d%c%s" id format.
func fileNumString(n base.FileNum) string {
	return strconv.FormatUint(uint64(n), 10)
}
