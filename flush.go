// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package leveldbplus

import (
	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/memtable"
	"github.com/your-org/leveldbplus/internal/secondary"
	"github.com/your-org/leveldbplus/internal/version"
	"github.com/your-org/leveldbplus/sstable"
)

// flushLocked swaps in a fresh empty memtable and writes the old one's
// contents out as a new SSTable, the engine boundary's "flush-to-SSTable
// path" (SPEC_FULL §1). Called with d.mu held.
func (d *DB) flushLocked() error {
	old := d.mem
	d.mem = memtable.New(d.cmp, d.opts.SecondaryKey)

	entries := old.Scan(nil, nil)
	if len(entries) == 0 {
		return nil
	}

	meta, err := d.buildTable(entries)
	if err != nil {
		return err
	}
	d.versions.Apply(version.Edit{Added: []*version.TableMetadata{meta}})
	d.opts.Logger.Infof("flushed %d entries to table %s", len(entries), meta.FileNum)
	return nil
}

// buildTable writes entries (already in ascending internal-key order, as
// produced by memtable.Scan) to a new SSTable and opens a Reader over it,
// returning the metadata the VersionSet tracks it under.
func (d *DB) buildTable(entries []memtable.Entry) (*version.TableMetadata, error) {
	fileNum := d.versions.NextFileNum()
	name := d.fs.PathJoin(d.dirname, base.MakeFilename(base.FileTypeTable, fileNum))

	f, err := d.fs.Create(name)
	if err != nil {
		return nil, err
	}

	wopts := sstable.WriterOptions{
		FileNum:      uint64(fileNum),
		BlockSize:    d.opts.BlockSize,
		Compression:  d.opts.Compression,
		IDDelimiter:  d.opts.IDDelimiter,
		FilterPolicy: d.opts.FilterPolicy,
	}
	if d.tree != nil {
		wopts.Tree = d.tree
	}
	b := sstable.NewTableBuilder(f, d.cmp, wopts)

	var smallest, largest []byte
	for _, e := range entries {
		secVal, hasSec := "", false
		if e.Key.Kind() == base.InternalKeyKindSet {
			if v, err := secondary.Extract(e.Value, d.opts.SecondaryKey); err == nil {
				secVal, hasSec = v, true
			}
		}
		if err := b.Add(e.Key, e.Value, secVal, hasSec); err != nil {
			f.Close()
			return nil, err
		}
		if smallest == nil {
			smallest = append([]byte(nil), e.Key.UserKey...)
		}
		largest = append(largest[:0], e.Key.UserKey...)
	}
	if err := b.Finish(); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	rf, err := d.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := rf.Stat()
	if err != nil {
		return nil, err
	}
	r, err := sstable.OpenReader(rf, info.Size(), uint64(fileNum), d.tree == nil, d.opts.FilterPolicy, d.opts.BlockCache)
	if err != nil {
		return nil, err
	}

	smallestSec, largestSec, hasSecBounds := r.SecondaryBounds()
	meta := &version.TableMetadata{
		FileNum:            fileNum,
		Size:               uint64(info.Size()),
		Smallest:           smallest,
		Largest:            largest,
		HasSecondaryBounds: hasSecBounds,
		SmallestSec:        smallestSec,
		LargestSec:         largestSec,
		HasIntervalBlock:   d.tree == nil,
	}

	d.tableMu.Lock()
	d.readers[fileNum] = r
	d.tableMu.Unlock()

	return meta, nil
}

// Flush forces the active write buffer out to a new SSTable, even if it
// is under the automatic flush threshold. Mainly useful for tests and the
// benchmark CLI that want a deterministic table boundary.
func (d *DB) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushLocked()
}
