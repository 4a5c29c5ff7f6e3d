// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package leveldbplus

import (
	"sort"

	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/memtable"
	"github.com/your-org/leveldbplus/internal/version"
	"github.com/your-org/leveldbplus/vfs"
)

// Compact merges every live SSTable into a single new one — the
// "single-pass size-tiered merge" this module's reference engine uses in
// place of the teacher's full leveled compaction policy (Non-goals:
// "compaction heuristics/leveling policy beyond a single-pass size-tiered
// merge sufficient to exercise ITree interval deletion"). The active
// write buffer is flushed first so the merge sees every committed write.
//
// Superseded tables are dropped from the VersionSet, their block
// intervals removed from the ITree (in ITree mode), and their files
// deleted through the configured Cleaner.
func (d *DB) Compact() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.flushLocked(); err != nil {
		return err
	}

	v := d.versions.Current()
	if len(v.Tables) < 2 {
		return nil
	}

	entries, err := d.readAllEntries(v.Tables)
	if err != nil {
		return err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return base.InternalCompare(d.cmp, entries[i].Key, entries[j].Key) < 0
	})
	// Keep only the newest version of each user key (first after the
	// sort); the older versions it shadows are dropped.
	kept := entries[:0]
	for _, e := range entries {
		if len(kept) > 0 && d.cmp(kept[len(kept)-1].Key.UserKey, e.Key.UserKey) == 0 {
			continue
		}
		kept = append(kept, e)
	}
	entries = kept

	meta, err := d.buildTable(entries)
	if err != nil {
		return err
	}

	removed := make([]base.FileNum, len(v.Tables))
	for i, t := range v.Tables {
		removed[i] = t.FileNum
	}
	d.versions.Apply(version.Edit{Added: []*version.TableMetadata{meta}, Removed: removed})
	d.opts.Logger.Infof("compacted %d tables into %s (%d entries)", len(v.Tables), meta.FileNum, len(entries))

	return d.disposeTables(v.Tables)
}

// readAllEntries reads back every entry from tables, in table order (not
// yet merged).
func (d *DB) readAllEntries(tables []*version.TableMetadata) ([]memtable.Entry, error) {
	var entries []memtable.Entry
	for _, t := range tables {
		r, err := d.openTable(t)
		if err != nil {
			return nil, err
		}
		if err := r.ScanAll(func(key base.InternalKey, value []byte) (bool, error) {
			entries = append(entries, memtable.Entry{Key: key, Value: append([]byte(nil), value...)})
			return false, nil
		}); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// disposeTables closes, untracks, and removes every file backing tables,
// and drops their contribution to the ITree when one is configured.
// Called with d.mu held, after tables have already been superseded in
// the VersionSet.
func (d *DB) disposeTables(tables []*version.TableMetadata) error {
	d.tableMu.Lock()
	for _, t := range tables {
		if r, ok := d.readers[t.FileNum]; ok {
			r.Close()
			delete(d.readers, t.FileNum)
		}
	}
	d.tableMu.Unlock()

	if d.tree != nil {
		for _, t := range tables {
			if err := d.tree.DeleteAll(fileNumString(t.FileNum)); err != nil {
				d.opts.Logger.Infof("itree: dropping intervals for table %s failed: %v", t.FileNum, err)
			}
		}
	}

	cleaner := vfs.DeleteCleaner{}
	for _, t := range tables {
		path := d.fs.PathJoin(d.dirname, base.MakeFilename(base.FileTypeTable, t.FileNum))
		if err := cleaner.Clean(d.fs, base.FileTypeTable, path); err != nil {
			return err
		}
	}
	return nil
}
