// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package leveldbplus

import (
	"github.com/cockroachdb/errors"

	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/itree"
	"github.com/your-org/leveldbplus/internal/memtable"
	"github.com/your-org/leveldbplus/internal/version"
	"github.com/your-org/leveldbplus/sstable"
)

// Open opens (creating if necessary) the store rooted at dirname.
func Open(dirname string, opts *Options) (*DB, error) {
	opts = opts.EnsureDefaults()
	if opts.SecondaryKey == "" {
		return nil, errors.Wrap(base.ErrInvalidArgument, "leveldbplus: SecondaryKey is required")
	}

	fs := opts.FS
	if err := fs.MkdirAll(dirname, 0755); err != nil {
		return nil, err
	}

	lockName := fs.PathJoin(dirname, base.MakeFilename(base.FileTypeLock, 0))
	fileLock, err := fs.Lock(lockName)
	if err != nil {
		return nil, errors.Wrap(err, "leveldbplus: acquiring database lock")
	}

	d := &DB{
		opts:     opts,
		fs:       fs,
		dirname:  dirname,
		cmp:      base.DefaultCompare,
		fileLock: fileLock,
		mem:      memtable.New(base.DefaultCompare, opts.SecondaryKey),
		versions: version.NewVersionSet(),
		readers:  make(map[base.FileNum]*sstable.Reader),
	}

	if opts.IntervalTreeFileName != "" {
		d.tree = itree.New(&itree.Options{
			IDDelimiter:   opts.IDDelimiter,
			SyncThreshold: opts.SyncThreshold,
			SyncFile:      opts.IntervalTreeFileName,
			Logger:        opts.Logger,
		})
		if err := d.tree.LoadCheckpoint(opts.IntervalTreeFileName); err != nil {
			fileLock.Close()
			return nil, errors.Wrap(err, "leveldbplus: loading itree checkpoint")
		}
	}

	if err := d.loadExistingTables(); err != nil {
		fileLock.Close()
		return nil, err
	}

	return d, nil
}

// loadExistingTables scans dirname for table files left by a previous
// run, opens each as a Reader, and seeds the VersionSet and the database's
// file-number and sequence-number counters from them.
func (d *DB) loadExistingTables() error {
	names, err := d.fs.List(d.dirname)
	if err != nil {
		return err
	}

	var tables []*version.TableMetadata
	var maxFileNum base.FileNum

	for _, name := range names {
		fileType, fileNum, ok := base.ParseFilename(name)
		if !ok || fileType != base.FileTypeTable {
			continue
		}
		if fileNum > maxFileNum {
			maxFileNum = fileNum
		}

		path := d.fs.PathJoin(d.dirname, name)
		f, err := d.fs.Open(path)
		if err != nil {
			return err
		}
		info, err := f.Stat()
		if err != nil {
			return err
		}
		r, err := sstable.OpenReader(f, info.Size(), uint64(fileNum), d.tree == nil, d.opts.FilterPolicy, d.opts.BlockCache)
		if err != nil {
			return errors.Wrapf(err, "leveldbplus: opening %s", name)
		}

		smallest, largest, err := r.PrimaryBounds()
		if err != nil {
			return err
		}
		smallestSec, largestSec, hasSecBounds := r.SecondaryBounds()
		if err := r.ScanAll(func(key base.InternalKey, _ []byte) (bool, error) {
			if s := uint64(key.SeqNum()); s > d.seqNum.Load() {
				d.seqNum.Store(s)
			}
			return false, nil
		}); err != nil {
			return err
		}

		d.readers[fileNum] = r
		tables = append(tables, &version.TableMetadata{
			FileNum:            fileNum,
			Size:               uint64(info.Size()),
			Smallest:           smallest,
			Largest:            largest,
			HasSecondaryBounds: hasSecBounds,
			SmallestSec:        smallestSec,
			LargestSec:         largestSec,
			HasIntervalBlock:   d.tree == nil,
		})
	}

	for i := base.FileNum(0); i < maxFileNum; i++ {
		d.versions.NextFileNum()
	}
	if len(tables) > 0 {
		d.versions.Apply(version.Edit{Added: tables})
	}
	return nil
}
