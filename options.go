// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package leveldbplus

import (
	"github.com/your-org/leveldbplus/bloom"
	"github.com/your-org/leveldbplus/cache"
	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/sstable"
	"github.com/your-org/leveldbplus/vfs"
)

// Options configures a DB. The zero value is valid; EnsureDefaults
// fills in everything a caller left unset, following the teacher's own
// Options/EnsureDefaults idiom (options.go).
type Options struct {
	// PrimaryKey names the field in each JSON record used as its primary
	// key; Put extracts each record's primary key from its payload
	// through this field.
	PrimaryKey string

	// SecondaryKey names the JSON field the secondary index is built
	// over (spec.md §3). Required; Open returns ErrInvalidArgument if
	// unset.
	SecondaryKey string

	// IntervalTreeFileName, when non-empty, selects ITree mode: per-block
	// secondary intervals are inserted into a shared ITree instead of
	// being written into each table's own interval block, and the file
	// also serves as the ITree's checkpoint path (§4.3, §6).
	IntervalTreeFileName string

	// FilterPolicy builds the primary and secondary Bloom filter blocks.
	// A nil policy disables both.
	FilterPolicy *bloom.FilterPolicy

	// BlockSize is the target uncompressed size of a data block before
	// the table builder closes it out.
	BlockSize int

	// Compression selects the on-disk block compression.
	Compression sstable.Compression

	// BlockCache is the shared sharded LRU backing every table's block
	// reads, adapted from the teacher's cache.go (§6, DOMAIN).
	BlockCache *cache.BlockCache

	// ParanoidChecks, when true, makes Get return a table read failure
	// (such as a checksum or decode failure) as ErrCorruption instead of
	// skipping that table and continuing with older ones. SGet and
	// SRangeGet do not consult it.
	ParanoidChecks bool

	// SyncThreshold is the number of ITree mutations between automatic
	// checkpoint writes (§4.3's "AMBIENT" checkpoint format). Zero
	// selects the ITree's default of 10000.
	SyncThreshold uint32

	// IDDelimiter separates an interval id's file-number prefix from its
	// last-user-key suffix (§6, "ID delimiter"). Defaults to '+'.
	IDDelimiter byte

	// TopKDefault is the K used by SGet/SRangeGet callers that don't
	// specify one explicitly.
	TopKDefault int

	// Logger receives diagnostic output; defaults to base.DefaultLogger.
	Logger base.Logger

	// FS is the filesystem Open reads and writes through; defaults to
	// vfs.Default. Tests substitute vfs.NewMem(), the teacher's own
	// Options.FS convention (options.go).
	FS vfs.FS
}

// EnsureDefaults returns a copy of o with every unset field given its
// default value.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	n := *o
	if n.BlockSize <= 0 {
		n.BlockSize = 4 << 10
	}
	if n.IDDelimiter == 0 {
		n.IDDelimiter = '+'
	}
	if n.TopKDefault <= 0 {
		n.TopKDefault = 10
	}
	if n.Logger == nil {
		n.Logger = base.DefaultLogger{}
	}
	if n.BlockCache == nil {
		n.BlockCache = cache.NewBlockCache(8 << 20)
	}
	if n.FS == nil {
		n.FS = vfs.Default
	}
	return &n
}
