// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package sstable implements the on-disk table format: data blocks, a
// secondary filter block, an interval block (in interval-block mode), a
// metaindex block, an index block, and a footer — following the LevelDB
// block layout the teacher's own sstable package is built on, simplified
// down to what this module's secondary attribute index actually needs.
package sstable

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/your-org/leveldbplus/internal/base"
)

// BlockWriter accumulates (key, value) pairs with LevelDB-style restart-
// point prefix compression: every restartInterval entries, the key is
// written in full and a restart offset is recorded; intermediate entries
// store only the suffix beyond their shared prefix with the prior key.
//
// Index and interval blocks pin restartInterval to 1, the same choice
// original_source/table/table_builder.cc makes for its own index and
// interval block options — every entry becomes its own restart point,
// trading block size for letting a reader binary-search entries directly
// without decoding intermediate keys.
type BlockWriter struct {
	restartInterval int
	buf             []byte
	restarts        []uint32
	nEntries        int
	lastKey         []byte
}

// NewBlockWriter creates a BlockWriter with the given restart interval.
func NewBlockWriter(restartInterval int) *BlockWriter {
	if restartInterval < 1 {
		restartInterval = 1
	}
	return &BlockWriter{restartInterval: restartInterval}
}

// Add appends one entry. Keys must be added in increasing order.
func (w *BlockWriter) Add(key, value []byte) {
	var shared int
	if w.nEntries%w.restartInterval == 0 {
		w.restarts = append(w.restarts, uint32(len(w.buf)))
	} else {
		shared = base.SharedPrefixLen(w.lastKey, key)
	}

	unshared := key[shared:]
	w.buf = binary.AppendUvarint(w.buf, uint64(shared))
	w.buf = binary.AppendUvarint(w.buf, uint64(len(unshared)))
	w.buf = binary.AppendUvarint(w.buf, uint64(len(value)))
	w.buf = append(w.buf, unshared...)
	w.buf = append(w.buf, value...)

	w.lastKey = append(w.lastKey[:0], key...)
	w.nEntries++
}

// Empty reports whether any entry has been added.
func (w *BlockWriter) Empty() bool { return w.nEntries == 0 }

// Entries reports how many entries have been added.
func (w *BlockWriter) Entries() int { return w.nEntries }

// Size reports the number of bytes accumulated so far, excluding the
// trailing restart-offset table Finish will append.
func (w *BlockWriter) Size() int { return len(w.buf) }

// Finish serializes the block: entries, followed by the restart-point
// offsets and a trailing count of restart points.
func (w *BlockWriter) Finish() []byte {
	buf := append([]byte(nil), w.buf...)
	for _, r := range w.restarts {
		buf = binary.LittleEndian.AppendUint32(buf, r)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(w.restarts)))
	return buf
}

// Reset clears the writer for reuse.
func (w *BlockWriter) Reset() {
	w.buf = w.buf[:0]
	w.restarts = w.restarts[:0]
	w.nEntries = 0
	w.lastKey = w.lastKey[:0]
}

// BlockIter walks a serialized block's entries in order. It is a read-only,
// forward-only cursor — sufficient for the secondary index's direct-
// iterator walks over the interval block (§10's "interval-block-mode file
// pruning without the ITree" supplement) and for simple full-block scans
// elsewhere; it does not implement seek/binary-search, which this module
// never needs outside that linear scan.
type BlockIter struct {
	data        []byte
	restarts    int
	restartsOff int
	offset      int
	key         []byte
	value       []byte
	valid       bool
}

// NewBlockIter constructs an iterator over a block produced by BlockWriter.
func NewBlockIter(block []byte) (*BlockIter, error) {
	if len(block) < 4 {
		return nil, errors.Mark(errors.New("sstable: block too short"), base.ErrCorruption)
	}
	nRestarts := binary.LittleEndian.Uint32(block[len(block)-4:])
	restartsOff := len(block) - 4 - int(nRestarts)*4
	if restartsOff < 0 {
		return nil, errors.Mark(errors.New("sstable: corrupt restart table"), base.ErrCorruption)
	}
	return &BlockIter{data: block, restarts: int(nRestarts), restartsOff: restartsOff}, nil
}

// First seeks to the first entry.
func (i *BlockIter) First() bool {
	i.offset = 0
	i.key = i.key[:0]
	return i.Next()
}

// Next advances to the next entry, returning false once the block is
// exhausted.
func (i *BlockIter) Next() bool {
	if i.offset >= i.restartsOff {
		i.valid = false
		return false
	}

	p := i.data[i.offset:i.restartsOff]
	shared, n1 := binary.Uvarint(p)
	p = p[n1:]
	unsharedLen, n2 := binary.Uvarint(p)
	p = p[n2:]
	valueLen, n3 := binary.Uvarint(p)
	p = p[n3:]

	unshared := p[:unsharedLen]
	value := p[unsharedLen : unsharedLen+valueLen]

	key := append(append([]byte(nil), i.key[:shared]...), unshared...)
	i.key = key
	i.value = value
	i.offset += n1 + n2 + n3 + int(unsharedLen) + int(valueLen)
	i.valid = true
	return true
}

// Key returns the current entry's key. Valid only after Next/First returns
// true.
func (i *BlockIter) Key() []byte { return i.key }

// Value returns the current entry's value.
func (i *BlockIter) Value() []byte { return i.value }

// Valid reports whether the iterator is positioned on an entry.
func (i *BlockIter) Valid() bool { return i.valid }
