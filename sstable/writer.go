// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/your-org/leveldbplus/bloom"
	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/internal/itree"
	"github.com/your-org/leveldbplus/internal/secondary"
)

// WriterOptions configures a TableBuilder.
type WriterOptions struct {
	FileNum         uint64
	BlockSize       int
	RestartInterval int
	Compression     Compression
	FilterPolicy    *bloom.FilterPolicy // nil disables both filter blocks
	// Tree, when non-nil, selects ITree mode: block intervals are inserted
	// directly into Tree instead of being written to an interval block.
	Tree *itree.ITree
	// IDDelimiter matches the ITree's own delimiter, used to build the
	// "<file_number><delim><last_user_key>" interval id (§6, "ID
	// delimiter").
	IDDelimiter byte
}

func (o WriterOptions) ensureDefaults() WriterOptions {
	if o.BlockSize <= 0 {
		o.BlockSize = 4 << 10
	}
	if o.RestartInterval <= 0 {
		o.RestartInterval = 16
	}
	if o.IDDelimiter == 0 {
		o.IDDelimiter = '+'
	}
	return o
}

// TableBuilder assembles one SSTable: the data blocks, the primary and
// secondary filter blocks, the interval block (or ITree insertions) from
// §4.4, and the closing metaindex/index/footer.
//
// In ITree mode, each block's (min_sec, max_sec, max_seq) is inserted into
// opts.Tree as it is finished rather than written into the table; the
// table itself carries no interval block and gets the shorter (40-byte)
// footer.
type TableBuilder struct {
	w    io.Writer
	opts WriterOptions
	cmp  base.Compare

	offset int

	dataBlock     *BlockWriter
	indexBlock    *BlockWriter
	intervalBlock *BlockWriter // nil in ITree mode

	primaryFilter   *bloom.Writer
	secondaryFilter *bloom.Writer

	blockAcc        secondary.BlockAccumulator
	fileBounds      secondary.FileBounds
	lastUserKey     []byte
	lastInternalKey []byte

	numEntries int
	closed     bool
}

// NewTableBuilder returns a TableBuilder writing to w.
func NewTableBuilder(w io.Writer, cmp base.Compare, opts WriterOptions) *TableBuilder {
	opts = opts.ensureDefaults()
	b := &TableBuilder{
		w:          w,
		opts:       opts,
		cmp:        cmp,
		dataBlock:  NewBlockWriter(opts.RestartInterval),
		indexBlock: NewBlockWriter(1),
	}
	if opts.Tree == nil {
		b.intervalBlock = NewBlockWriter(1)
	}
	if opts.FilterPolicy != nil {
		b.primaryFilter = opts.FilterPolicy.NewWriter()
		b.secondaryFilter = opts.FilterPolicy.NewWriter()
	}
	return b
}

// Add appends one entry in increasing internal-key order. secondaryValue
// and hasSecondary come from re-running the extractor over value at flush
// or compaction time (§4.1); an entry with !hasSecondary still contributes
// its sequence number to the enclosing block's max_seq (§4.4).
func (b *TableBuilder) Add(key base.InternalKey, value []byte, secondaryValue string, hasSecondary bool) error {
	if b.closed {
		return errors.New("sstable: add on a closed builder")
	}
	if b.lastUserKey != nil && base.InternalCompare(b.cmp, base.DecodeInternalKey(b.lastInternalKey), key) >= 0 {
		return errors.Newf("sstable: keys added out of order: %q >= %q", b.lastUserKey, key.UserKey)
	}

	ikey := key.EncodeAppend(nil)
	b.dataBlock.Add(ikey, value)
	if b.primaryFilter != nil {
		b.primaryFilter.AddKey(key.UserKey)
	}

	if hasSecondary {
		b.blockAcc.Add(secondaryValue, key.SeqNum())
		if b.secondaryFilter != nil {
			b.secondaryFilter.AddKey(secondary.MakeCompositeKey(secondaryValue, key.SeqNum(), key.Kind()))
		}
	} else {
		b.blockAcc.AddSeqNum(key.SeqNum())
	}

	b.lastUserKey = append(b.lastUserKey[:0], key.UserKey...)
	b.lastInternalKey = append(b.lastInternalKey[:0], ikey...)
	b.numEntries++

	if b.dataBlock.Entries() >= 1 && b.dataBlock.Size() >= b.opts.BlockSize {
		return b.finishDataBlock()
	}
	return nil
}

// finishDataBlock closes out the current data block: writes it (with its
// compression/checksum trailer), records its index entry, and folds its
// accumulated (min_sec, max_sec, max_seq) into either the ITree or the
// interval block.
func (b *TableBuilder) finishDataBlock() error {
	raw := b.dataBlock.Finish()
	if len(raw) == 0 {
		return nil
	}
	onDisk := compressBlock(raw, b.opts.Compression)
	handle := BlockHandle{Offset: uint64(b.offset), Length: uint64(len(onDisk))}
	if _, err := b.w.Write(onDisk); err != nil {
		return err
	}
	b.offset += len(onDisk)

	indexKey := append([]byte(nil), b.lastUserKey...)
	b.indexBlock.Add(indexKey, handle.encode(nil))

	hasValue := b.blockAcc.HasValue()
	min, max, maxSeq := b.blockAcc.Bounds()
	if hasValue {
		b.fileBounds.Union(min, max)
	}

	if b.opts.Tree != nil {
		if hasValue {
			id := fmt.Sprintf("%d%c%s", b.opts.FileNum, b.opts.IDDelimiter, string(b.lastUserKey))
			if err := b.opts.Tree.Insert(id, min, max, uint64(maxSeq)); err != nil {
				return errors.Wrap(err, "sstable: itree insert")
			}
		}
	} else {
		// Always emit exactly one interval-block entry per data block, in
		// block order, even when the block has no secondary value at all
		// — the reader walks the index and interval blocks in lockstep
		// (§4.4/§6) and needs that 1:1 correspondence to stay aligned.
		var valBuf []byte
		if hasValue {
			valBuf = append(valBuf, 1)
		} else {
			valBuf = append(valBuf, 0)
		}
		valBuf = append(valBuf, max...)
		valBuf = append(valBuf, 0) // NUL separator; secondary values never contain NUL (JSON text)
		valBuf = appendUint64(valBuf, uint64(maxSeq))
		b.intervalBlock.Add([]byte(min), valBuf)
	}

	b.blockAcc.Reset()
	b.dataBlock.Reset()
	return nil
}

func appendUint64(dst []byte, v uint64) []byte {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return append(dst, buf[:]...)
}

// Finish flushes any pending data block and writes the filter, interval,
// properties, metaindex, index blocks and footer.
func (b *TableBuilder) Finish() error {
	if b.closed {
		return errors.New("sstable: Finish called twice")
	}
	b.closed = true

	if err := b.finishDataBlock(); err != nil {
		return err
	}

	meta := NewBlockWriter(1)

	if b.primaryFilter != nil {
		if filter, ok := b.primaryFilter.Finish(); ok {
			h, err := b.writeRawBlock(filter)
			if err != nil {
				return err
			}
			meta.Add([]byte("filter."+b.opts.FilterPolicy.Name()), h.encode(nil))
		}
	}
	if b.secondaryFilter != nil {
		if filter, ok := b.secondaryFilter.Finish(); ok {
			h, err := b.writeRawBlock(filter)
			if err != nil {
				return err
			}
			meta.Add([]byte("secondaryfilter."+b.opts.FilterPolicy.Name()), h.encode(nil))
		}
	}

	props := NewBlockWriter(1)
	if smallest, largest, ok := b.fileBounds.Bounds(); ok {
		props.Add([]byte("smallest_sec"), []byte(smallest))
		props.Add([]byte("largest_sec"), []byte(largest))
	}
	props.Add([]byte("num_entries"), []byte(strconv.Itoa(b.numEntries)))
	propsHandle, err := b.writeRawBlock(props.Finish())
	if err != nil {
		return err
	}
	meta.Add([]byte("properties"), propsHandle.encode(nil))

	metaHandle, err := b.writeRawBlock(meta.Finish())
	if err != nil {
		return err
	}

	indexHandle, err := b.writeRawBlock(b.indexBlock.Finish())
	if err != nil {
		return err
	}

	footer := Footer{MetaindexHandle: metaHandle, IndexHandle: indexHandle}
	if b.intervalBlock != nil {
		intervalHandle, err := b.writeRawBlock(b.intervalBlock.Finish())
		if err != nil {
			return err
		}
		footer.IntervalHandle = intervalHandle
		footer.HasIntervalBlock = true
	}

	_, err = b.w.Write(footer.Encode())
	return err
}

func (b *TableBuilder) writeRawBlock(raw []byte) (BlockHandle, error) {
	onDisk := compressBlock(raw, b.opts.Compression)
	h := BlockHandle{Offset: uint64(b.offset), Length: uint64(len(onDisk))}
	if _, err := b.w.Write(onDisk); err != nil {
		return BlockHandle{}, err
	}
	b.offset += len(onDisk)
	return h, nil
}
